package tui

import (
	"fmt"

	"campaignterm/internal/model"

	"github.com/charmbracelet/bubbles/list"
	"github.com/dustin/go-humanize"
)

// historyItem wraps UploadRecord for the list display.
type historyItem struct {
	model.UploadRecord
}

func (h historyItem) FilterValue() string { return h.FileName + " " + string(h.Campaign) }
func (h historyItem) Title() string {
	return fmt.Sprintf("%s  %s / %s  [%s]", h.FileName, h.Campaign, h.EmailType, h.Phase)
}
func (h historyItem) Description() string {
	when := humanize.Time(h.CreatedAt)
	size := humanize.IBytes(uint64(max(h.SizeBytes, 0)))
	if h.Reason != "" {
		return fmt.Sprintf("%s · %s · %s", when, size, h.Reason)
	}
	return fmt.Sprintf("%s · %s · %d inserted, %d updated, %d skipped",
		when, size, h.Summary.Inserted, h.Summary.Updated, h.Summary.Skipped)
}

func historyFooter() string {
	return footerStyle.Render("/: filter  esc: back  q: quit")
}

func historyToItems(recs []model.UploadRecord) []list.Item {
	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = historyItem{r}
	}
	return items
}
