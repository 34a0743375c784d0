package report

import (
	"fmt"

	"campaignterm/internal/model"
)

// WindowPolicy chooses how page links are laid out.
type WindowPolicy int

const (
	// WindowFull lists every page.
	WindowFull WindowPolicy = iota
	// WindowTruncated lists the first six pages, an ellipsis, and the last two.
	WindowTruncated
)

const (
	truncatedHead = 6
	truncatedTail = 2
)

func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch s {
	case "full":
		return WindowFull, nil
	case "truncated":
		return WindowTruncated, nil
	}
	return 0, fmt.Errorf("unknown pagination style %q", s)
}

func (p WindowPolicy) String() string {
	if p == WindowTruncated {
		return "truncated"
	}
	return "full"
}

// PageItem is a page link or an ellipsis marker.
type PageItem struct {
	Page     int
	Ellipsis bool
}

// Window returns the page links to render for current out of total pages.
func Window(policy WindowPolicy, current, total int) []PageItem {
	if total < 1 {
		return nil
	}
	if policy == WindowFull || total <= truncatedHead {
		return pageRange(1, total)
	}

	items := pageRange(1, truncatedHead)
	tailStart := total - truncatedTail + 1
	if tailStart <= truncatedHead {
		tailStart = truncatedHead + 1
	}

	// The current page stays visible even when it falls in the gap.
	if current > truncatedHead && current < tailStart {
		if current > truncatedHead+1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: current})
		if current < tailStart-1 {
			items = append(items, PageItem{Ellipsis: true})
		}
	} else if tailStart > truncatedHead+1 {
		items = append(items, PageItem{Ellipsis: true})
	}
	return append(items, pageRange(tailStart, total)...)
}

func pageRange(from, to int) []PageItem {
	items := make([]PageItem, 0, to-from+1)
	for p := from; p <= to; p++ {
		items = append(items, PageItem{Page: p})
	}
	return items
}

// Nav reports whether the previous and next affordances are enabled. Both
// are disabled for a page size of All, which has exactly one page.
func Nav(current, total int, size model.PageSize) (prev, next bool) {
	if size.IsAll() {
		return false, false
	}
	return current > 1, current < total
}
