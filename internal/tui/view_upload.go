package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"campaignterm/internal/model"
	"campaignterm/internal/store"
	"campaignterm/internal/upload"
	"campaignterm/internal/validate"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	focusPath = iota
	focusCampaign
	focusEmailType
	focusCount
)

var (
	focusedLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle        = lipgloss.NewStyle().Bold(true).PaddingBottom(1)
	okStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// uploadForm holds the inputs; the upload.Session owns the job itself.
type uploadForm struct {
	path      textinput.Model
	campaign  int // index into model.Campaigns, -1 when unselected
	emailType int // index into model.EmailTypes, -1 when unselected
	focusIdx  int
	bar       progress.Model
}

func newUploadForm() uploadForm {
	ti := textinput.New()
	ti.Placeholder = "path/to/contacts.xlsx"
	ti.Width = 50
	return uploadForm{
		path:      ti,
		campaign:  -1,
		emailType: -1,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (f *uploadForm) focus() {
	if f.focusIdx == focusPath {
		f.path.Focus()
	}
}

func (f *uploadForm) setFocus(i int) {
	f.focusIdx = (i + focusCount) % focusCount
	if f.focusIdx == focusPath {
		f.path.Focus()
	} else {
		f.path.Blur()
	}
}

func (f *uploadForm) selectEmailType(t model.EmailType) {
	for i, et := range model.EmailTypes {
		if et == t {
			f.emailType = i
		}
	}
}

func (f *uploadForm) selectedCampaign() model.Campaign {
	if f.campaign < 0 {
		return ""
	}
	return model.Campaigns[f.campaign]
}

func (f *uploadForm) selectedEmailType() model.EmailType {
	if f.emailType < 0 {
		return ""
	}
	return model.EmailTypes[f.emailType]
}

// cycle moves a selection index by delta over n options, wrapping.
func cycle(idx, delta, n int) int {
	if idx < 0 {
		if delta < 0 {
			return n - 1
		}
		return 0
	}
	return (idx + delta + n) % n
}

func (f *uploadForm) clear() {
	f.path.Reset()
	f.campaign = -1
	f.emailType = -1
	f.setFocus(focusPath)
}

func (f *uploadForm) update(msg tea.Msg) tea.Cmd {
	if f.focusIdx != focusPath {
		return nil
	}
	var cmd tea.Cmd
	f.path, cmd = f.path.Update(msg)
	return cmd
}

// file resolves the typed path. An empty path means no file was chosen.
func (f *uploadForm) file() (*model.UploadFile, error) {
	path := strings.TrimSpace(f.path.Value())
	if path == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &model.UploadFile{
		Name:     info.Name(),
		Size:     info.Size(),
		MIMEType: validate.DetectMIME(info.Name()),
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func (m *AppModel) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	f := &m.uploadForm

	switch m.session.Phase() {
	case upload.Uploading:
		if key == "esc" || key == "ctrl+x" {
			m.session.Cancel()
		}
		return m, nil

	case upload.Succeeded:
		switch key {
		case "esc":
			m.session.Reset()
			f.clear()
			m.view = viewDashboard
		case "enter", "n":
			m.session.Reset()
			f.clear()
		}
		return m, nil
	}

	switch key {
	case "esc":
		if m.session.Phase() == upload.Failed {
			m.session.Reset()
		}
		f.path.Blur()
		m.view = viewDashboard
		return m, nil
	case "tab", "down":
		f.setFocus(f.focusIdx + 1)
		return m, nil
	case "shift+tab", "up":
		f.setFocus(f.focusIdx - 1)
		return m, nil
	case "left", "right":
		delta := 1
		if key == "left" {
			delta = -1
		}
		switch f.focusIdx {
		case focusCampaign:
			f.campaign = cycle(f.campaign, delta, len(model.Campaigns))
			return m, nil
		case focusEmailType:
			f.emailType = cycle(f.emailType, delta, len(model.EmailTypes))
			return m, nil
		}
	case "enter":
		return m.submitUpload()
	}
	return m, f.update(msg)
}

func (m *AppModel) submitUpload() (tea.Model, tea.Cmd) {
	f := &m.uploadForm
	file, err := f.file()
	if err != nil {
		return m, m.setStatus(err.Error())
	}
	a, err := m.session.Submit(file, f.selectedCampaign(), f.selectedEmailType())
	if err != nil {
		if errors.Is(err, upload.ErrBusy) {
			return m, nil
		}
		return m, m.setStatus("Please fix the highlighted fields")
	}
	m.savePreference(store.PrefEmailType, string(f.selectedEmailType()))

	program := m.program
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		o := a.Do(context.Background(), func(pct int) {
			if program != nil {
				program.Send(uploadProgressMsg{attemptID: a.ID, percent: pct})
			}
		})
		return uploadDoneMsg{outcome: o}
	})
}

func (m *AppModel) uploadView() string {
	f := &m.uploadForm
	var verrs validate.Errors
	errors.As(m.session.Err(), &verrs)

	label := func(idx int, s string) string {
		if idx == f.focusIdx && m.session.Phase() != upload.Uploading {
			return focusedLabelStyle.Render("› " + s)
		}
		return labelStyle.Render("  " + s)
	}
	fieldErr := func(field string) string {
		if err := verrs.For(field); err != nil {
			return "  " + errorStyle.Render(err.Error())
		}
		return ""
	}
	choice := func(s string) string {
		if s == "" {
			s = "select"
		}
		return "‹ " + s + " ›"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload contacts spreadsheet"))
	b.WriteString("\n")
	b.WriteString(label(focusPath, "Excel file:  ") + f.path.View() + fieldErr(validate.FieldFile) + "\n")
	b.WriteString(label(focusCampaign, "Campaign:    ") + choice(string(f.selectedCampaign())) + fieldErr(validate.FieldCampaign) + "\n")
	b.WriteString(label(focusEmailType, "Email type:  ") + choice(string(f.selectedEmailType())) + fieldErr(validate.FieldEmailType) + "\n\n")

	switch m.session.Phase() {
	case upload.Uploading:
		pct, _ := m.session.Percent()
		name := ""
		if file := m.session.File(); file != nil {
			name = fmt.Sprintf("%s (%s)", file.Name, humanize.IBytes(uint64(file.Size)))
		}
		b.WriteString(m.spinner.View() + " Uploading " + name + "\n")
		b.WriteString(f.bar.ViewAs(float64(pct)/100) + "\n")
		b.WriteString(footerStyle.Render("esc: cancel upload"))

	case upload.Succeeded:
		b.WriteString(okStyle.Render("Upload complete") + "\n")
		b.WriteString(summaryView(m.session.Summary()))
		b.WriteString(footerStyle.Render("enter: upload another  esc: back"))

	case upload.Failed:
		if len(verrs) == 0 {
			b.WriteString(errorStyle.Render(m.session.Reason()) + "\n")
		}
		b.WriteString(footerStyle.Render("enter: try again  tab: next field  ←/→: change  esc: back"))

	default:
		b.WriteString(footerStyle.Render("enter: upload  tab: next field  ←/→: change  esc: back"))
	}
	return b.String()
}

func summaryView(s *model.UploadSummary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	if s.Message != "" {
		b.WriteString(s.Message + "\n")
	}
	rows := []struct {
		label string
		n     int
	}{
		{"Total rows in file", s.TotalRowsInFile},
		{"Inserted", s.Inserted},
		{"Updated", s.Updated},
		{"Skipped", s.Skipped},
		{"Duplicates (no change)", s.DuplicatesNoChange},
		{"Unsubscribed overrides", s.UnsubscribedOverrides},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-24s %s\n", r.label, humanize.Comma(int64(r.n)))
	}
	if s.EmailType != "" {
		fmt.Fprintf(&b, "  %-24s %s\n", "Email type", s.EmailType)
	}
	return b.String()
}
