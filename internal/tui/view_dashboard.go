package tui

import (
	"fmt"
	"strings"

	"campaignterm/internal/model"
	"campaignterm/internal/report"
	"campaignterm/internal/store"
	"campaignterm/internal/util"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

var activeTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	Border(lipgloss.NormalBorder(), false, false, true, false).
	BorderForeground(lipgloss.Color("39")).
	Padding(0, 1)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("238")).
	Padding(0, 2).
	MarginRight(1)

var (
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	cardLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cardValueStyle   = lipgloss.NewStyle().Bold(true)
	pageStyle        = lipgloss.NewStyle().Padding(0, 1)
	currentPageStyle = pageStyle.Bold(true).Reverse(true)
	disabledStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// defaultCategories are offered until the server's options arrive.
var defaultCategories = []string{"Positive Responds", "Not Responds Yet", "Unsubscribe"}

const minColumnWidth = 10

func newReportTable() table.Model {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return t
}

func (m *AppModel) columns() []table.Column {
	titles := m.dash.Columns(m.dash.Active())
	width := max(m.width-2*len(titles)-2, minColumnWidth*len(titles)) / len(titles)
	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: width}
	}
	return cols
}

func (m *AppModel) resizeTable() {
	// Clear rows first: bubbles' table renders rows against the column count.
	m.table.SetRows(nil)
	m.table.SetColumns(m.columns())
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-16, 5)) // tabs, cards, filters, pager, footer
	m.refreshTable()
}

func (m *AppModel) refreshTable() {
	cols := m.columns()
	recs := m.dash.Rows()
	rows := make([]table.Row, len(recs))
	for i, r := range recs {
		cells := m.dash.Cells(r)
		for j := range cells {
			if j < len(cols) {
				cells[j] = util.Truncate(cells[j], cols[j].Width)
			}
		}
		rows[i] = cells
	}
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

func (m *AppModel) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "tab":
		next := model.KindResponds
		if m.dash.Active() == model.KindResponds {
			next = model.KindSent
		}
		m.dash.SwitchTab(next)
		m.savePreference(store.PrefTab, next.Wire())
		m.refreshTable()
		return m, m.syncReport()
	case "c":
		c := nextOf(model.Campaigns, m.dash.Campaign())
		if err := m.dash.SetCampaign(c); err != nil {
			return m, m.setStatus(err.Error())
		}
		m.savePreference(store.PrefCampaign, string(c))
		return m, m.syncReport()
	case "s":
		ps := nextOf(model.PageSizes, m.dash.PageSize())
		m.dash.SetPageSize(ps)
		m.savePreference(store.PrefPageSize, ps.String())
		return m, m.syncReport()
	case "n", "right":
		if m.dash.NextPage() {
			return m, m.syncReport()
		}
		return m, nil
	case "p", "left":
		if m.dash.PrevPage() {
			return m, m.syncReport()
		}
		return m, nil
	case "home":
		m.dash.SetPage(1)
		return m, m.syncReport()
	case "end":
		m.dash.SetPage(m.dash.TotalPages())
		return m, m.syncReport()
	case "d":
		from, to := m.dash.DateRange()
		m.dateInput.SetValue(from.String() + " " + to.String())
		m.dateInput.CursorEnd()
		m.dateInput.Focus()
		m.view = viewDates
		return m, nil
	case "f":
		if !m.dash.HasRespondsFilter() || m.dash.Active() != model.KindResponds {
			return m, nil
		}
		m.dash.SetRespondsCategory(nextOf(m.categories(), m.dash.RespondsCategory()))
		m.refreshTable()
		return m, m.syncReport()
	case "t":
		if m.dash.HasRespondsFilter() {
			m.dash.SetStatsEmailType(nextOf(model.EmailTypes, m.dash.StatsEmailType()))
		}
		return m, nil
	case "r":
		return m, m.refreshReport()
	case "enter":
		return m.openSelected()
	case "u":
		m.view = viewUpload
		m.uploadForm.focus()
		return m, nil
	case "x":
		m.view = viewUnsubscribe
		m.unsubForm.result = nil
		return m, m.unsubForm.focus()
	case "h":
		m.view = viewHistory
		return m, m.loadHistoryCmd()
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *AppModel) handleDatesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.dateInput.Blur()
		m.view = viewDashboard
		return m, nil
	case "enter":
		from, to, err := parseRange(m.dateInput.Value())
		if err == nil {
			err = m.dash.SetDateRange(from, to)
		}
		if err != nil {
			return m, m.setStatus(err.Error())
		}
		m.dateInput.Blur()
		m.view = viewDashboard
		return m, m.syncReport()
	}
	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func parseRange(s string) (from, to model.Date, err error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		from, err = model.ParseDate(fields[0])
		return from, from, err
	case 2:
		if from, err = model.ParseDate(fields[0]); err != nil {
			return
		}
		to, err = model.ParseDate(fields[1])
		return
	}
	return from, to, fmt.Errorf("enter a start and end date as YYYY-MM-DD YYYY-MM-DD")
}

// openSelected shows the body of the highlighted response.
func (m *AppModel) openSelected() (tea.Model, tea.Cmd) {
	if m.dash.Active() != model.KindResponds {
		return m, nil
	}
	rows := m.dash.Rows()
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		return m, nil
	}
	rec, ok := rows[i].(model.ResponseRecord)
	if !ok {
		return m, nil
	}
	m.selectedRec = &rec
	body := "(no body)"
	if rec.Body != nil && *rec.Body != "" {
		body = util.StripHTMLTags(*rec.Body)
	}
	subject := ""
	if rec.Subject != nil {
		subject = *rec.Subject
	}
	header := bodyHeader(rec.SenderEmail, rec.ReceiverEmail, subject, rec.ResponseLabel, m.dash.FormatTime(rec.UpdatedAt))
	m.bodyViewport.SetContent(header + "\n\n" + body)
	m.bodyViewport.GotoTop()
	m.view = viewBody
	return m, nil
}

func (m *AppModel) categories() []string {
	cats := []string{report.AllCategories}
	if len(m.options) == 0 {
		return append(cats, defaultCategories...)
	}
	for _, o := range m.options {
		if o.Label != report.AllCategories {
			cats = append(cats, o.Label)
		}
	}
	return cats
}

// nextOf returns the element after cur in xs, wrapping around.
func nextOf[T comparable](xs []T, cur T) T {
	for i, x := range xs {
		if x == cur {
			return xs[(i+1)%len(xs)]
		}
	}
	return xs[0]
}

func (m *AppModel) dashboardView() string {
	var b strings.Builder
	b.WriteString(m.tabsView())
	b.WriteString("\n")
	b.WriteString(m.statsView())
	b.WriteString("\n")
	b.WriteString(m.filtersView())
	b.WriteString("\n\n")

	st := m.dash.State()
	switch {
	case st.Loading && st.Result == nil:
		b.WriteString(m.spinner.View() + " Loading...")
	case st.Result != nil && len(m.dash.Rows()) == 0:
		b.WriteString(cardLabelStyle.Render("No records found for the selected filters"))
	default:
		b.WriteString(m.table.View())
	}
	if st.Err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Last request failed: " + st.Err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(m.pagerView())
	b.WriteString("\n")
	b.WriteString(dashboardFooter(m.dash.HasRespondsFilter()))
	return b.String()
}

func (m *AppModel) tabsView() string {
	labels := map[model.ReportKind]string{model.KindSent: "Sent Emails", model.KindResponds: "Responds Emails"}
	var tabs []string
	for _, k := range []model.ReportKind{model.KindSent, model.KindResponds} {
		style := tabStyle
		if k == m.dash.Active() {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(labels[k]))
	}
	spin := ""
	if m.dash.State().Loading {
		spin = " " + m.spinner.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...) + spin
}

func (m *AppModel) statsView() string {
	s, ok := m.dash.Summary()
	value := func(n int) string {
		if !ok {
			return "-"
		}
		return humanize.Comma(int64(n))
	}
	card := func(label string, n int) string {
		return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value(n)))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Sent this month", s.Sent),
		card("Unsubscribed", s.Unsubscribed),
		card("Positive responds", s.PositiveResponses),
		card("Not responded", s.NotResponded),
	)
	if m.dash.HasRespondsFilter() {
		return cardLabelStyle.Render("Stats for: "+string(m.dash.StatsEmailType())) + "\n" + cards
	}
	return cards
}

func (m *AppModel) filtersView() string {
	from, to := m.dash.DateRange()
	parts := []string{
		"Campaign: " + string(m.dash.Campaign()),
		fmt.Sprintf("Dates: %s → %s", from, to),
		"Page size: " + m.dash.PageSize().String(),
		"Records: " + humanize.Comma(int64(m.dash.TotalRecords())),
	}
	if m.dash.HasRespondsFilter() && m.dash.Active() == model.KindResponds {
		parts = append(parts, "Responds: "+m.dash.RespondsCategory())
	}
	return strings.Join(parts, "   ")
}

func (m *AppModel) pagerView() string {
	prev, next := m.dash.Nav()
	render := func(label string, enabled bool) string {
		if enabled {
			return pageStyle.Render(label)
		}
		return disabledStyle.Render(pageStyle.Render(label))
	}
	parts := []string{render("‹ Prev", prev)}
	for _, it := range m.dash.PageItems() {
		switch {
		case it.Ellipsis:
			parts = append(parts, pageStyle.Render("…"))
		case it.Page == m.dash.Page():
			parts = append(parts, currentPageStyle.Render(fmt.Sprint(it.Page)))
		default:
			parts = append(parts, pageStyle.Render(fmt.Sprint(it.Page)))
		}
	}
	parts = append(parts, render("Next ›", next))
	return strings.Join(parts, "")
}

func (m *AppModel) datesView() string {
	return "Date range for " + m.dash.Active().String() + " (start end):\n\n" +
		m.dateInput.View() + "\n" +
		footerStyle.Render("enter: apply  esc: cancel")
}

func dashboardFooter(warmup bool) string {
	keys := "tab: switch  c: campaign  d: dates  s: page size  n/p: page  r: refresh  enter: body  u: upload  x: unsubscribe  h: history  q: quit"
	if warmup {
		keys = "f: responds filter  t: stats type  " + keys
	}
	return footerStyle.Render(keys)
}
