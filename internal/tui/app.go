package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campaignterm/internal/dashboard"
	"campaignterm/internal/model"
	"campaignterm/internal/report"
	"campaignterm/internal/store"
	"campaignterm/internal/upload"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

type viewState int

const (
	viewDashboard   viewState = iota
	viewDates                 // editing the active tab's date range
	viewBody                  // single response body
	viewUpload                // upload form and progress
	viewUnsubscribe           // unsubscribe form
	viewConfirm               // unsubscribe confirmation
	viewHistory               // local upload history
)

const (
	statusTTL    = 3 * time.Second
	historyLimit = 100
)

// Backend is the remote API used by the UI. *api.Client satisfies it.
type Backend interface {
	report.Fetcher
	upload.Uploader
	RespondsOptions(ctx context.Context) ([]model.ResponseOption, error)
	Unsubscribe(ctx context.Context, req model.UnsubscribeRequest) (*model.UnsubscribeResult, error)
}

// Store keeps upload history and preferences. *store.SQLiteStore satisfies it.
type Store interface {
	upload.Recorder
	ListUploads(ctx context.Context, limit int) ([]model.UploadRecord, error)
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

type AppModel struct {
	// Core state
	backend Backend
	store   Store
	coord   *report.Coordinator
	dash    *dashboard.Dashboard
	session *upload.Session
	Err     error

	status    string
	statusSeq int

	// View state machine
	view        viewState
	options     []model.ResponseOption
	selectedRec *model.ResponseRecord

	// Sub-models
	table        table.Model
	spinner      spinner.Model
	dateInput    textinput.Model
	bodyViewport viewport.Model
	historyList  list.Model
	uploadForm   uploadForm
	unsubForm    unsubscribeForm

	// Layout
	width, height int

	// Program reference for sending messages from goroutines
	program *tea.Program
}

// SetProgram stores a reference to the tea.Program so goroutines can send
// progress messages back to the Update loop.
func (m *AppModel) SetProgram(p *tea.Program) {
	m.program = p
}

func NewAppModel(backend Backend, st Store, coord *report.Coordinator, dash *dashboard.Dashboard) AppModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	di := textinput.New()
	di.Placeholder = "YYYY-MM-DD YYYY-MM-DD"
	di.CharLimit = 21

	hl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	hl.Title = "Upload history"
	// Remove esc from the list's built-in Quit binding so it returns instead
	hl.KeyMap.Quit.SetKeys("q")

	var opts []upload.SessionOption
	if st != nil {
		opts = append(opts, upload.WithRecorder(st))
	}

	m := AppModel{
		backend:      backend,
		store:        st,
		coord:        coord,
		dash:         dash,
		session:      upload.NewSession(backend, opts...),
		view:         viewDashboard,
		table:        newReportTable(),
		spinner:      sp,
		dateInput:    di,
		bodyViewport: viewport.New(0, 0),
		historyList:  hl,
		uploadForm:   newUploadForm(),
		unsubForm:    newUnsubscribeForm(),
	}
	m.restorePreferences()
	return m
}

func (m *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.syncReport()}
	if m.dash.HasRespondsFilter() {
		cmds = append(cmds, m.fetchOptionsCmd())
	}
	return tea.Batch(cmds...)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		m.historyList.SetSize(msg.Width, msg.Height-4)
		m.bodyViewport.Width = msg.Width
		m.bodyViewport.Height = msg.Height - 6 // room for header + footer
		m.uploadForm.bar.Width = min(max(msg.Width-10, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.dash.State().Loading && m.session.Phase() != upload.Uploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case reportLoadedMsg:
		switch m.coord.Apply(msg.resp) {
		case report.Published:
			if msg.resp.Tab == m.dash.Active() {
				m.refreshTable()
			}
			return m, m.setStatus(dashboard.LoadedMessage(len(msg.resp.Result.Records)))
		case report.Failed:
			return m, m.setStatus("Unable to load email data. Please check your connection and try again.")
		}
		return m, nil

	case optionsLoadedMsg:
		if msg.err != nil {
			log.Error().Err(msg.err).Msg("Failed to load response options")
			return m, m.setStatus("Failed to load response options")
		}
		m.options = msg.options
		return m, nil

	case uploadProgressMsg:
		m.session.Progress(msg.attemptID, msg.percent)
		return m, nil

	case uploadDoneMsg:
		if !m.session.Complete(msg.outcome) {
			return m, nil
		}
		if m.session.Phase() == upload.Succeeded {
			return m, m.setStatus("Upload complete")
		}
		return m, m.setStatus("Upload failed: " + m.session.Reason())

	case unsubscribeDoneMsg:
		m.view = viewUnsubscribe
		if msg.err != nil {
			m.unsubForm.err = msg.err
			return m, m.setStatus("Unsubscribe failed: " + msg.err.Error())
		}
		m.unsubForm.reset()
		m.unsubForm.result = msg.res
		return m, m.setStatus(unsubscribeStatus(msg.res))

	case historyLoadedMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Failed to load history: %v", msg.err))
		}
		m.historyList.SetItems(historyToItems(msg.records))
		m.historyList.Title = fmt.Sprintf("Upload history (%d)", len(msg.records))
		return m, nil

	case statusMsg:
		if int(msg) == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch m.view {
	case viewDashboard:
		m.table, cmd = m.table.Update(msg)
	case viewDates:
		m.dateInput, cmd = m.dateInput.Update(msg)
	case viewBody:
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
	case viewUpload:
		cmd = m.uploadForm.update(msg)
	case viewUnsubscribe:
		cmd = m.unsubForm.update(msg)
	case viewHistory:
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	if key == "ctrl+c" {
		m.session.Cancel()
		m.coord.Close()
		return m, tea.Quit
	}

	switch m.view {
	case viewDashboard:
		return m.handleDashboardKey(msg)
	case viewDates:
		return m.handleDatesKey(msg)
	case viewUpload:
		return m.handleUploadKey(msg)
	case viewUnsubscribe:
		return m.handleUnsubscribeKey(msg)
	case viewConfirm:
		return m.handleConfirmKey(msg)

	case viewBody:
		switch key {
		case "q":
			return m.quit()
		case "esc":
			m.view = viewDashboard
			m.selectedRec = nil
			return m, nil
		}
		var cmd tea.Cmd
		m.bodyViewport, cmd = m.bodyViewport.Update(msg)
		return m, cmd

	case viewHistory:
		if m.historyList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.historyList, cmd = m.historyList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m.quit()
		case "esc":
			m.view = viewDashboard
			return m, nil
		}
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *AppModel) quit() (tea.Model, tea.Cmd) {
	m.coord.Close()
	return m, tea.Quit
}

// Commands

// syncReport issues the active tab's query if it changed.
func (m *AppModel) syncReport() tea.Cmd {
	req, ok := m.dash.Sync()
	if !ok {
		return nil
	}
	backend := m.backend
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return reportLoadedMsg{resp: req.Do(context.Background(), backend)}
	})
}

func (m *AppModel) refreshReport() tea.Cmd {
	req, ok := m.coord.Refresh(m.dash.Active())
	if !ok {
		return m.syncReport()
	}
	backend := m.backend
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return reportLoadedMsg{resp: req.Do(context.Background(), backend)}
	})
}

func (m *AppModel) fetchOptionsCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		opts, err := backend.RespondsOptions(context.Background())
		return optionsLoadedMsg{options: opts, err: err}
	}
}

func (m *AppModel) loadHistoryCmd() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		if st == nil {
			return historyLoadedMsg{}
		}
		recs, err := st.ListUploads(context.Background(), historyLimit)
		return historyLoadedMsg{records: recs, err: err}
	}
}

func (m *AppModel) setStatus(s string) tea.Cmd {
	m.statusSeq++
	m.status = s
	return clearStatusAfter(statusTTL, m.statusSeq)
}

func clearStatusAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg(seq)
	})
}

// Preferences

func (m *AppModel) restorePreferences() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	if v, _ := m.store.GetPreference(ctx, store.PrefCampaign); v != "" {
		if err := m.dash.SetCampaign(model.Campaign(v)); err != nil {
			log.Warn().Err(err).Msg("Ignoring stored campaign")
		}
	}
	if v, _ := m.store.GetPreference(ctx, store.PrefPageSize); v != "" {
		if ps, err := model.ParsePageSize(v); err == nil {
			m.dash.SetPageSize(ps)
		}
	}
	if v, _ := m.store.GetPreference(ctx, store.PrefEmailType); v != "" {
		m.uploadForm.selectEmailType(model.EmailType(v))
	}
	if v, _ := m.store.GetPreference(ctx, store.PrefTab); v == model.KindResponds.Wire() {
		m.dash.SwitchTab(model.KindResponds)
	}
}

func (m *AppModel) savePreference(key, value string) {
	if m.store == nil {
		return
	}
	if err := m.store.SetPreference(context.Background(), key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to save preference")
	}
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	var b strings.Builder

	switch m.view {
	case viewDashboard:
		b.WriteString(m.dashboardView())
	case viewDates:
		b.WriteString(m.datesView())
	case viewBody:
		b.WriteString(m.bodyViewport.View())
		b.WriteString("\n")
		b.WriteString(bodyFooter())
	case viewUpload:
		b.WriteString(m.uploadView())
	case viewUnsubscribe:
		b.WriteString(m.unsubForm.view())
	case viewConfirm:
		b.WriteString(m.unsubForm.confirmView())
	case viewHistory:
		b.WriteString(m.historyList.View())
		b.WriteString("\n")
		b.WriteString(historyFooter())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}

	return b.String()
}
