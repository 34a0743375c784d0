package tui

import (
	"context"
	"fmt"
	"strings"

	"campaignterm/internal/model"
	"campaignterm/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type unsubscribeForm struct {
	inputs   []textinput.Model // k, to, from
	focusIdx int
	result   *model.UnsubscribeResult
	err      error
}

func newUnsubscribeForm() unsubscribeForm {
	placeholders := []string{"Tracking key (k)", "Recipient email (to)", "Sender email (from)"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Width = 50
		inputs[i] = ti
	}
	return unsubscribeForm{inputs: inputs}
}

func (f *unsubscribeForm) focus() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focusIdx].Focus()
}

func (f *unsubscribeForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.focusIdx = 0
	f.err = nil
	f.focus()
}

func (f *unsubscribeForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focusIdx], cmd = f.inputs[f.focusIdx].Update(msg)
	return cmd
}

// request builds the payload; addresses are normalized, the key is sent as typed.
func (f *unsubscribeForm) request() model.UnsubscribeRequest {
	addr := func(s string) string {
		if n := util.NormalizeAddress(s); n != "" {
			return n
		}
		return strings.TrimSpace(s)
	}
	return model.UnsubscribeRequest{
		K:    strings.TrimSpace(f.inputs[0].Value()),
		To:   addr(f.inputs[1].Value()),
		From: addr(f.inputs[2].Value()),
	}
}

func (m *AppModel) handleUnsubscribeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.unsubForm
	switch msg.String() {
	case "esc":
		for i := range f.inputs {
			f.inputs[i].Blur()
		}
		m.view = viewDashboard
		return m, nil
	case "tab", "down":
		f.focusIdx = (f.focusIdx + 1) % len(f.inputs)
		return m, f.focus()
	case "shift+tab", "up":
		f.focusIdx = (f.focusIdx - 1 + len(f.inputs)) % len(f.inputs)
		return m, f.focus()
	case "enter":
		if f.focusIdx < len(f.inputs)-1 {
			f.focusIdx++
			return m, f.focus()
		}
		req := f.request()
		if req.K == "" || req.To == "" || req.From == "" {
			return m, m.setStatus("Missing required parameters")
		}
		f.err = nil
		m.view = viewConfirm
		return m, nil
	}
	return m, f.update(msg)
}

func (m *AppModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		req := m.unsubForm.request()
		backend := m.backend
		return m, func() tea.Msg {
			res, err := backend.Unsubscribe(context.Background(), req)
			return unsubscribeDoneMsg{res: res, err: err}
		}
	case "n", "esc":
		m.view = viewUnsubscribe
		return m, m.unsubForm.focus()
	}
	return m, nil
}

func unsubscribeStatus(res *model.UnsubscribeResult) string {
	if res == nil {
		return "Unsubscribed"
	}
	if res.IsSubscribed == 0 {
		return fmt.Sprintf("%s has been unsubscribed", res.ReceiverEmail)
	}
	return fmt.Sprintf("%s is still subscribed", res.ReceiverEmail)
}

func (f *unsubscribeForm) view() string {
	labels := []string{"Key:   ", "To:    ", "From:  "}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Unsubscribe a recipient"))
	b.WriteString("\n")
	for i, in := range f.inputs {
		l := labelStyle.Render("  " + labels[i])
		if i == f.focusIdx {
			l = focusedLabelStyle.Render("› " + labels[i])
		}
		b.WriteString(l + in.View() + "\n")
	}
	if f.err != nil {
		b.WriteString("\n" + errorStyle.Render(f.err.Error()) + "\n")
	}
	if f.result != nil {
		b.WriteString("\n" + okStyle.Render(unsubscribeStatus(f.result)))
		if f.result.Message != "" {
			b.WriteString(" (" + f.result.Message + ")")
		}
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("enter: next/submit  tab: next field  esc: back"))
	return b.String()
}

func (f *unsubscribeForm) confirmView() string {
	req := f.request()
	return titleStyle.Render("Confirm unsubscribe") + "\n" +
		fmt.Sprintf("Stop sending mail from %s to %s?\n", req.From, req.To) +
		footerStyle.Render("y: unsubscribe  n: cancel")
}
