package tui

import (
	"campaignterm/internal/model"
	"campaignterm/internal/report"
	"campaignterm/internal/upload"
)

// Async message types for Bubble Tea commands.

type reportLoadedMsg struct {
	resp report.Response
}

type optionsLoadedMsg struct {
	options []model.ResponseOption
	err     error
}

// uploadProgressMsg is sent from the transport goroutine via Program.Send.
type uploadProgressMsg struct {
	attemptID string
	percent   int
}

type uploadDoneMsg struct {
	outcome upload.Outcome
}

type unsubscribeDoneMsg struct {
	res *model.UnsubscribeResult
	err error
}

type historyLoadedMsg struct {
	records []model.UploadRecord
	err     error
}

// statusMsg clears the status line if no newer status replaced it.
type statusMsg int
