package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	PaddingBottom(1)

func bodyHeader(from, to, subject, label, date string) string {
	if subject == "" {
		subject = "N/A"
	}
	return headerStyle.Render(fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\nResponds: %s\nDate: %s", from, to, subject, label, date))
}

func bodyFooter() string {
	return footerStyle.Render("↑/↓: scroll  esc: back  q: quit")
}
