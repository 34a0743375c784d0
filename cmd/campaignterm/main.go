package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"campaignterm/internal/api"
	"campaignterm/internal/config"
	"campaignterm/internal/dashboard"
	"campaignterm/internal/report"
	"campaignterm/internal/store"
	"campaignterm/internal/tui"
)

const usage = `usage: campaignterm [command] [flags]

commands:
  tui          interactive dashboard (default)
  upload       upload a contacts spreadsheet
  report       print one page of a report
  unsubscribe  unsubscribe a recipient
  history      list local upload history

Run "campaignterm <command> -h" for the flags of a command.
`

func main() {
	cmd, args := "tui", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "tui":
		err = runTUI(args)
	case "upload":
		err = runUpload(args)
	case "report":
		err = runReport(args)
	case "unsubscribe":
		err = runUnsubscribe(args)
	case "history":
		err = runHistory(args)
	case "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env holds what every command opens: config, log file, store and client.
type env struct {
	cfg    *config.Config
	db     *store.SQLiteStore
	client *api.Client
	close  func()
}

func setup(fs *flag.FlagSet, args []string) (*env, error) {
	cfg, err := config.Load(fs, args)
	if err != nil {
		return nil, err
	}
	logFile, err := config.SetupLogging(cfg)
	if err != nil {
		return nil, err
	}
	db, err := store.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	log.Info().Str("api", cfg.APIBaseURL).Str("variant", cfg.Variant).Msg("Starting campaignterm")

	return &env{
		cfg:    cfg,
		db:     db,
		client: api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}),
		close: func() {
			db.Close()
			logFile.Close()
		},
	}, nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.close()

	coord := report.NewCoordinator()
	dash := dashboard.New(coord, e.cfg.DashboardOptions(time.Now()))

	appModel := tui.NewAppModel(e.client, e.db, coord, dash)
	p := tea.NewProgram(&appModel, tea.WithAltScreen())
	appModel.SetProgram(p)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	if m, ok := finalModel.(*tui.AppModel); ok && m.Err != nil {
		return m.Err
	}
	return nil
}
