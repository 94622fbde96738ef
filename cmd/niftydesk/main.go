package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"niftydesk/internal/api"
	"niftydesk/internal/app"
	"niftydesk/internal/config"
	"niftydesk/internal/session"
	"niftydesk/internal/util"
)

func defaultConfigPath() string {
	if p := os.Getenv("NIFTYDESK_CONFIG"); p != "" {
		return p
	}
	return "niftydesk.yaml"
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so the logger writes to a file.
	logger, logFile, err := util.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	client := api.NewClient(cfg.Remote.BaseURL, cfg.Remote.AuthURL)

	store, err := session.Open(cfg.Storage.SessionPath)
	if err != nil {
		// A broken local store degrades to a session-less run, it does not
		// block the dashboard.
		logger.Warn("opening session store", "path", cfg.Storage.SessionPath, "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	var sess *api.Session
	if store != nil {
		sess, err = store.LoadSession(context.Background())
		if err != nil {
			logger.Warn("loading saved session", "error", err)
		}
	}
	if sess != nil {
		logger.Info("resuming saved session")
	}

	p := tea.NewProgram(app.New(cfg, client, store, logger, sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
