// niftydesk-feed prints the live NIFTY price feed to the console. It is a
// diagnostic tool for checking feed connectivity without starting the TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"niftydesk/internal/config"
	"niftydesk/internal/dashboard"
	"niftydesk/internal/live"
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

	logger := util.NewLogger(os.Stderr, cfg.Logging.Level)

	sub := live.NewSubscriber(cfg.Remote.WSURL, cfg.Feed.MaxAttempts, cfg.Feed.BaseDelay(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		for s := range sub.Samples() {
			fmt.Printf("%s  %s\n", dashboard.FormatClock(s.Time), dashboard.FormatRupee(s.Price))
		}
	}()

	logger.Info("subscribing", "url", cfg.Remote.WSURL)
	if err := sub.Run(ctx); err != nil {
		logger.Error("feed stopped", "error", err)
		os.Exit(1)
	}
}
