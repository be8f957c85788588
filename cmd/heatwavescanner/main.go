package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"HeatwaveScanner/internal/app"
	"HeatwaveScanner/internal/config"
	"HeatwaveScanner/internal/logging"
)

func main() {
	listFlag := flag.Bool("list", false, "list locally archived discussions and exit")
	logFlag := flag.Bool("log", false, "show recent scraping activity and exit")
	serveFlag := flag.Bool("serve", false, "run on a schedule with health/metrics endpoint")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	// os.Exit skips deferred calls, so the application lifecycle lives in
	// run and only the exit code is decided here.
	if err := run(cfg, logger, *listFlag, *logFlag, *serveFlag); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, list, showLog, serve bool) error {
	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("application init: %w", err)
	}
	defer application.Close()

	switch {
	case list:
		return listDiscussions(application)
	case showLog:
		return showSyncLog(application)
	case serve:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return application.Serve(ctx)
	default:
		return application.Run(context.Background())
	}
}

func listDiscussions(application *app.Application) error {
	entries, err := application.ListArchive()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No local discussions found")
		return nil
	}

	fmt.Println("Local marine heatwave discussions:")
	for _, entry := range entries {
		fmt.Printf("  - %s (%d bytes)\n", entry.Name, entry.Size)
	}
	return nil
}

func showSyncLog(application *app.Application) error {
	entries, err := application.SyncHistory(10)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No scraping activity logged yet")
		return nil
	}

	fmt.Println("Recent scraping activity (newest first):")
	for _, entry := range entries {
		fmt.Printf("  %s - %s (%s)\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.ForecastDate,
			entry.Status)
	}
	return nil
}
