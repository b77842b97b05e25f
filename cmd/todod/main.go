package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/alarm"
	"github.com/babatezpur/todod/internal/config"
	"github.com/babatezpur/todod/internal/notify"
	"github.com/babatezpur/todod/internal/reminder"
	"github.com/babatezpur/todod/internal/storage"
	"github.com/babatezpur/todod/internal/task"
	"github.com/babatezpur/todod/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todod failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(logFile, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	repo, err := storage.OpenSQLite(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	registry := alarm.NewRegistry(cfg.AlarmBuffer, cfg.ApproxWindow())
	registry.Start()
	defer registry.Stop()

	gate := reminder.GateFunc(func() bool { return cfg.ExactTimers })
	scheduler := reminder.NewScheduler(registry, gate, logger)

	var desktop notify.Presenter = notify.Noop{}
	if cfg.DesktopNotify {
		desktop = notify.NewDesktop()
	}
	bridge := ui.NewBridge(desktop, cfg.AlarmBuffer)
	sink := ui.NewToastSink(cfg.AlarmBuffer)

	store := task.NewStoreAdapter(repo)
	delivery := reminder.NewDelivery(store, bridge, logger)
	dispatcher := reminder.NewDispatcher(store, scheduler, bridge, sink, cfg.SnoozeDuration(), logger)
	manager := task.NewManager(repo, scheduler, bridge, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Restore timers for reminders that survived the restart before the
	// delivery loop starts draining firings.
	reminder.NewSweep(store, scheduler, logger).Run(ctx)

	loop := reminder.NewLoop(registry.C(), delivery, cfg.DeliveryWindow(), logger)
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	m := ui.NewModel(ui.Deps{
		Service: manager,
		Actions: dispatcher,
		Alerts:  bridge.Alerts(),
		Toasts:  sink.C(),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	cancel()
	<-loopDone
	logger.Info("todod shut down")
	return nil
}
