// cmd/chequedesk/main.go
//
// This is the entry point for the cheque desk.
// When you run `chequedesk` from any directory, this is what executes.
//
// Flow:
// 1. Initialize .chequedesk/ in the working directory and load the config
// 2. Open the logbook, the record store and the metrics registry
// 3. Start the verification bridge (if enabled) next to the TUI
// 4. Run the TUI until the operator quits, then drain the bridge

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/chequedesk/internal/config"
	"github.com/kingrea/chequedesk/internal/eventbridge"
	"github.com/kingrea/chequedesk/internal/logbook"
	"github.com/kingrea/chequedesk/internal/metrics"
	"github.com/kingrea/chequedesk/internal/store"
	"github.com/kingrea/chequedesk/internal/tui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	projectDir := flag.String("dir", "", "directory holding .chequedesk (defaults to cwd)")
	flag.Parse()

	dir := *projectDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := run(dir); err != nil {
		die("%v", err)
	}
}

func run(dir string) error {
	if err := config.InitDeskDir(dir); err != nil {
		return fmt.Errorf("init .chequedesk: %w", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	defer lb.Close()

	st, err := store.Open(cfg.StorePath(), store.WithLogger(lb))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	m := metrics.New()
	bridge := eventbridge.NewServer(eventbridge.SettingsFromConfig(cfg),
		eventbridge.WithVerifier(eventbridge.StoreVerifier{Records: st, Metrics: m}),
		eventbridge.WithMetricsHandler(m.Handler()),
		eventbridge.WithLogger(lb))

	app, err := tui.NewApp(tui.Deps{Config: cfg, Store: st, Logbook: lb, Metrics: m})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridge.Start(ctx); err != nil {
		if !errors.Is(err, eventbridge.ErrServerDisabled) {
			return err
		}
		lb.Info("Verification bridge disabled")
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run TUI: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-gctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return bridge.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	lb.Info("Session closed")
	return err
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "chequedesk: "+format+"\n", args...)
	os.Exit(1)
}
