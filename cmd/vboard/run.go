package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/vboard/internal/bridge"
	"github.com/tinytelemetry/vboard/internal/httpserver"
	"github.com/tinytelemetry/vboard/internal/journal"
	"github.com/tinytelemetry/vboard/internal/simconn"
	"github.com/tinytelemetry/vboard/internal/tui"
	"golang.org/x/sync/errgroup"
)

// run wires the bridge to the simulation connector and serves it through the
// terminal UI, the HTTP API, or both.
func run(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	opts := bridge.Options{EventBuffer: cfg.EventBuffer}

	if cfg.TraceEnabled {
		var jopts []journal.Option
		if cfg.TraceSync {
			jopts = append(jopts, journal.WithSync())
		}
		trace, err := journal.Open(cfg.TracePath, jopts...)
		if err != nil {
			return fmt.Errorf("failed to open transition trace: %w", err)
		}
		defer trace.Close()
		opts.Recorder = trace
	}

	br := bridge.New(opts)
	conn := simconn.New(cfg.SimURL, simconn.WebsocketDialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
	}, br.HandleEvent)
	br.Attach(conn)
	defer conn.Close()

	if cfg.Board != "" {
		// A bad startup document is reported in the UI; the client still runs.
		if err := br.LoadFile(cfg.Board); err != nil && cfg.Headless {
			return fmt.Errorf("failed to load board: %w", err)
		}
	}

	if cfg.Headless {
		cfg.APIEnabled = true
	}
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, br)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		if cfg.Headless {
			fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		}
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Headless {
		printStartupBanner(cfg, br.Snapshot())
		br.Connect(gctx)
	} else {
		changes, unsubscribe := br.Subscribe()
		defer unsubscribe()

		app := tui.NewApp(
			tui.NewBoardPage(br, tui.BoardOptions{
				Ctx:        gctx,
				Changes:    changes,
				ButtonHold: cfg.ButtonHold,
				SimURL:     cfg.SimURL,
			}),
			tui.NewHelpPage(),
		)
		g.Go(func() error {
			defer cancel()
			return runTUI(gctx, app)
		})
	}

	// Closing the connector on shutdown ends its read loop.
	g.Go(func() error {
		<-gctx.Done()
		if err := br.Disconnect(); err != nil {
			log.Printf("vboard: disconnect: %v", err)
		}
		return nil
	})

	err := g.Wait()
	signal.Stop(sigCh)
	return err
}

func runTUI(ctx context.Context, app *tui.App) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal (use -headless to run without one)")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "vboard")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "vboard.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, snap bridge.Snapshot) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦  ╦╔╗ ╔═╗╔═╗╦═╗╔╦╗
    ╚╗╔╝╠╩╗║ ║╠═╣╠╦╝ ║║
     ╚╝ ╚═╝╚═╝╩ ╩╩╚══╩╝`)

	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{"", logo, "    " + dim.Render("v"+version), "", separator, ""}

	lines = append(lines, bold.Render("    Simulation"), "")
	lines = append(lines, fmt.Sprintf("    %s  Websocket      %s", check, cyan.Render(cfg.SimURL)))
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Board"), "")
	if snap.Board != nil {
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, snap.Board.Name,
			dim.Render(fmt.Sprintf("%d pins, %d digits", snap.Board.PinCount(), len(snap.Board.Digits)))))
		lines = append(lines, fmt.Sprintf("    %s  Document       %s", check, dim.Render(shortenPath(snap.Path))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Document       %s", dot, dim.Render("none (POST /api/board/load)")))
	}
	if cfg.TraceEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Trace          %s", check, dim.Render(shortenPath(cfg.TracePath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Trace          %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"), "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "", separator, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"), "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
