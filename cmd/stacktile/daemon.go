package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/stacktile/internal/config"
	"github.com/1broseidon/stacktile/internal/daemon"
	"github.com/1broseidon/stacktile/internal/drag"
	"github.com/1broseidon/stacktile/internal/engine"
	"github.com/1broseidon/stacktile/internal/hotkeys"
	"github.com/1broseidon/stacktile/internal/ipc"
	"github.com/1broseidon/stacktile/internal/x11"
)

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := x11.NewConnection(cfg.Display, cfg.XAuthority)
	if err != nil {
		log.Fatalf("Failed to connect to X11: %v", err)
	}
	defer conn.Close()

	sys := x11.NewSystem(conn)
	defer sys.Stop()

	var highlighter drag.Highlighter
	if h, err := x11.NewHighlight(conn); err != nil {
		log.Printf("Warning: drop-target highlight unavailable: %v", err)
	} else {
		highlighter = h
		defer h.Destroy()
	}

	settings := daemon.NewSettings(cfg, "")
	eng := engine.New(sys, sys, sys, settings, highlighter)

	if _, err := x11.NewEventPump(sys, eng.Dispatch); err != nil {
		log.Fatalf("Failed to attach to root window events: %v", err)
	}

	hotkeyHandler := hotkeys.NewHandler(conn.XUtil, conn.Root, eng)
	if err := hotkeyHandler.RegisterAll(settings.Config().Hotkeys); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	ipcServer, err := ipc.NewServer(eng, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.ReconcileInterval) * time.Second,
		Logger:   logger,
	}, eng, sys)

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go reconciler.Run(reconcilerCtx)

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	reloadConfig := func() {
		newCfg, err := config.Load()
		if err != nil {
			log.Printf("Config reload failed: %v", err)
			return
		}
		settings.Reload(newCfg)
		if err := eng.Retile(); err != nil {
			log.Printf("Retile after reload failed: %v", err)
		}
		log.Println("Config reloaded successfully (hotkey changes require a restart)")
	}

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					reloadConfig()
				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down stacktile daemon...")
					reconcilerCancel()
					ipcServer.Stop()
					conn.StopEventLoop()
					return
				}

			case <-reloadChan:
				// Config was reloaded via IPC
				reloadConfig()
			}
		}
	}()

	// Start event loop (blocking)
	log.Println("Entering event loop...")
	conn.EventLoop()
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
