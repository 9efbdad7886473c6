package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/hakikicode/SmartDesign/pkg/appenv"
	"github.com/hakikicode/SmartDesign/pkg/syncclient"
)

const WatchVersion = "1.0.0"

func main() {
	usage := `Collaboration update watcher.

Polls the update log, prints one alert per new update, and posts comments or task
assignments that show up locally before the server confirms them.

Server url and poll interval default to SERVER_URL and POLL_INTERVAL_MS.

Usage:
    collabwatch watch [--server_url=<server_url>] [--interval_ms=<interval_ms>] [--no_hints]
    collabwatch comment <text> [--server_url=<server_url>] [--wait=<wait>]
    collabwatch task <text> [--server_url=<server_url>] [--wait=<wait>]
    collabwatch -h | --help
    collabwatch --version

Options:
    -h --help                    Show this screen.
    --version                    Show version.
    --server_url=<server_url>    Base url of the update service.
    --interval_ms=<interval_ms>  Poll interval in milliseconds.
    --no_hints                   Do not subscribe to websocket append hints.
    --wait=<wait>                How long to wait for confirmation, with units: ms, s, m [default: 10s].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], WatchVersion)
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := appenv.Load()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(2)
	}
	if v, _ := opts.String("--server_url"); v != "" {
		cfg.ServerURL = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "http://localhost" + cfg.Addr()
	}
	if v, _ := opts.String("--interval_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			logger.Error("--interval_ms must be a positive integer", "value", v)
			os.Exit(2)
		}
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := syncclient.NewClient(cfg.ServerURL, nil)

	if watch, _ := opts.Bool("watch"); watch {
		noHints, _ := opts.Bool("--no_hints")
		err = runWatch(ctx, client, cfg, !noHints, logger)
	} else {
		text, _ := opts.String("<text>")
		waitRaw, _ := opts.String("--wait")
		wait, perr := time.ParseDuration(waitRaw)
		if perr != nil {
			logger.Error("invalid --wait", "value", waitRaw, "err", perr)
			os.Exit(2)
		}
		task, _ := opts.Bool("task")
		err = runPost(ctx, client, cfg, text, task, wait, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("collabwatch failed", "err", err)
		os.Exit(1)
	}
}

func printAlert(n syncclient.Notification) {
	who := "external"
	if n.Own {
		who = "you"
	}
	fmt.Printf("New collaboration update #%d [%s, %s]: %s\n", n.Update.ID, n.Update.Kind, who, n.Update.Message)
}

func runWatch(ctx context.Context, client *syncclient.Client, cfg appenv.Config, hints bool, logger *slog.Logger) error {
	loop := syncclient.NewLoop(client, syncclient.NotifierFunc(printAlert), syncclient.Options{
		Interval: cfg.PollInterval,
		Logger:   logger,
	})
	if hints {
		listener, err := syncclient.NewHintListener(client.BaseURL(), loop, logger)
		if err != nil {
			return err
		}
		go func() { _ = listener.Run(ctx) }()
	}

	views, cancel := loop.Subscribe()
	defer cancel()
	go func() {
		stale := false
		for v := range views {
			if v.Stale != stale {
				stale = v.Stale
				logger.Info("sync status changed", "stale", stale, "lastSeenId", v.LastSeenID)
			}
		}
	}()

	logger.Info("watching updates", "server", client.BaseURL(), "interval", cfg.PollInterval.String())
	return loop.Run(ctx)
}

// runPost catches up once so the confirmation is the only new record of interest, posts the
// update, then ticks until the placeholder is confirmed or wait elapses.
func runPost(ctx context.Context, client *syncclient.Client, cfg appenv.Config, text string, task bool, wait time.Duration, logger *slog.Logger) error {
	var own []syncclient.Notification
	loop := syncclient.NewLoop(client, syncclient.NotifierFunc(func(n syncclient.Notification) {
		if n.Own {
			own = append(own, n)
		}
	}), syncclient.Options{Interval: cfg.PollInterval, Logger: logger})
	if err := loop.Tick(ctx); err != nil {
		return err
	}
	mutator := syncclient.NewMutator(loop, client)

	var err error
	if task {
		_, err = mutator.AssignTask(ctx, text)
	} else {
		_, err = mutator.AddComment(ctx, text)
	}
	if err != nil {
		return err
	}

	deadline := time.Now().Add(wait)
	interval := 250 * time.Millisecond
	for {
		if err := loop.Tick(ctx); err != nil && !syncclient.IsTransient(err) {
			return err
		}
		if len(own) > 0 {
			fmt.Printf("confirmed as #%d\n", own[0].Update.ID)
			return nil
		}
		if time.Now().After(deadline) {
			fmt.Println("not confirmed yet; the update stays pending")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
