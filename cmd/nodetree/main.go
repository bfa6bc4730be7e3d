package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/nodetree/internal/config"
	"github.com/zeusync/nodetree/internal/core/observability/log"
	"github.com/zeusync/nodetree/internal/injector"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "nodetree:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := app.Logger

	if path := cfg.Scene.Path; path != "" {
		entities, err := app.Scenes.Load(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no scene file yet, starting empty", log.String("path", path))
		case err != nil:
			return err
		default:
			logger.Info("scene loaded", log.String("path", path), log.Int("entities", len(entities)))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Loop.Run(ctx) })
	if app.Inspector != nil {
		g.Go(func() error { return app.Inspector.Run(ctx) })
	}
	if err = g.Wait(); err != nil {
		logger.Error("shutdown with error", log.Error(err))
	}

	// The loop has returned, so the tree is ours again.
	if cfg.Scene.SaveOnExit {
		if saveErr := app.Scenes.Save(cfg.Scene.Path); saveErr != nil {
			return errors.Join(err, saveErr)
		}
	}
	return err
}
