// Package main is the entry point for the taskdeck CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskdeck/internal/backend/taskapi"
	"taskdeck/internal/cache"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/credstore"
	"taskdeck/internal/session"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	factory := func(ctx context.Context, cfg *config.Config) (*commands.Env, func(), error) {
		if err := cfg.EnsureDir(); err != nil {
			return nil, nil, fmt.Errorf("create config directory: %w", err)
		}

		store := credstore.NewFileStore(cfg.CredentialPath())
		log := cfg.Logger(os.Stderr)
		gw := taskapi.New(cfg.BaseURL, store)

		mgr := session.NewManager(store, gw, log.With().Str("component", "session").Logger())
		mgr.Init(ctx)

		tasks := cache.New(gw, log.With().Str("component", "tasks").Logger())
		env := commands.NewEnv(mgr, tasks)

		cleanup := func() {
			env.Close()
			mgr.Close()
		}
		return env, cleanup, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
