package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hexboard-backend/internal/config"
	"github.com/DoyleJ11/hexboard-backend/internal/httpapi"
	"github.com/DoyleJ11/hexboard-backend/internal/hub"
	"github.com/DoyleJ11/hexboard-backend/internal/logging"
	"github.com/DoyleJ11/hexboard-backend/internal/store"
	"github.com/DoyleJ11/hexboard-backend/internal/ws"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:  "hexboard-server",
		Usage: "session server for the seven-hex board game",
		Flags: config.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}

	hubOpts := []hub.Option{hub.WithLogger(log.Named("hub"))}
	var journal store.Journal
	if cfg.DatabaseURL != "" {
		gj, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		journal = gj
		hubOpts = append(hubOpts, hub.WithJournal(journal))
		log.Info("session journal enabled")
	}

	// The hub outlives ctx so in-flight sessions stop only after the HTTP server drains.
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	h := hub.NewHub(hubCtx, hubOpts...)

	def, err := h.Ensure(ctx, cfg.DefaultSession, rules)
	if err == nil && def == nil {
		err = fmt.Errorf("could not open default session %q", cfg.DefaultSession)
	}
	if err != nil {
		if journal != nil {
			err = multierr.Append(err, journal.Close())
		}
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:   h,
			Rules: rules,
			WS: ws.Options{
				DefaultCode:    cfg.DefaultSession,
				OriginPatterns: cfg.AllowedOrigins,
				PingInterval:   cfg.PingInterval,
			},
			Logger: log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("default_session", cfg.DefaultSession))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(sctx)
		hubCancel()
		<-h.Done()
		if journal != nil {
			err = multierr.Append(err, journal.Close())
		}
		return err
	})

	return g.Wait()
}
