// Package config gathers server settings from flags, the environment and an
// optional .env file. Flags win over environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
)

type Config struct {
	Addr            string
	DatabaseURL     string // empty keeps sessions in memory only
	LogLevel        string
	LogFile         string // empty logs to stderr only
	MaxPlayers      int
	DefaultSession  string
	AllowedOrigins  []string
	PingInterval    time.Duration
	ShutdownTimeout time.Duration
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		MaxPlayers:      len(engine.DefaultRules().Slots),
		DefaultSession:  "main",
		PingInterval:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files are
// not an error; variables already set are left alone.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "HTTP listen address",
			Value:   d.Addr,
			Sources: cli.EnvVars("HEXBOARD_ADDR"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "PostgreSQL DSN for the session journal; empty keeps sessions in memory",
			Sources: cli.EnvVars("HEXBOARD_DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Value:   d.LogLevel,
			Sources: cli.EnvVars("HEXBOARD_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "also write JSON logs to this rotating file",
			Sources: cli.EnvVars("HEXBOARD_LOG_FILE"),
		},
		&cli.IntFlag{
			Name:    "max-players",
			Usage:   "number of player slots per session",
			Value:   d.MaxPlayers,
			Sources: cli.EnvVars("HEXBOARD_MAX_PLAYERS"),
		},
		&cli.StringFlag{
			Name:    "default-session",
			Usage:   "code of the session created at startup and used by /ws without ?code=",
			Value:   d.DefaultSession,
			Sources: cli.EnvVars("HEXBOARD_DEFAULT_SESSION"),
		},
		&cli.StringSliceFlag{
			Name:    "allowed-origin",
			Usage:   "extra websocket origin pattern (repeatable)",
			Sources: cli.EnvVars("HEXBOARD_ALLOWED_ORIGINS"),
		},
		&cli.DurationFlag{
			Name:    "ping-interval",
			Usage:   "websocket keepalive interval, 0 disables",
			Value:   d.PingInterval,
			Sources: cli.EnvVars("HEXBOARD_PING_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Value:   d.ShutdownTimeout,
			Sources: cli.EnvVars("HEXBOARD_SHUTDOWN_TIMEOUT"),
		},
	}
}

func FromCommand(cmd *cli.Command) Config {
	return Config{
		Addr:            cmd.String("addr"),
		DatabaseURL:     cmd.String("database-url"),
		LogLevel:        cmd.String("log-level"),
		LogFile:         cmd.String("log-file"),
		MaxPlayers:      cmd.Int("max-players"),
		DefaultSession:  cmd.String("default-session"),
		AllowedOrigins:  cmd.StringSlice("allowed-origin"),
		PingInterval:    cmd.Duration("ping-interval"),
		ShutdownTimeout: cmd.Duration("shutdown-timeout"),
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	if c.DefaultSession == "" {
		return errors.New("default session code must not be empty")
	}
	if c.PingInterval < 0 {
		return errors.New("ping interval must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

func (c Config) Rules() (engine.Rules, error) {
	return engine.NewRules(c.MaxPlayers)
}
