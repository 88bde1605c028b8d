package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parse(t *testing.T, args ...string) Config {
	t.Helper()
	var got Config
	cmd := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			got = FromCommand(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return got
}

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestFlags_DefaultsMatchDefault(t *testing.T) {
	got := parse(t)
	want := Default()
	assert.Equal(t, want.Addr, got.Addr)
	assert.Equal(t, want.LogLevel, got.LogLevel)
	assert.Equal(t, want.MaxPlayers, got.MaxPlayers)
	assert.Equal(t, want.DefaultSession, got.DefaultSession)
	assert.Equal(t, want.PingInterval, got.PingInterval)
	assert.Empty(t, got.DatabaseURL)
}

func TestFlags_EnvAndOverride(t *testing.T) {
	t.Setenv("HEXBOARD_ADDR", ":9999")
	t.Setenv("HEXBOARD_MAX_PLAYERS", "2")
	t.Setenv("HEXBOARD_PING_INTERVAL", "5s")

	got := parse(t, "--addr", ":7000", "--allowed-origin", "localhost:*", "--allowed-origin", "example.com")
	assert.Equal(t, ":7000", got.Addr)
	assert.Equal(t, 2, got.MaxPlayers)
	assert.Equal(t, 5*time.Second, got.PingInterval)
	assert.Equal(t, []string{"localhost:*", "example.com"}, got.AllowedOrigins)

	rules, err := got.Rules()
	require.NoError(t, err)
	assert.Len(t, rules.Slots, 2)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"no players", func(c *Config) { c.MaxPlayers = 0 }},
		{"too many players", func(c *Config) { c.MaxPlayers = 9 }},
		{"no default session", func(c *Config) { c.DefaultSession = "" }},
		{"negative ping", func(c *Config) { c.PingInterval = -time.Second }},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEXBOARD_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HEXBOARD_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("HEXBOARD_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
