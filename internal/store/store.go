// Package store keeps an append-only journal of session events so a session can
// be rebuilt with engine.Reduce after a restart.
package store

import (
	"context"
	"errors"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
)

var ErrVersionConflict = errors.New("session version already written")

// Journal persists the events produced by each accepted command. Version is the
// session version the events produce; it must grow by one per Append.
type Journal interface {
	Append(ctx context.Context, code string, version int, events []engine.Event) error
	Load(ctx context.Context, code string) (int, []engine.Event, error)
	Close() error
}
