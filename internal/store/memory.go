package store

import (
	"context"
	"slices"
	"sync"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
)

type entry struct {
	version int
	events  []engine.Event
}

// MemoryJournal is the in-process Journal used when no database is configured.
type MemoryJournal struct {
	mu       sync.Mutex
	sessions map[string][]entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{sessions: make(map[string][]entry)}
}

func (j *MemoryJournal) Append(ctx context.Context, code string, version int, events []engine.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	log := j.sessions[code]
	if n := len(log); n > 0 && log[n-1].version >= version {
		return ErrVersionConflict
	}
	j.sessions[code] = append(log, entry{version: version, events: slices.Clone(events)})
	return nil
}

func (j *MemoryJournal) Load(ctx context.Context, code string) (int, []engine.Event, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	var (
		version int
		events  []engine.Event
	)
	for _, e := range j.sessions[code] {
		version = e.version
		events = append(events, e.events...)
	}
	return version, events, nil
}

func (j *MemoryJournal) Close() error { return nil }
