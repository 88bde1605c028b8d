package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
	"github.com/DoyleJ11/hexboard-backend/internal/session"
	"github.com/DoyleJ11/hexboard-backend/internal/store"
)

const restoreTimeout = 5 * time.Second

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Code  string
	Rules engine.Rules
	Reply chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type EnsureSession struct {
	Code  string
	Rules engine.Rules // only used if creation happens
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	journal  store.Journal
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Option func(*Hub)

// WithJournal makes new sessions write-ahead to j and restore from it on open.
func WithJournal(j store.Journal) Option {
	return func(h *Hub) { h.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) { h.log = l }
}

func NewHub(parent context.Context, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		log:      zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.open(msg.Code, msg.Rules)

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case EnsureSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.open(msg.Code, msg.Rules)

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					s.Close()
					delete(h.sessions, msg.Code)
					h.log.Info("session removed", zap.String("code", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// open starts a session, replaying its journal first. A journal that cannot
// be read leaves the code unregistered and replies nil.
func (h *Hub) open(code string, rules engine.Rules) *session.Session {
	state := engine.NewState(rules)
	version := 0

	if h.journal != nil {
		ctx, cancel := context.WithTimeout(h.ctx, restoreTimeout)
		v, events, err := h.journal.Load(ctx, code)
		cancel()
		if err != nil {
			h.log.Error("restore session failed", zap.String("code", code), zap.Error(err))
			return nil
		}
		if len(events) > 0 {
			state = engine.Reduce(rules, events)
			version = v
			h.log.Info("session restored",
				zap.String("code", code),
				zap.Int("version", version),
				zap.Int("events", len(events)),
				zap.String("status", string(state.Status)))
		}
	}

	opts := session.Options{
		Code:    code,
		Version: version,
		Logger:  h.log.Named("session"),
	}
	if h.journal != nil {
		opts.Journal = h.journal
	}

	s := session.New(h.ctx, state, opts)
	h.sessions[code] = s
	h.log.Info("session opened", zap.String("code", code))
	return s
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.Close()
	}
	clear(h.sessions)
	h.cancel()
}

// Get looks a session up by code; nil if unknown.
func (h *Hub) Get(ctx context.Context, code string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	return h.ask(ctx, GetSession{Code: code, Reply: reply}, reply)
}

// Ensure returns the session for code, opening it with rules if needed.
func (h *Hub) Ensure(ctx context.Context, code string, rules engine.Rules) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	return h.ask(ctx, EnsureSession{Code: code, Rules: rules, Reply: reply}, reply)
}

func (h *Hub) ask(ctx context.Context, m HubMsg, reply chan *session.Session) (*session.Session, error) {
	select {
	case h.inbox <- m:
	case <-h.done:
		return nil, session.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.done:
		return nil, session.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
