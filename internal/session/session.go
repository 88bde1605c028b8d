// Package session runs one game session as an actor: a single goroutine owns
// the engine state and handles inbox messages to completion, in arrival order.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
)

var ErrClosed = errors.New("session closed")
var ErrPersist = errors.New("could not record command, try again")

const journalTimeout = 5 * time.Second

type Msg interface{ isSessionMsg() }

type FromClient struct {
	ClientID string // replies and rejections go here; may be empty
	Cmd      engine.Command
}

func (FromClient) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Outbound // where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
}

// Outbound carries either a snapshot or a rejection for a single client.
type Outbound struct {
	Snapshot *Snapshot
	Err      error
}

type View struct {
	Code       string
	Version    int
	NumClients int
	State      engine.State
}

// Appender is the part of store.Journal the session writes through.
type Appender interface {
	Append(ctx context.Context, code string, version int, events []engine.Event) error
}

type Options struct {
	Code    string
	Version int // starting version, non-zero when restored from a journal
	Journal Appender
	Logger  *zap.Logger
}

type Session struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan Outbound
	journal Appender
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(parent context.Context, initial engine.State, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Session{
		code:    opts.Code,
		inbox:   make(chan Msg, 64),
		state:   initial,
		version: opts.Version,
		clients: make(map[string]chan Outbound),
		journal: opts.Journal,
		log:     log.With(zap.String("code", opts.Code)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				s.deliver(msg.ClientID, Outbound{Snapshot: s.snapshot()})
				s.log.Debug("client joined", zap.String("client_id", msg.ClientID), zap.Int("clients", len(s.clients)))

			case Leave:
				if ch, ok := s.clients[msg.ClientID]; ok {
					close(ch)
					delete(s.clients, msg.ClientID)
				}
				s.log.Debug("client left", zap.String("client_id", msg.ClientID))

			case FromClient:
				s.handle(msg)

			case GetState:
				msg.Reply <- View{
					Code:       s.code,
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handle(msg FromClient) {
	cmd := msg.Cmd
	fields := []zap.Field{
		zap.String("client_id", msg.ClientID),
		zap.String("action", string(cmd.Type)),
		zap.String("player_id", string(cmd.PlayerID)),
	}

	events, next, err := engine.Apply(s.state, cmd)
	if err != nil {
		s.log.Debug("command rejected", append(fields, zap.Error(err))...)
		s.deliver(msg.ClientID, Outbound{Err: err})
		return
	}

	// inquire: answer the asker only
	if len(events) == 0 {
		s.deliver(msg.ClientID, Outbound{Snapshot: s.snapshot()})
		return
	}

	if s.journal != nil {
		ctx, cancel := context.WithTimeout(s.ctx, journalTimeout)
		err := s.journal.Append(ctx, s.code, s.version+1, events)
		cancel()
		if err != nil {
			s.log.Error("journal append failed", append(fields, zap.Int("version", s.version+1), zap.Error(err))...)
			s.deliver(msg.ClientID, Outbound{Err: ErrPersist})
			return
		}
	}

	s.state = next
	s.version++
	s.log.Info("command applied", append(fields, zap.Int("version", s.version), zap.String("status", string(s.state.Status)))...)
	if engine.ContainsEvent(events, engine.EvtSessionStarted) {
		s.log.Info("game started", zap.Int("players", len(s.state.Players)))
	}
	s.broadcast(Outbound{Snapshot: s.snapshot()})
}

func (s *Session) snapshot() *Snapshot {
	return &Snapshot{Version: s.version, State: s.state}
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch) // Tell client no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

// deliver sends to one client, dropping it if its outbox is full.
func (s *Session) deliver(id string, ob Outbound) {
	ch, ok := s.clients[id]
	if !ok {
		return
	}
	select {
	case ch <- ob:
	default:
		s.drop(id, ch)
	}
}

func (s *Session) broadcast(ob Outbound) {
	for id, ch := range s.clients {
		select {
		case ch <- ob:
			//ok
		default:
			s.drop(id, ch)
		}
	}
}

func (s *Session) drop(id string, ch chan Outbound) {
	close(ch)
	delete(s.clients, id)
	s.log.Warn("dropping slow client", zap.String("client_id", id))
}

// Send delivers m to the inbox unless ctx ends or the session has stopped.
func (s *Session) Send(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View asks the actor for a consistent copy of its state.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) Code() string { return s.code }

// Close stops the actor without going through the inbox.
func (s *Session) Close() { s.cancel() }

// Done is closed once the actor goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Expose the inbox so tests or WS layer can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (v View) Snapshot() Snapshot {
	return Snapshot{Version: v.Version, State: v.State}
}
