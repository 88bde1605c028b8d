package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexboard-backend/internal/hub"
	"github.com/DoyleJ11/hexboard-backend/internal/session"
)

const (
	outboxSize     = 8
	maxMessageSize = 4096
	leaveTimeout   = time.Second
)

type Options struct {
	DefaultCode    string   // session used when the request has no ?code=
	OriginPatterns []string // passed to websocket.AcceptOptions
	WriteTimeout   time.Duration
	PingInterval   time.Duration // zero disables keepalive pings
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()
	log := opts.Logger

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			code = opts.DefaultCode
		}
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		sess, err := h.Get(r.Context(), code)
		if err != nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if sess == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.String("code", code), zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(maxMessageSize)

		clientID := uuid.NewString()
		clog := log.With(zap.String("code", code), zap.String("client_id", clientID))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan session.Outbound, outboxSize)
		if err := sess.Send(ctx, session.Join{ClientID: clientID, Outbox: out}); err != nil {
			clog.Info("join refused", zap.Error(err))
			return
		}
		defer func() {
			lctx, lcancel := context.WithTimeout(context.Background(), leaveTimeout)
			defer lcancel()
			_ = sess.Send(lctx, session.Leave{ClientID: clientID})
		}()
		clog.Info("client connected")

		// Writer goroutine
		go func() {
			// outbox closed: we left, were dropped, or the session stopped
			defer cancel()
			for ob := range out {
				payload, err := encode(ob)
				if err != nil {
					clog.Error("encode outbound", zap.Error(err))
					continue
				}
				wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
				err = conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		if opts.PingInterval > 0 {
			go keepalive(ctx, cancel, conn, opts.PingInterval, opts.WriteTimeout)
		}

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Info("client disconnected")
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			cmd, err := decode(data)
			if err != nil {
				wctx, wcancel := context.WithTimeout(ctx, opts.WriteTimeout)
				_ = conn.Write(wctx, websocket.MessageText, errorPayload(err))
				wcancel()
				continue
			}

			if err := sess.Send(ctx, session.FromClient{ClientID: clientID, Cmd: cmd}); err != nil {
				return
			}
		}
	}
}

func keepalive(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, every, timeout time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, timeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}
