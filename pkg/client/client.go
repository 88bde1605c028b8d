// Package client is a Go client for the session server. It owns one
// websocket, decodes what the server pushes and republishes it on channels.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/DoyleJ11/hexboard-backend/pkg/types"
)

const bufferSize = 16

type Client struct {
	conn    *websocket.Conn
	player  string
	updates chan types.Snapshot
	errs    chan string
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Dial connects to url (ws:// or wss://, including any ?code=) on behalf of player.
func Dial(ctx context.Context, url, player string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	rctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		player:  player,
		updates: make(chan types.Snapshot, bufferSize),
		errs:    make(chan string, bufferSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.readLoop(rctx)
	return c, nil
}

// Updates yields every snapshot the server pushes. If the consumer falls
// behind, older snapshots are discarded in favour of newer ones.
func (c *Client) Updates() <-chan types.Snapshot { return c.updates }

// Errors yields rejection messages for this connection's requests. Unlike
// snapshots, a rejection that arrives while the buffer is full is discarded.
func (c *Client) Errors() <-chan string { return c.errs }

// Done is closed when the connection ends; Err then reports why.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Inquire(ctx context.Context) error {
	return c.send(ctx, types.ActionInquire, nil)
}

func (c *Client) Enroll(ctx context.Context) error {
	return c.send(ctx, types.ActionEnroll, nil)
}

func (c *Client) Start(ctx context.Context) error {
	return c.send(ctx, types.ActionStart, nil)
}

func (c *Client) Move(ctx context.Context, destination string) error {
	details, err := json.Marshal(types.MoveDetails{Destination: destination})
	if err != nil {
		return err
	}
	return c.send(ctx, types.ActionMove, details)
}

func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.cancel()
	<-c.done
	return err
}

func (c *Client) send(ctx context.Context, action string, details json.RawMessage) error {
	return wsjson.Write(ctx, c.conn, types.ClientMessage{
		PlayerID: c.player,
		Action:   action,
		Details:  details,
	})
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	defer close(c.updates)
	defer close(c.errs)

	for {
		var env types.Envelope
		if err := wsjson.Read(ctx, c.conn, &env); err != nil {
			if !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}

		if env.Error != "" {
			select {
			case c.errs <- env.Error:
			default:
				// consumer is behind; drop
			}
			continue
		}
		c.publish(env.Snapshot)
	}
}

func (c *Client) publish(snap types.Snapshot) {
	for {
		select {
		case c.updates <- snap:
			return
		default:
			// latest wins: discard the oldest queued snapshot
			select {
			case <-c.updates:
			default:
			}
		}
	}
}
