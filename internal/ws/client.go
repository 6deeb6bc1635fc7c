package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vietchess/chess-server/internal/obslog"
	"github.com/vietchess/chess-server/pkg/wire"
)

const sendQueueSize = 64

// Client is one websocket connection. Outbound frames go through a buffered
// queue drained by writeLoop so coordinator goroutines never block on a slow
// reader; when the queue is full the frame is dropped.
type Client struct {
	id   string
	conn *websocket.Conn

	sendCh    chan wire.Envelope
	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		sendCh: make(chan wire.Envelope, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Send enqueues an event for delivery. Payload marshalling failures and
// overflow both drop the frame with a log line.
func (c *Client) Send(event string, payload any) {
	env := wire.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			obslog.L().Error("ws_marshal_error", zap.String("conn_id", c.id), zap.String("event", event), zap.Error(err))
			return
		}
		env.Data = data
	}
	select {
	case <-c.done:
	case c.sendCh <- env:
	default:
		obslog.L().Warn("ws_send_dropped", zap.String("conn_id", c.id), zap.String("event", event))
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case env := <-c.sendCh:
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := wsjson.Write(wctx, c.conn, env)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_write_error", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close(code, reason)
	})
}
