package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
	wsWriteWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientFrame is what a WebSocket client sends.
type ClientFrame struct {
	Event    string `json:"event"`
	Identity string `json:"identity,omitempty"`
}

// WSConn is a Conn backed by a gorilla WebSocket.
type WSConn struct {
	id        string
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Upgrade turns an HTTP request into a WSConn.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &WSConn{id: uuid.New().String(), ws: ws, done: make(chan struct{})}, nil
}

func (c *WSConn) ID() string { return c.id }

func (c *WSConn) Push(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(wsWriteWait)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteJSON(ev)
}

func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *WSConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Serve reads client frames until the socket drops. Only the authenticated
// userID may be joined; the conn is attached globally on entry.
func (c *WSConn) Serve(ctx context.Context, registry *Registry, userID string, logger *zap.Logger) {
	registry.Attach(c)
	defer func() {
		registry.Leave(c)
		_ = c.Close()
	}()

	c.ws.SetReadLimit(4096)
	_ = c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ctx.Done():
				_ = c.Close()
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					_ = c.Close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket closed", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.reply(ctx, Event{Type: EventError, Data: "malformed frame"})
			continue
		}
		switch frame.Event {
		case "join":
			if frame.Identity != userID {
				c.reply(ctx, Event{Type: EventError, Data: "cannot join another user's channel"})
				continue
			}
			if err := registry.Join(frame.Identity, c); err != nil {
				c.reply(ctx, Event{Type: EventError, Data: err.Error()})
				continue
			}
			c.reply(ctx, Event{Type: EventJoined, Data: frame.Identity})
		case "leave":
			registry.Leave(c)
		default:
			c.reply(ctx, Event{Type: EventError, Data: "unknown event " + frame.Event})
		}
	}
}

func (c *WSConn) reply(ctx context.Context, ev Event) {
	pushCtx, cancel := context.WithTimeout(ctx, wsWriteWait)
	defer cancel()
	_ = c.Push(pushCtx, ev)
}
