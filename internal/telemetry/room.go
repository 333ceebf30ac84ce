package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 64
)

const (
	MessageTick       = "tick"
	MessageModeChange = "modeChange"
)

// Message is the envelope every broadcast is wrapped in.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

var upgrader = &websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize}

// WithLogger sets the logger for client and delivery events
func WithLogger(logger *slog.Logger) func(*Room) {
	return func(r *Room) {
		r.logger = logger
	}
}

// WithReplay makes the room greet every joining client with the current
// record of the provider.
func WithReplay(provider Provider) func(*Room) {
	return func(r *Room) {
		r.replay = provider
	}
}

// Room fans telemetry messages out to every connected websocket client.
// Slow clients miss messages rather than stall the broadcaster.
type Room struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	done    chan struct{}

	clients map[*client]bool

	replay Provider
	logger *slog.Logger
}

func NewRoom(options ...func(*Room)) *Room {
	r := Room{
		forward: make(chan []byte),
		join:    make(chan *client),
		leave:   make(chan *client),
		done:    make(chan struct{}),
		clients: make(map[*client]bool),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Run serves joins, leaves and broadcasts until ctx is cancelled, then
// disconnects every client.
func (r *Room) Run(ctx context.Context) {
	defer func() {
		close(r.done)
		for c := range r.clients {
			delete(r.clients, c)
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-r.join:
			r.clients[c] = true
			r.logger.Info("telemetry client joined", slog.String("remote", c.remote), slog.Int("clients", len(r.clients)))
			r.greet(c)

		case c := <-r.leave:
			if r.clients[c] {
				delete(r.clients, c)
				close(c.send)
			}
			r.logger.Info("telemetry client left", slog.String("remote", c.remote), slog.Int("clients", len(r.clients)))

		case msg := <-r.forward:
			for c := range r.clients {
				select {
				case c.send <- msg:
				default:
					r.logger.Debug("telemetry client lagging, message dropped", slog.String("remote", c.remote))
				}
			}
		}
	}
}

// Broadcast sends v to every client as a message of the given type. It
// blocks until the room accepts the message, ctx is done or the room stops.
func (r *Room) Broadcast(ctx context.Context, msgType string, v any) error {
	p, err := json.Marshal(Message{Type: msgType, Data: v})
	if err != nil {
		return fmt.Errorf("marshaling %s message: %w", msgType, err)
	}

	select {
	case r.forward <- p:
		return nil
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BroadcastRecord sends a tick record, followed by its mode change if any.
func (r *Room) BroadcastRecord(ctx context.Context, rec *Record) error {
	if err := r.Broadcast(ctx, MessageTick, rec); err != nil {
		return err
	}
	if rec.ModeChange != nil {
		return r.Broadcast(ctx, MessageModeChange, rec.ModeChange)
	}
	return nil
}

func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("telemetry upgrade failed", slog.String("remote", req.RemoteAddr), slog.Any("error", err))
		return
	}

	c := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
		remote: req.RemoteAddr,
	}

	select {
	case r.join <- c:
	case <-r.done:
		_ = socket.Close()
		return
	}

	go c.write()
	c.read()

	select {
	case r.leave <- c:
	case <-r.done:
	}
}

func (r *Room) greet(c *client) {
	if r.replay == nil {
		return
	}
	rec := r.replay.Get()
	if rec == nil {
		return
	}

	p, err := json.Marshal(Message{Type: MessageTick, Data: rec})
	if err != nil {
		r.logger.Warn("telemetry replay failed", slog.Any("error", err))
		return
	}
	c.send <- p
}

type client struct {
	socket *websocket.Conn
	send   chan []byte
	remote string
}

// read drains and discards client frames until the connection closes.
func (c *client) read() {
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) write() {
	defer c.socket.Close()

	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
