// Package wshost implements host.Host for a browser connected over a
// WebSocket. The browser runs ClientScript, which reports its location and
// history events and applies the pushes and fragment changes the server
// sends.
//
// Frames are JSON text messages:
//
//	client → server  {"type":"location","location":{...}}   once, on connect
//	client → server  {"type":"popstate","location":{...}}
//	client → server  {"type":"hashchange","location":{...}}
//	server → client  {"type":"push","path":"/user/1?tab=x"}
//	server → client  {"type":"hash","fragment":"/user/1"}
//	server → client  {"type":"state","state":{...}}          see Notify
package wshost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/navroute/pkg/host"
)

// MessageType identifies a frame.
type MessageType string

const (
	TypeLocation   MessageType = "location"
	TypePopState   MessageType = "popstate"
	TypeHashChange MessageType = "hashchange"
	TypePush       MessageType = "push"
	TypeHash       MessageType = "hash"
	TypeState      MessageType = "state"
)

// Message is a single frame in either direction.
type Message struct {
	Type     MessageType    `json:"type"`
	Location *host.Location `json:"location,omitempty"`
	Path     string         `json:"path,omitempty"`
	Fragment string         `json:"fragment,omitempty"`

	// State is an application payload sent with TypeState.
	State json.RawMessage `json:"state,omitempty"`
}

// ErrHandshake is returned when the first frame is not a location report.
var ErrHandshake = errors.New("wshost: expected location frame")

// Config holds connection timeouts.
type Config struct {
	// HandshakeTimeout bounds the wait for the initial location frame.
	HandshakeTimeout time.Duration

	// ReadTimeout is the idle limit between client frames. Zero disables it.
	ReadTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the default timeouts.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		Logger:           slog.Default(),
	}
}

// Upgrader accepts browser connections. Origins are not checked; put the
// endpoint behind the application's own origin policy.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Host is a host.Host backed by a WebSocket connection.
type Host struct {
	conn   *websocket.Conn
	config Config
	logger *slog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	loc       host.Location
	listeners map[host.EventKind]map[int]func(host.Location)
	nextID    int

	closeOnce sync.Once
	done      chan struct{}
}

var _ host.Host = (*Host)(nil)

// New wraps an established connection. Call Handshake before handing the
// Host to a navigator, then run ReadLoop.
func New(conn *websocket.Conn, config Config) *Host {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Host{
		conn:      conn,
		config:    config,
		logger:    config.Logger.With("remote", conn.RemoteAddr().String()),
		listeners: make(map[host.EventKind]map[int]func(host.Location)),
		loc:       host.Location{Path: "/"},
		done:      make(chan struct{}),
	}
}

// Upgrade upgrades an HTTP request and performs the handshake.
func Upgrade(w http.ResponseWriter, r *http.Request, config Config) (*Host, error) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	h := New(conn, config)
	if err := h.Handshake(r.Context()); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// Handshake reads the client's initial location frame.
func (h *Host) Handshake(ctx context.Context) error {
	deadline := time.Now().Add(h.config.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if h.config.HandshakeTimeout > 0 {
		h.conn.SetReadDeadline(deadline)
	}

	var msg Message
	if err := h.conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("wshost: handshake: %w", err)
	}
	if msg.Type != TypeLocation || msg.Location == nil {
		return fmt.Errorf("%w, got %q", ErrHandshake, msg.Type)
	}

	h.conn.SetReadDeadline(time.Time{})
	h.mu.Lock()
	h.loc = normalize(*msg.Location)
	h.mu.Unlock()

	h.logger.Debug("browser connected", "location", msg.Location.String())
	return nil
}

// ReadLoop reads client frames until the connection closes and raises the
// matching notifications. It returns nil on a normal close.
func (h *Host) ReadLoop() error {
	defer h.Close()

	for {
		if h.config.ReadTimeout > 0 {
			h.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		}

		var msg Message
		if err := h.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Error("read error", "error", err)
				return err
			}
			return nil
		}

		if msg.Location == nil {
			h.logger.Warn("frame without location", "type", msg.Type)
			continue
		}
		loc := normalize(*msg.Location)

		switch msg.Type {
		case TypeLocation:
			h.setLocation(loc)
		case TypePopState:
			h.setLocation(loc)
			h.fire(host.EventPopState, loc)
		case TypeHashChange:
			h.setLocation(loc)
			h.fire(host.EventHashChange, loc)
		default:
			h.logger.Warn("unknown frame type", "type", msg.Type)
		}
	}
}

// Location implements host.Host. It is the last location reported by the
// browser or set by the server.
func (h *Host) Location() host.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loc
}

// Push implements host.Host.
func (h *Host) Push(path string) {
	h.setLocation(host.ParseURL(path))
	h.send(Message{Type: TypePush, Path: path})
}

// SetFragment implements host.Host. The browser reports the resulting
// hashchange back over the connection.
func (h *Host) SetFragment(fragment string) {
	h.mu.Lock()
	if h.loc.Fragment == fragment {
		h.mu.Unlock()
		return
	}
	h.loc.Fragment = fragment
	h.mu.Unlock()

	h.send(Message{Type: TypeHash, Fragment: fragment})
}

// Notify sends an application payload to the browser as a state frame.
func (h *Host) Notify(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	h.send(Message{Type: TypeState, State: data})
	return nil
}

// Listen implements host.Host.
func (h *Host) Listen(kind host.EventKind, fn func(host.Location)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listeners[kind] == nil {
		h.listeners[kind] = make(map[int]func(host.Location))
	}
	id := h.nextID
	h.nextID++
	h.listeners[kind][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners[kind], id)
	}
}

// Done is closed when the connection is closed.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Close sends a close frame and closes the connection.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.writeMu.Lock()
		h.conn.SetWriteDeadline(time.Now().Add(time.Second))
		h.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		h.writeMu.Unlock()

		h.conn.Close()
	})
}

func (h *Host) send(msg Message) {
	select {
	case <-h.done:
		h.logger.Warn("dropping frame on closed connection", "type", msg.Type)
		return
	default:
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if h.config.WriteTimeout > 0 {
		h.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
	}
	if err := h.conn.WriteJSON(msg); err != nil {
		h.logger.Error("write error", "type", msg.Type, "error", err)
		go h.Close()
	}
}

func (h *Host) setLocation(loc host.Location) {
	h.mu.Lock()
	h.loc = loc
	h.mu.Unlock()
}

func (h *Host) fire(kind host.EventKind, loc host.Location) {
	h.mu.Lock()
	fns := make([]func(host.Location), 0, len(h.listeners[kind]))
	for id := 0; id < h.nextID; id++ {
		if fn, ok := h.listeners[kind][id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}

func normalize(loc host.Location) host.Location {
	if loc.Path == "" {
		loc.Path = "/"
	}
	return loc
}
