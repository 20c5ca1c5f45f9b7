// Package net shares a board on the local network: the presenter runs a Host that
// pushes every committed snapshot to connected followers over a websocket.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/mdns"

	"ResearchBoard/internal/logger"
	"ResearchBoard/internal/state"
	"ResearchBoard/internal/storage"
)

// Message types.
const (
	MsgSnapshot = "snapshot"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 8
	// maxMessageBytes bounds one snapshot; boards with many embedded points get large.
	maxMessageBytes = 32 << 20
)

// Envelope is one message on the wire.
type Envelope struct {
	Type     string           `json:"type"`
	Revision state.Revision   `json:"revision"`
	Snapshot storage.Snapshot `json:"snapshot"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots out to followers. A follower that connects late receives the
// latest snapshot first.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			// followers are on the LAN and have no browser origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish stamps snap with a fresh revision and sends it to every follower.
// Followers that cannot keep up are disconnected.
func (h *Hub) Publish(snap storage.Snapshot) error {
	data, err := json.Marshal(Envelope{Type: MsgSnapshot, Revision: state.Stamp(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.latest = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logger.Warn("[SHARE] follower too slow, dropping", map[string]interface{}{"remote": c.conn.RemoteAddr().String()})
			h.dropLocked(c)
		}
	}
	return nil
}

// Followers returns the number of connected followers.
func (h *Hub) Followers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[SHARE] websocket upgrade failed", map[string]interface{}{"reason": err.Error()})
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	logger.Info("[SHARE] follower connected", map[string]interface{}{"remote": conn.RemoteAddr().String()})
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

// readPump only watches for the connection going away; followers never send content.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.drop(c)
		c.conn.Close()
		logger.Info("[SHARE] follower disconnected", map[string]interface{}{"remote": c.conn.RemoteAddr().String()})
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every follower; later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// HostConfig configures a presenter.
type HostConfig struct {
	Port      int    // 0 picks a free port
	Name      string // mDNS instance name
	Advertise bool
}

// Host serves a Hub over HTTP and optionally advertises it via mDNS.
type Host struct {
	*Hub
	srv      *http.Server
	listener net.Listener
	mdns     *mdns.Server
}

// StartHost listens on cfg.Port and serves followers until Close.
func StartHost(cfg HostConfig) (*Host, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", cfg.Port, err)
	}

	hub := NewHub()
	mux := http.NewServeMux()
	mux.Handle(boardPath, hub)
	h := &Host{
		Hub:      hub,
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		listener: ln,
	}

	go func() {
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[SHARE] server stopped", err)
		}
	}()

	if cfg.Advertise {
		server, err := Advertise(cfg.Name, h.Port())
		if err != nil {
			// sharing still works through the link
			logger.Error("[SHARE] mDNS advertisement failed", err)
		}
		h.mdns = server
	}
	logger.Info("[SHARE] presenting board", map[string]interface{}{"port": h.Port()})
	return h, nil
}

// Port is the port actually bound.
func (h *Host) Port() int {
	return h.listener.Addr().(*net.TCPAddr).Port
}

// Link is the share link for this host, using the outgoing LAN address.
func (h *Host) Link() string {
	ip, err := GetOutgoingIP()
	if err != nil {
		ip = "127.0.0.1"
	}
	return ShareLink(ip, h.Port())
}

// Close stops advertising, disconnects followers and shuts the server down.
func (h *Host) Close(ctx context.Context) error {
	if h.mdns != nil {
		if err := h.mdns.Shutdown(); err != nil {
			logger.Warn("[SHARE] mDNS shutdown failed", map[string]interface{}{"reason": err.Error()})
		}
	}
	h.Hub.Close()
	if err := h.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop share server: %w", err)
	}
	return nil
}

// Follower receives a presenter's snapshots.
type Follower struct {
	conn *websocket.Conn
	last state.Revision
	seen bool
}

// Dial connects to a presenter; link is anything WebSocketURL accepts.
func Dial(ctx context.Context, link string) (*Follower, error) {
	url, err := WebSocketURL(link)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageBytes)
	conn.SetPingHandler(func(data string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})
	logger.Info("[SHARE] following board", map[string]interface{}{"url": url})
	return &Follower{conn: conn}, nil
}

// accept reports whether env is newer than everything applied so far and records it.
func (f *Follower) accept(env Envelope) bool {
	if env.Type != MsgSnapshot {
		return false
	}
	if f.seen && !env.Revision.Newer(f.last) {
		return false
	}
	state.Observe(env.Revision.Lamport)
	f.last, f.seen = env.Revision, true
	return true
}

// Run applies each newer snapshot until ctx is done or the presenter goes away.
// A normal close or cancellation returns nil.
func (f *Follower) Run(ctx context.Context, apply func(storage.Snapshot)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = f.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			f.conn.Close()
		case <-stop:
		}
	}()

	for {
		var env Envelope
		if err := f.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("lost connection to presenter: %w", err)
		}
		if f.accept(env) {
			apply(env.Snapshot)
		}
	}
}

func (f *Follower) Close() error {
	return f.conn.Close()
}
