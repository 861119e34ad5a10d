// Package transport streams animation frames and state snapshots to remote
// viewers over WebSocket, and serves a small read-only JSON API.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tejashwikalptaru/soundscape/internal/domain"
	"github.com/tejashwikalptaru/soundscape/internal/ports"
	"github.com/tejashwikalptaru/soundscape/internal/render"
)

const (
	// MessageFrame carries a render.Frame.
	MessageFrame = "frame"
	// MessageState carries a domain.ApplicationState.
	MessageState = "state"

	sendBuffer = 64
	writeWait  = 2 * time.Second
)

// Message is the envelope written to every client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SceneLister names the registered scenes.
type SceneLister interface {
	SceneNames() []string
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Broadcaster fans frames and state snapshots out to WebSocket clients.
// A client whose send buffer is full is dropped.
type Broadcaster struct {
	logger   *slog.Logger
	bus      ports.EventBus
	state    ports.StateReader
	scenes   SceneLister
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	subID   domain.SubscriptionID

	frameMu   sync.Mutex
	lastFrame time.Time
	now       func() time.Time

	wg sync.WaitGroup
}

var _ ports.FrameSink = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster that forwards at most one frame per interval
// and every StateChanged snapshot.
func NewBroadcaster(logger *slog.Logger, bus ports.EventBus, state ports.StateReader, scenes SceneLister, interval time.Duration) *Broadcaster {
	b := &Broadcaster{
		logger:   logger.With(slog.String("adapter", "websocket")),
		bus:      bus,
		state:    state,
		scenes:   scenes,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
		now:     time.Now,
	}
	b.subID = bus.Subscribe(domain.EventStateChanged, func(event domain.Event) {
		e := event.(domain.StateChangedEvent)
		b.broadcast(Message{Type: MessageState, Data: e.State})
	})
	return b
}

// Router returns the HTTP routes served by the broadcaster.
func (b *Broadcaster) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", b.ServeWS)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", b.handleState).Methods(http.MethodGet)
	api.HandleFunc("/scenes", b.handleScenes).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves Router on addr until ctx is cancelled.
func (b *Broadcaster) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           b.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("serving", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return domain.NewServiceError("Broadcaster", "ListenAndServe", "server stopped", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}

// PushFrame forwards frame to every client unless one was sent less than
// interval ago.
func (b *Broadcaster) PushFrame(frame *render.Frame) {
	b.frameMu.Lock()
	now := b.now()
	if !b.lastFrame.IsZero() && now.Sub(b.lastFrame) < b.interval {
		b.frameMu.Unlock()
		return
	}
	b.lastFrame = now
	b.frameMu.Unlock()

	if b.ClientCount() == 0 {
		return
	}
	cp := &render.Frame{}
	frame.CopyInto(cp)
	b.broadcast(Message{Type: MessageFrame, Data: cp})
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// ServeWS upgrades the request and registers the connection. The current
// state is sent as the first message.
func (b *Broadcaster) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- Message{Type: MessageState, Data: b.state.State()}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return
	}
	b.clients[c.id] = c
	total := len(b.clients)
	b.wg.Add(2)
	b.mu.Unlock()

	b.logger.Debug("client connected", slog.String("client", c.id), slog.Int("total", total))
	go b.writePump(c)
	go b.readPump(c)
}

// writePump owns all writes to the connection.
func (b *Broadcaster) writePump(c *client) {
	defer b.wg.Done()
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			b.logger.Debug("write failed", slog.String("client", c.id), slog.Any("error", err))
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readPump discards client input and unregisters on disconnect.
func (b *Broadcaster) readPump(c *client) {
	defer b.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	b.remove(c.id)
	b.logger.Debug("client disconnected", slog.String("client", c.id))
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[id]; ok {
		delete(b.clients, id)
		close(c.send)
	}
}

func (b *Broadcaster) broadcast(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.logger.Warn("dropping slow client", slog.String("client", id))
			delete(b.clients, id)
			close(c.send)
		}
	}
}

func (b *Broadcaster) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, b.state.State())
}

func (b *Broadcaster) handleScenes(w http.ResponseWriter, _ *http.Request) {
	st := b.state.State()
	writeJSON(w, struct {
		Scenes  []string `json:"scenes"`
		Current int      `json:"current"`
	}{b.scenes.SceneNames(), st.SceneIndex})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Close disconnects every client and waits for their goroutines.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.bus.Unsubscribe(b.subID)
	for id, c := range b.clients {
		delete(b.clients, id)
		close(c.send)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
