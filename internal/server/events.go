package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/edumint/edumint/internal/content"
)

// Event is a pipeline outcome pushed to websocket subscribers.
type Event struct {
	Type      string `json:"type"` // "content.published" or "content.rejected"
	ContentID string `json:"contentId"`
	TopicName string `json:"topicName,omitempty"`
	Standard  int    `json:"standard,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Hub fans pipeline events out to connected websocket clients. It implements
// content.Notifier so the pipeline can publish without knowing about
// transports.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}

	writeTimeout time.Duration
}

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{
		subs:         make(map[chan []byte]struct{}),
		writeTimeout: 5 * time.Second,
	}
}

// ContentPublished implements content.Notifier.
func (h *Hub) ContentPublished(item content.Item) {
	h.broadcast(Event{
		Type:      "content.published",
		ContentID: item.ID,
		TopicName: item.TopicName,
		Standard:  item.Standard,
	})
}

// ContentRejected implements content.Notifier.
func (h *Hub) ContentRejected(contentID, reason string) {
	h.broadcast(Event{
		Type:      "content.rejected",
		ContentID: contentID,
		Reason:    reason,
	})
}

// broadcast serializes the event once and hands it to every subscriber.
// Slow subscribers drop events rather than block the pipeline.
func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshaling event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *Hub) subscribe() (chan []byte, func()) {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ch, cancel := h.subscribe()
	defer cancel()

	// Reads are discarded; the context ends when the client goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case data := <-ch:
			if err := h.write(ctx, conn, data); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
