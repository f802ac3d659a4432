// Package broadcast fans state-change events out to connected WebSocket
// clients. Delivery is at-most-once and best-effort: the persisted
// record is always the authoritative state. Events travel through a
// Redis pub/sub channel so every process instance sees the same stream.
package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quartierboard/board-api/internal/logger"
)

// Event names carried to clients.
const (
	EventNewInfo        = "newInfo"
	EventUpdateInfo     = "updateInfo"
	EventDeleteInfo     = "deleteInfo"
	EventJoinEvent      = "joinEvent"
	EventLeaveEvent     = "leaveEvent"
	EventNewComment     = "newComment"
	EventCommentEdited  = "commentEdited"
	EventCommentDeleted = "commentDeleted"
	EventVoteUpdated    = "voteUpdated"
)

// Channel is the Redis pub/sub channel the hub relays through.
const Channel = "board:events"

// Event is the payload written to clients.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn is the minimal interface a client connection must satisfy.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub is the process-wide registry of client connections. Constructed
// once in main and injected; there is no package-level instance.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Conn
	rdb   *redis.Client
}

// NewHub creates a hub relaying through the given Redis client. A nil
// client short-circuits Broadcast to local fan-out (used by tests).
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		conns: make(map[uuid.UUID]Conn),
		rdb:   rdb,
	}
}

// Register adds a connection and returns its identity.
func (h *Hub) Register(conn Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	return id
}

// Unregister removes a connection.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast publishes an event to the relay channel. All hub instances,
// this one included, deliver it to their local connections.
func (h *Hub) Broadcast(ctx context.Context, event string, data any) {
	evt := Event{Event: event, Data: data}
	if h.rdb == nil {
		h.fanOut(evt)
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Errorw("failed to marshal broadcast event", "event", event, "error", err)
		return
	}
	if err := h.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		logger.Log.Errorw("failed to publish broadcast event", "event", event, "error", err)
	}
}

// fanOut sends an event to every local connection, best-effort.
func (h *Hub) fanOut(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.conns {
		// Non-blocking best-effort send.
		go func(c Conn) {
			if err := c.WriteJSON(evt); err != nil {
				logger.Log.Debugw("error writing event to websocket", "error", err)
			}
		}(conn)
	}
}

// Start runs the Redis subscriber feeding the local fan-out. Blocks
// until ctx is cancelled; run it in its own goroutine.
func (h *Hub) Start(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.rdb.Subscribe(ctx, Channel)
			defer pubsub.Close()

			logger.Log.Infow("broadcast subscriber started", "channel", Channel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Log.Errorw("broadcast subscriber error", "error", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					logger.Log.Errorw("failed to unmarshal broadcast event", "error", err)
					continue
				}
				h.fanOut(evt)
			}
		}()
	}
}
