package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jamsocial/internal/common"
	"jamsocial/internal/profile"
)

const (
	streamBuffer = 4
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// SnapshotHub pushes published snapshots to the websocket clients of the
// snapshot's user. Slow clients miss intermediate snapshots; the next one
// replaces them anyway.
type SnapshotHub struct {
	mu       sync.RWMutex
	clients  map[int64]map[chan *profile.Snapshot]struct{}
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewSnapshotHub(log *slog.Logger) *SnapshotHub {
	return &SnapshotHub{
		clients: make(map[int64]map[chan *profile.Snapshot]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

func (h *SnapshotHub) Name() string {
	return "websocket_hub"
}

func (h *SnapshotHub) Update(snapshot *profile.Snapshot) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients[snapshot.UserID] {
		select {
		case ch <- snapshot:
		default:
			// drop the oldest queued snapshot to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
	return nil
}

func (h *SnapshotHub) subscribe(userID int64) chan *profile.Snapshot {
	ch := make(chan *profile.Snapshot, streamBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan *profile.Snapshot]struct{})
	}
	h.clients[userID][ch] = struct{}{}
	return ch
}

func (h *SnapshotHub) unsubscribe(userID int64, ch chan *profile.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], ch)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// needsRun reports whether a stream subscriber should trigger a run: nothing
// was ever triggered, or the shown URLs expired and no run is in flight.
func needsRun(a *profile.Assembler, current *profile.Snapshot, now time.Time) bool {
	if current == nil {
		return a.Counter() == 0
	}
	return current.URLsExpired(now) && !a.Pending()
}

// StreamFeed upgrades to a websocket, sends the current snapshot if there is
// one, then every snapshot published for the user until the client leaves.
func (h *Handler) StreamFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}
	if h.hub == nil {
		http.Error(w, "streaming disabled", http.StatusNotImplemented)
		return
	}
	assembler, err := h.feeds.Get(userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.Debug("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	updates := h.hub.subscribe(userID)
	defer h.hub.unsubscribe(userID, updates)

	current := assembler.Current()
	if current != nil {
		select {
		case updates <- current:
		default:
		}
	}
	if needsRun(assembler, current, h.now()) {
		if _, err := h.feeds.Refresh(r.Context(), userID); err != nil {
			h.log.Warn("feed run not started", "user_id", userID, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case snapshot := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
