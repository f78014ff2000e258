package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/domain"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
)

const (
	EventJoin         = "join"
	EventRegister     = "register"
	EventLeave        = "leave"
	EventJoined       = "joined"
	EventNotification = "notification"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Message is the envelope exchanged in both directions on a socket.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Bus keeps websocket connections grouped in rooms. A room is joined
// explicitly by the client and left when the connection closes.
type Bus struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]struct{}
	conns map[*Conn]struct{}

	upgrader websocket.Upgrader
	presence func(room string, present bool)
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewBus(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Bus {
	b := &Bus{
		rooms:   make(map[string]map[*Conn]struct{}),
		conns:   make(map[*Conn]struct{}),
		log:     logger,
		metrics: m,
	}
	allowed := make(map[string]struct{}, len(cfg.WSAllowedOrigins))
	for _, origin := range cfg.WSAllowedOrigins {
		allowed[origin] = struct{}{}
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
	return b
}

// ServeWS upgrades the request and serves the connection until it closes.
func (b *Bus) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn := &Conn{
		id:    uuid.NewString(),
		ws:    ws,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
		bus:   b,
	}
	b.add(conn)
	go conn.writePump()
	conn.readPump()
}

// Emit writes event to every connection in room. delivered counts
// connections that queued the frame; dropped counts connections whose send
// queue was full. An empty room is a no-op.
func (b *Bus) Emit(room, event string, payload any) (delivered, dropped int) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error("socket payload marshal failed", zap.String("room", room), zap.Error(err))
		return 0, 0
	}
	frame, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		b.log.Error("socket frame marshal failed", zap.String("room", room), zap.Error(err))
		return 0, 0
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for conn := range b.rooms[room] {
		if conn.enqueue(frame) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// EmitToUser sends a notification to the user's room.
func (b *Bus) EmitToUser(userID string, notification model.Notification) (delivered, dropped int) {
	return b.Emit(domain.RoomForUser(userID), EventNotification, notification)
}

// OnPresence installs fn to be told when a room gets its first member and
// when it empties. fn runs under the bus lock and must not call back into
// the bus. Install it before the bus serves connections.
func (b *Bus) OnPresence(fn func(room string, present bool)) {
	b.presence = fn
}

// Members reports how many connections are in room.
func (b *Bus) Members(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[room])
}

// Close drops every open connection; used on shutdown since hijacked
// connections are not closed by http.Server.Shutdown.
func (b *Bus) Close() {
	b.mu.RLock()
	conns := make([]*Conn, 0, len(b.conns))
	for conn := range b.conns {
		conns = append(conns, conn)
	}
	b.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.ws.Close()
	}
}

func (b *Bus) add(conn *Conn) {
	b.mu.Lock()
	b.conns[conn] = struct{}{}
	b.mu.Unlock()
	b.metrics.SocketConnections.Inc()
}

func (b *Bus) join(conn *Conn, room string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.conns[conn]; !ok {
		return
	}
	if _, ok := conn.rooms[room]; ok {
		return
	}
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[*Conn]struct{})
		if b.presence != nil {
			b.presence(room, true)
		}
	}
	b.rooms[room][conn] = struct{}{}
	conn.rooms[room] = struct{}{}
}

func (b *Bus) leave(conn *Conn, room string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(conn, room)
}

func (b *Bus) leaveLocked(conn *Conn, room string) {
	delete(conn.rooms, room)
	members := b.rooms[room]
	if members == nil {
		return
	}
	if _, ok := members[conn]; !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(b.rooms, room)
		if b.presence != nil {
			b.presence(room, false)
		}
	}
}

// remove detaches conn from all rooms and closes its send queue. The queue
// is closed under the write lock so Emit never sends on a closed channel.
func (b *Bus) remove(conn *Conn) {
	b.mu.Lock()
	if _, ok := b.conns[conn]; !ok {
		b.mu.Unlock()
		return
	}
	for room := range conn.rooms {
		b.leaveLocked(conn, room)
	}
	delete(b.conns, conn)
	close(conn.send)
	b.mu.Unlock()
	b.metrics.SocketConnections.Dec()
}
