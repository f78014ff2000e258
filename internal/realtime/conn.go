package realtime

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"hr_notify/internal/domain"
)

// Conn is one websocket client. rooms is guarded by the bus lock.
type Conn struct {
	id    string
	ws    *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
	bus   *Bus
}

func (c *Conn) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Conn) readPump() {
	defer func() {
		c.bus.remove(c)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.bus.log.Debug("socket closed", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Conn) handle(msg Message) {
	switch msg.Event {
	case EventJoin, EventRegister:
		userID, err := parseUserID(msg.Data)
		if err != nil {
			c.bus.log.Warn("socket join without user id", zap.String("conn_id", c.id))
			return
		}
		room := domain.RoomForUser(userID)
		c.bus.join(c, room)
		c.bus.log.Debug("socket joined room", zap.String("conn_id", c.id), zap.String("room", room))
		ack, err := json.Marshal(Message{Event: EventJoined, Data: mustJSON(room)})
		if err == nil {
			c.enqueue(ack)
		}
	case EventLeave:
		userID, err := parseUserID(msg.Data)
		if err != nil {
			return
		}
		c.bus.leave(c, domain.RoomForUser(userID))
	default:
		c.bus.log.Debug("socket event ignored", zap.String("conn_id", c.id), zap.String("event", msg.Event))
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.bus.log.Debug("socket write failed", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var errMissingUserID = errors.New("missing user id")

// parseUserID accepts the id as a JSON string or number.
func parseUserID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errMissingUserID
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
		return "", errMissingUserID
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String(), nil
	}
	return "", errMissingUserID
}

func mustJSON(v string) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
