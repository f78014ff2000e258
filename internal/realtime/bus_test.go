package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
)

func newTestBus(t *testing.T, cfg *config.Config) (*Bus, *httptest.Server) {
	t.Helper()
	bus := NewBus(cfg, zap.NewNop(), metrics.New())
	server := httptest.NewServer(http.HandlerFunc(bus.ServeWS))
	t.Cleanup(func() {
		bus.Close()
		server.Close()
	})
	return bus, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func joinAs(t *testing.T, conn *websocket.Conn, event string, data any) Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Event: event, Data: raw}))
	return readMessage(t, conn)
}

func TestBusJoinAndEmit(t *testing.T) {
	bus, server := newTestBus(t, &config.Config{})
	conn := dial(t, server)

	ack := joinAs(t, conn, EventJoin, "42")
	require.Equal(t, EventJoined, ack.Event)
	require.JSONEq(t, `"user_42"`, string(ack.Data))
	require.Equal(t, 1, bus.Members("user_42"))

	delivered, dropped := bus.EmitToUser("42", model.Notification{ID: 3, RecipientID: "42", Type: "leave", Message: "approved"})
	require.Equal(t, 1, delivered)
	require.Zero(t, dropped)

	msg := readMessage(t, conn)
	require.Equal(t, EventNotification, msg.Event)
	var got model.Notification
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	require.Equal(t, int64(3), got.ID)
	require.Equal(t, "approved", got.Message)
}

func TestBusRegisterWithNumericID(t *testing.T) {
	bus, server := newTestBus(t, &config.Config{})
	conn := dial(t, server)

	ack := joinAs(t, conn, EventRegister, 7)
	require.Equal(t, EventJoined, ack.Event)
	require.Equal(t, 1, bus.Members("user_7"))
}

func TestBusEmitEmptyRoom(t *testing.T) {
	bus, _ := newTestBus(t, &config.Config{})
	require.NotPanics(t, func() {
		delivered, dropped := bus.EmitToUser("nobody", model.Notification{Message: "x"})
		require.Zero(t, delivered)
		require.Zero(t, dropped)
	})
}

func TestBusEmitTargetsRoomOnly(t *testing.T) {
	bus, server := newTestBus(t, &config.Config{})
	a := dial(t, server)
	b := dial(t, server)
	joinAs(t, a, EventJoin, "a")
	joinAs(t, b, EventJoin, "b")

	delivered, _ := bus.EmitToUser("a", model.Notification{Message: "for a"})
	require.Equal(t, 1, delivered)

	msg := readMessage(t, a)
	require.Equal(t, EventNotification, msg.Event)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var none Message
	require.Error(t, b.ReadJSON(&none))
}

func TestBusEmitCountsFullQueues(t *testing.T) {
	bus := NewBus(&config.Config{}, zap.NewNop(), metrics.New())
	stuck := &Conn{id: "stuck", send: make(chan []byte), rooms: map[string]struct{}{}, bus: bus}
	ready := &Conn{id: "ready", send: make(chan []byte, 1), rooms: map[string]struct{}{}, bus: bus}
	for _, conn := range []*Conn{stuck, ready} {
		bus.add(conn)
		bus.join(conn, "user_5")
		defer bus.remove(conn)
	}

	delivered, dropped := bus.EmitToUser("5", model.Notification{Message: "x"})
	require.Equal(t, 1, delivered)
	require.Equal(t, 1, dropped)
	require.Len(t, ready.send, 1)
}

func TestBusLeaveAndDisconnect(t *testing.T) {
	bus, server := newTestBus(t, &config.Config{})
	conn := dial(t, server)
	joinAs(t, conn, EventJoin, "u1")

	raw, err := json.Marshal("u1")
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Event: EventLeave, Data: raw}))
	require.Eventually(t, func() bool { return bus.Members("user_u1") == 0 }, time.Second, 10*time.Millisecond)

	joinAs(t, conn, EventJoin, "u1")
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return bus.Members("user_u1") == 0 }, 2*time.Second, 10*time.Millisecond)
	delivered, _ := bus.EmitToUser("u1", model.Notification{Message: "gone"})
	require.Zero(t, delivered)
}

func TestBusPresence(t *testing.T) {
	bus, server := newTestBus(t, &config.Config{})
	changes := make(chan string, 8)
	bus.OnPresence(func(room string, present bool) {
		if present {
			changes <- "+" + room
		} else {
			changes <- "-" + room
		}
	})

	first := dial(t, server)
	second := dial(t, server)
	joinAs(t, first, EventJoin, "9")
	joinAs(t, second, EventJoin, "9")
	joinAs(t, first, EventJoin, "9")
	require.Equal(t, "+user_9", <-changes)

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return bus.Members("user_9") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Empty(t, changes)

	require.NoError(t, second.Close())
	select {
	case change := <-changes:
		require.Equal(t, "-user_9", change)
	case <-time.After(2 * time.Second):
		t.Fatal("room never emptied")
	}
}

func TestBusOriginCheck(t *testing.T) {
	_, server := newTestBus(t, &config.Config{WSAllowedOrigins: []string{"https://app.example"}})
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestParseUserID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for raw, want := range map[string]string{`"abc"`: "abc", `12`: "12", `" x "`: "x"} {
			got, err := parseUserID(json.RawMessage(raw))
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, raw := range []string{``, `""`, `null`, `{}`} {
			_, err := parseUserID(json.RawMessage(raw))
			require.Error(t, err, "raw %q", raw)
		}
	})
}
