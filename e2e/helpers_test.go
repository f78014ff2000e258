package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"hr_notify/internal/broker"
	"hr_notify/internal/config"
	httpserver "hr_notify/internal/http"
	"hr_notify/internal/http/controller"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/queue"
	"hr_notify/internal/realtime"
	"hr_notify/internal/service/notify"
	"hr_notify/internal/sse"
	"hr_notify/internal/store/memory"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, []byte, string) error {
	return nil
}

type noPush struct{}

func (noPush) Deliver(context.Context, model.Notification) (int, error) { return 0, nil }

type staticKey string

func (k staticKey) PublicKey() string { return string(k) }

type stack struct {
	server *httptest.Server
	hub    *sse.Hub
	bus    *realtime.Bus
	store  *memory.Store
	svc    *notify.Service
}

// newStack wires the server the way cmd/server does, minus the external
// backends: in-process broker, memory store and no push transport.
func newStack(t *testing.T, cfg *config.Config, publisher queue.Publisher) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg.SSEPing == 0 {
		cfg.SSEPing = 5 * time.Second
	}
	logger := zap.NewNop()
	m := metrics.New()
	store := memory.New(logger)
	hub := sse.NewHub()
	bus := realtime.NewBus(cfg, logger, m)
	local := broker.NewLocal(hub, bus, logger, m)
	svc := notify.NewService(store, store, local, noPush{}, logger, m)
	handler := controller.NewHandler(cfg, svc, hub, bus, staticKey("public-key"), publisher, logger, m)
	router := httpserver.NewRouter(cfg, handler, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		bus.Close()
		server.Close()
		cancel()
	})
	return &stack{server: server, hub: hub, bus: bus, store: store, svc: svc}
}

func (s *stack) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *stack) openStream(t *testing.T, query string) *http.Response {
	t.Helper()
	resp, err := http.Get(s.server.URL + "/events?" + query)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return resp
}

// waitSubscribers polls until the stream handler has registered its client.
func (s *stack) waitSubscribers(t *testing.T, userID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.hub.Subscribers(userID) == n
	}, 2*time.Second, 10*time.Millisecond)
}

type streamFrame struct {
	Type        string `json:"type"`
	ID          int64  `json:"id"`
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
	Category    string `json:"category"`
	Message     string `json:"message"`
	Link        string `json:"link"`
	Read        bool   `json:"read"`
}

func readFrame(t *testing.T, reader *bufio.Reader) streamFrame {
	t.Helper()
	data, err := readSSEData(reader, 2*time.Second)
	require.NoError(t, err)
	var frame streamFrame
	require.NoError(t, json.Unmarshal([]byte(data), &frame))
	return frame
}

func readSSEData(body io.Reader, timeout time.Duration) (string, error) {
	reader, ok := body.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(body)
	}
	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		var dataLines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				ch <- result{"", err}
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if line == "" {
				if len(dataLines) > 0 {
					ch <- result{strings.Join(dataLines, "\n"), nil}
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}()

	select {
	case res := <-ch:
		return res.data, res.err
	case <-time.After(timeout):
		return "", context.DeadlineExceeded
	}
}
