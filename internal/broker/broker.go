package broker

import (
	"context"
	"sort"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"hr_notify/internal/domain"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/realtime"
	"hr_notify/internal/sse"
)

// Broker routes a persisted notification to whichever process holds the
// recipient's live connections.
type Broker interface {
	Publish(ctx context.Context, notification model.Notification) error
	Run(ctx context.Context) error
}

// Local delivers to the connections open in this process: the SSE hub and
// the socket room of the recipient. Each target is tried independently.
//
// Local also tracks which users have a connection here, counting an open
// SSE stream set and a joined socket room once each.
type Local struct {
	hub     *sse.Hub
	bus     *realtime.Bus
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	present map[string]int
	changed chan struct{}
}

func NewLocal(hub *sse.Hub, bus *realtime.Bus, logger *zap.Logger, m *metrics.Metrics) *Local {
	l := &Local{
		hub:     hub,
		bus:     bus,
		log:     logger,
		metrics: m,
		present: make(map[string]int),
		changed: make(chan struct{}, 1),
	}
	hub.OnPresence(l.track)
	bus.OnPresence(func(room string, present bool) {
		if userID, ok := domain.UserForRoom(room); ok {
			l.track(userID, present)
		}
	})
	return l
}

func (l *Local) track(userID string, present bool) {
	l.mu.Lock()
	if present {
		l.present[userID]++
	} else if l.present[userID]--; l.present[userID] <= 0 {
		delete(l.present, userID)
	}
	l.mu.Unlock()

	select {
	case l.changed <- struct{}{}:
	default:
	}
}

// Users returns the users with at least one live connection in this
// process, sorted.
func (l *Local) Users() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	users := make([]string, 0, len(l.present))
	for userID := range l.present {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

// Changed receives after the result of Users may have changed. Signals
// coalesce, so a reader must re-read Users rather than count signals.
func (l *Local) Changed() <-chan struct{} {
	return l.changed
}

func (l *Local) Publish(_ context.Context, notification model.Notification) error {
	l.Deliver(notification)
	return nil
}

func (l *Local) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Deliver never fails; a panic in one target is logged and the other target
// still runs.
func (l *Local) Deliver(notification model.Notification) {
	var wg conc.WaitGroup
	wg.Go(func() {
		l.record(metrics.ChannelSSE)(l.hub.Publish(notification.RecipientID, notification))
	})
	wg.Go(func() {
		l.record(metrics.ChannelSocket)(l.bus.EmitToUser(notification.RecipientID, notification))
	})
	if r := wg.WaitAndRecover(); r != nil {
		l.log.Error("live delivery panicked",
			zap.String("recipient_id", notification.RecipientID),
			zap.Int64("notification_id", notification.ID),
			zap.String("panic", r.String()),
		)
	}
}

// record returns a recorder for one channel so the two-value results of
// Publish and EmitToUser can be passed straight in.
func (l *Local) record(channel string) func(delivered, dropped int) {
	return func(delivered, dropped int) {
		if delivered == 0 && dropped == 0 {
			l.metrics.Delivery(channel, metrics.OutcomeNoTarget)
			return
		}
		if delivered > 0 {
			l.metrics.Deliveries.WithLabelValues(channel, metrics.OutcomeDelivered).Add(float64(delivered))
		}
		if dropped > 0 {
			l.metrics.Deliveries.WithLabelValues(channel, metrics.OutcomeDropped).Add(float64(dropped))
		}
	}
}
