//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"hr_notify/internal/app"
	"hr_notify/internal/broker"
	"hr_notify/internal/broker/redispubsub"
	"hr_notify/internal/config"
	"hr_notify/internal/http"
	"hr_notify/internal/http/controller"
	"hr_notify/internal/logging"
	"hr_notify/internal/metrics"
	"hr_notify/internal/push"
	"hr_notify/internal/queue/rabbitmq"
	"hr_notify/internal/realtime"
	"hr_notify/internal/service/notify"
	"hr_notify/internal/sse"
	"hr_notify/internal/store"
)

var storeSet = wire.NewSet(
	store.NewStore,
	store.NotificationRepository,
	store.PushSubscriptionRepository,
)

var deliverySet = wire.NewSet(
	sse.NewHub,
	realtime.NewBus,
	broker.NewLocal,
	redispubsub.NewBroker,
	wire.Bind(new(notify.LivePublisher), new(broker.Broker)),
	push.NewWebPushTransport,
	wire.Bind(new(push.Transport), new(*push.WebPushTransport)),
	wire.Bind(new(controller.VAPIDKeySource), new(*push.WebPushTransport)),
	push.NewSender,
	wire.Bind(new(notify.PushDeliverer), new(*push.Sender)),
)

func InitializeApp() (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		metrics.New,
		storeSet,
		deliverySet,
		notify.NewService,
		rabbitmq.NewConsumer,
		rabbitmq.NewPublisher,
		controller.NewHandler,
		http.NewRouter,
		app.NewApp,
	)
	return &app.App{}, nil
}
