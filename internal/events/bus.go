package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
)

const consumerGroup = "prodriver-service"

// Bus owns the pub/sub transport plus the router running the consumers.
type Bus struct {
	Publisher  EventPublisher
	subscriber message.Subscriber
	router     *message.Router
	logger     utils.Logger
}

// NewBus uses Kafka when brokers are given and an in-process channel otherwise.
func NewBus(brokers []string, logger utils.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger.Slog())

	var (
		pub message.Publisher
		sub message.Subscriber
	)
	if len(brokers) > 0 {
		kp, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		ks, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:       brokers,
			Unmarshaler:   kafka.DefaultMarshaler{},
			ConsumerGroup: consumerGroup,
		}, wmLogger)
		if err != nil {
			_ = kp.Close()
			return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
		}
		pub, sub = kp, ks
		logger.Info("Event bus using kafka", "brokers", brokers)
	} else {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		pub, sub = ch, ch
		logger.Info("Event bus using in-process channel")
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)

	return &Bus{
		Publisher:  NewWatermillPublisher(pub, logger),
		subscriber: sub,
		router:     router,
		logger:     logger,
	}, nil
}

// Handle registers a consumer for topic. Must be called before Run.
func (b *Bus) Handle(name, topic string, fn func(msg *message.Message) error) {
	b.router.AddNoPublisherHandler(name, topic, b.subscriber, fn)
}

// Run blocks until ctx is cancelled or the router stops.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		b.logger.Warn("Event router close failed", "error", err)
	}
	if err := b.Publisher.Close(); err != nil {
		return err
	}
	return b.subscriber.Close()
}
