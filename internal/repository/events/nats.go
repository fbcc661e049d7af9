package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type natsEvents struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNats(nc *nats.Conn, logger *zap.Logger) Events {
	return &natsEvents{
		nc:     nc,
		logger: logger,
	}
}

func (e *natsEvents) Publish(ctx context.Context, event dto.FeedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: SubjectPrefix + string(event.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	return e.nc.PublishMsg(msg)
}

func (e *natsEvents) Subscribe(handler func(ctx context.Context, event dto.FeedEvent)) (func() error, error) {
	sub, err := e.nc.Subscribe(SubjectAll, func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))

		var event dto.FeedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			e.logger.Sugar().Errorf("failed to unmarshal feed event on subject(%s): %s", msg.Subject, err.Error())
			return
		}

		handler(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return sub.Unsubscribe, nil
}
