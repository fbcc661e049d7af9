package events

import (
	"context"

	"github.com/PhotoSocial/feed-client/internal/dto"
)

const (
	SubjectPrefix = "feed."
	SubjectAll    = "feed.>"
)

type Publisher interface {
	Publish(ctx context.Context, event dto.FeedEvent) error
}

type Subscriber interface {
	// Subscribe calls handler for every feed event until the returned unsubscribe func is called.
	Subscribe(handler func(ctx context.Context, event dto.FeedEvent)) (unsubscribe func() error, err error)
}

type Events interface {
	Publisher
	Subscriber
}
