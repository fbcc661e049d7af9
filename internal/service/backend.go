package service

import (
	"context"
	"errors"
	"time"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// feedBackend holds what the feed and post services share: local state, post lookup
// and the best-effort side effects of a confirmed write.
type feedBackend struct {
	logger  *zap.Logger
	repo    *repository.Repository
	state   *feedState
	limit   int
	timeout time.Duration
}

// find returns the post from the local feed, falling back to the document store.
func (b *feedBackend) find(ctx context.Context, id string) (model.Post, error) {
	if post, ok := b.state.get(id); ok {
		return post, nil
	}
	if model.IsPendingID(id) {
		return model.Post{}, ErrPostNotFound
	}

	post, err := b.repo.Postgres.Post.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Post{}, ErrPostNotFound
		}
		b.logger.Sugar().Errorf("failed to find post(%s) in postgres: %s", id, err.Error())
		return model.Post{}, remoteError(err)
	}

	return *post, nil
}

// pendingError reports why a placeholder id cannot be mutated yet.
func (b *feedBackend) pendingError(id string) error {
	if _, ok := b.state.get(id); ok {
		return ErrPostPending
	}
	return ErrPostNotFound
}

// changed drops the cached snapshots a write made stale and notifies live subscribers.
func (b *feedBackend) changed(ctx context.Context, eventType dto.FeedEventType, postID string, userID string, authorID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	keys := []string{redisrepo.FeedKey(b.limit)}
	if authorID != "" {
		keys = append(keys, redisrepo.AuthorPostsKey(authorID))
	}
	if err := b.repo.Redis.Default.Del(ctx, keys...).Err(); err != nil {
		b.logger.Sugar().Errorf("failed to invalidate cached feed after %s of post(%s): %s", eventType, postID, err.Error())
	}

	if b.repo.Events == nil {
		return
	}

	event := dto.FeedEvent{
		Type:       eventType,
		PostID:     postID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if err := b.repo.Events.Publish(ctx, event); err != nil {
		b.logger.Sugar().Errorf("failed to publish %s event of post(%s): %s", eventType, postID, err.Error())
	}
}
