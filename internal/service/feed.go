package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

type feedService struct {
	*feedBackend
	runner   *mutationRunner
	validate *validator.Validate
	session  sessionReader
	profiles Profile
	cacheTTL time.Duration
}

type sessionReader interface {
	Current() (*model.Session, bool)
}

func newFeedService(backend *feedBackend, runner *mutationRunner, validate *validator.Validate, session sessionReader, profiles Profile, cacheTTL time.Duration) *feedService {
	return &feedService{
		feedBackend: backend,
		runner:      runner,
		validate:    validate,
		session:     session,
		profiles:    profiles,
		cacheTTL:    cacheTTL,
	}
}

func (s *feedService) Load(ctx context.Context) ([]model.Post, error) {
	posts, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	s.state.reset(posts)

	return s.state.snapshot(), nil
}

func (s *feedService) fetchFeed(ctx context.Context) ([]*model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := redisrepo.FeedKey(s.limit)

	cachedPosts, err := redisrepo.GetMany[model.Post](s.repo.Redis.Default, ctx, key)
	if err == nil {
		return cachedPosts, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get feed snapshot from redis: %s", err.Error())
	}

	posts, err := s.repo.Postgres.Post.FindFeed(ctx, s.limit)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Sugar().Errorf("failed to find feed in postgres: %s", err.Error())
		return nil, remoteError(err)
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, key, posts, s.cacheTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set feed snapshot in redis: %s", err.Error())
	}

	return posts, nil
}

// Subscribe delivers the current feed, then the full reloaded feed after every remote change, until ctx is done.
func (s *feedService) Subscribe(ctx context.Context, fn func(posts []model.Post)) error {
	posts, err := s.Load(ctx)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	deliver := func(posts []model.Post) {
		mu.Lock()
		defer mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		fn(posts)
	}

	deliver(posts)

	if s.repo.Events == nil {
		return nil
	}

	unsubscribe, err := s.repo.Events.Subscribe(func(eventCtx context.Context, event dto.FeedEvent) {
		if ctx.Err() != nil {
			return
		}

		posts, err := s.Load(eventCtx)
		if err != nil {
			s.logger.Sugar().Errorf("failed to reload feed after %s of post(%s): %s", event.Type, event.PostID, err.Error())
			return
		}

		deliver(posts)
	})
	if err != nil {
		s.logger.Sugar().Errorf("failed to subscribe to feed events: %s", err.Error())
		return ErrInternal
	}

	go func() {
		<-ctx.Done()
		if err := unsubscribe(); err != nil {
			s.logger.Sugar().Errorf("failed to unsubscribe from feed events: %s", err.Error())
		}
	}()

	return nil
}

func (s *feedService) Snapshot() []model.Post {
	return s.state.snapshot()
}

func (s *feedService) CreatePost(ctx context.Context, caption string, imageURL string, authorID string) (*model.Post, error) {
	input := dto.CreatePostRequest{
		Caption:  caption,
		ImageURL: imageURL,
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if authorID == "" {
		return nil, ErrNotSignedIn
	}

	placeholder := model.Post{
		ID:         model.PendingIDPrefix + uuid.NewString(),
		AuthorID:   authorID,
		AuthorName: s.authorName(ctx, authorID),
		Caption:    caption,
		ImageURL:   imageURL,
		CreatedAt:  time.Now().UTC(),
		Comments:   []model.Comment{},
		Pending:    true,
	}

	var created *model.Post
	err := s.runner.run(ctx, pendingMutation{
		op:     "create",
		postID: placeholder.ID,
		apply: func() error {
			s.state.insert(placeholder)
			return nil
		},
		remote: func(ctx context.Context) error {
			post, err := s.repo.Postgres.Post.Create(ctx, placeholder)
			if err != nil {
				return err
			}
			created = post
			return nil
		},
		reconcile: func() {
			s.state.replace(placeholder.ID, *created)
		},
		rollback: func() {
			s.state.remove(placeholder.ID)
		},
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, dto.PostCreated, created.ID, authorID, authorID)

	post := created.Clone()
	return &post, nil
}

// authorName is the best-known display name: the session's own name, then the profile document, then the id.
func (s *feedService) authorName(ctx context.Context, authorID string) string {
	if session, ok := s.session.Current(); ok && session.UserID == authorID {
		if name := session.Name(); name != "" {
			return name
		}
	}

	profile, err := s.profiles.FindByID(ctx, authorID)
	if err == nil && profile != nil && profile.DisplayName != "" {
		return profile.DisplayName
	}

	return authorID
}

func (s *feedService) RemovePost(ctx context.Context, postID string, actorID string) error {
	if actorID == "" {
		return ErrNotSignedIn
	}
	if model.IsPendingID(postID) {
		return s.pendingError(postID)
	}

	var (
		authorID string
		local    bool
	)
	err := s.runner.run(ctx, pendingMutation{
		op:     "remove",
		postID: postID,
		precheck: func(ctx context.Context) error {
			post, err := s.find(ctx, postID)
			if err != nil {
				return err
			}
			if post.AuthorID != actorID {
				return &AuthorizationError{ActorID: actorID, PostID: postID}
			}
			authorID = post.AuthorID
			return nil
		},
		apply: func() error {
			_, local = s.state.beginRemove(postID)
			return nil
		},
		remote: func(ctx context.Context) error {
			err := s.repo.Postgres.Post.Delete(ctx, postID)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		},
		reconcile: func() {
			if local {
				s.state.finishRemove(postID, false)
			}
		},
		rollback: func() {
			if local {
				s.state.finishRemove(postID, true)
			}
		},
	})
	if err != nil {
		return err
	}

	s.changed(ctx, dto.PostDeleted, postID, actorID, authorID)

	return nil
}

func (s *feedService) FindAuthorPosts(ctx context.Context, authorID string) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := redisrepo.AuthorPostsKey(authorID)

	posts, err := redisrepo.GetMany[model.Post](s.repo.Redis.Default, ctx, key)
	if err != nil {
		if err != redis.Nil {
			s.logger.Sugar().Errorf("failed to get author(%s) posts from redis: %s", authorID, err.Error())
		}

		posts, err = s.repo.Postgres.Post.FindAuthorPosts(ctx, authorID, s.limit)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Sugar().Errorf("failed to find author(%s) posts in postgres: %s", authorID, err.Error())
			return nil, remoteError(err)
		}

		if err := s.repo.Redis.Default.SetJSON(ctx, key, posts, s.cacheTTL); err != nil {
			s.logger.Sugar().Errorf("failed to set author(%s) posts in redis: %s", authorID, err.Error())
		}
	}

	result := make([]model.Post, 0, len(posts))
	for _, post := range posts {
		if post != nil {
			result = append(result, post.Clone())
		}
	}
	sortPosts(result)

	return result, nil
}
