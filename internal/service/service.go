package service

import (
	"context"
	"io"
	"time"

	"github.com/PhotoSocial/feed-client/internal/config"
	"github.com/PhotoSocial/feed-client/internal/dto"
	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"go.uber.org/zap"
)

const (
	DEFAULT_TIMEOUT         = 30 * time.Second
	DEFAULT_FEED_LIMIT      = 50
	DEFAULT_FEED_CACHE_TTL  = time.Minute
	DEFAULT_MAX_UPLOAD_SIZE = 10 << 20
)

type Session interface {
	SignIn(ctx context.Context, email string, password string) (*model.Session, error)
	SignUp(ctx context.Context, input dto.SignUpRequest) (*model.Session, error)
	SignInWithFederatedProvider(ctx context.Context, input dto.FederatedSignInRequest) (*model.Session, error)
	SignOut(ctx context.Context) error
	RefreshProfile(ctx context.Context) (*model.Session, error)
	Current() (*model.Session, bool)
	Subscribe(fn func(session *model.Session)) (unsubscribe func())
}

type Feed interface {
	Load(ctx context.Context) ([]model.Post, error)
	Subscribe(ctx context.Context, fn func(posts []model.Post)) error
	Snapshot() []model.Post
	CreatePost(ctx context.Context, caption string, imageURL string, authorID string) (*model.Post, error)
	RemovePost(ctx context.Context, postID string, actorID string) error
	FindAuthorPosts(ctx context.Context, authorID string) ([]model.Post, error)
}

type Post interface {
	Hover(postID string) (model.InteractionState, error)
	Leave(postID string) (model.InteractionState, error)
	RequestDelete(ctx context.Context, postID string, actorID string) (model.InteractionState, error)
	CancelDelete(postID string) (model.InteractionState, error)
	ConfirmDelete(ctx context.Context, postID string, actorID string) error
	State(postID string) model.InteractionState
	Release(postID string)
	Like(ctx context.Context, postID string, userID string) (int64, error)
	Unlike(ctx context.Context, postID string, userID string) (int64, error)
	Comment(ctx context.Context, postID string, authorID string, text string) (*model.Comment, error)
}

type Upload interface {
	Select(ctx context.Context, filename string, r io.Reader) (*model.UploadJob, error)
	Edit(ctx context.Context, jobID string, editor ImageEditor) (*model.UploadJob, error)
	Commit(ctx context.Context, jobID string) (string, error)
	Cancel(jobID string) error
}

type Follow interface {
	Follow(ctx context.Context, followerID string, followeeID string) error
	Unfollow(ctx context.Context, followerID string, followeeID string) error
	IsFollowing(ctx context.Context, followerID string, followeeID string) (bool, error)
}

type Profile interface {
	Create(ctx context.Context, profile model.Profile) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

type Service struct {
	Session Session
	Feed    Feed
	Post    Post
	Upload  Upload
	Follow  Follow
	Profile Profile
}

func New(logger *zap.Logger, repo *repository.Repository, cfg config.SyncConfig, tokenSecret string) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DEFAULT_TIMEOUT
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = DEFAULT_FEED_LIMIT
	}
	if cfg.FeedCacheTTL <= 0 {
		cfg.FeedCacheTTL = DEFAULT_FEED_CACHE_TTL
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DEFAULT_MAX_UPLOAD_SIZE
	}

	validate := newValidator()

	runner := &mutationRunner{
		logger:  logger,
		locks:   newKeyedLocker(),
		timeout: cfg.Timeout,
	}
	backend := &feedBackend{
		logger:  logger,
		repo:    repo,
		state:   newFeedState(),
		limit:   cfg.FeedLimit,
		timeout: cfg.Timeout,
	}

	profiles := newProfileService(logger, repo, cfg.Timeout, time.Hour)
	session := newSessionService(logger, repo, validate, profiles, cfg.Timeout, []byte(tokenSecret))
	feed := newFeedService(backend, runner, validate, session, profiles, cfg.FeedCacheTTL)

	return &Service{
		Session: session,
		Feed:    feed,
		Post:    newPostService(backend, runner, validate, feed),
		Upload:  newUploadService(logger, repo, cfg.Timeout, cfg.MaxUploadSize),
		Follow:  newFollowService(logger, repo, cfg.Timeout),
		Profile: profiles,
	}
}
