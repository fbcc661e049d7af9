package postgres

import (
	"context"
	"errors"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const MAX_LIMIT = 100

var ErrFieldsNotAllowedToUpdate = errors.New("fields not allowed to update")

func maxLimit(limit *int) {
	if *limit <= 0 || *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	FindFeed(ctx context.Context, limit int) ([]*model.Post, error)
	FindAuthorPosts(ctx context.Context, authorID string, limit int) ([]*model.Post, error)
	Delete(ctx context.Context, id string) error
}

type Comment interface {
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
}

type Like interface {
	Create(ctx context.Context, postID string, userID string) (bool, error)
	Delete(ctx context.Context, postID string, userID string) (bool, error)
	Exists(ctx context.Context, postID string, userID string) (bool, error)
	Count(ctx context.Context, postID string) (int64, error)
}

type Follow interface {
	Create(ctx context.Context, followerID string, followeeID string) error
	Delete(ctx context.Context, followerID string, followeeID string) error
	Exists(ctx context.Context, followerID string, followeeID string) (bool, error)
}

type Profile interface {
	Create(ctx context.Context, profile model.Profile) error
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	FindByID(ctx context.Context, id string) (*model.Profile, error)
}

type PostgresRepository struct {
	Post
	Comment
	Like
	Follow
	Profile
}

func New(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		Post:    newPostRepo(db, logger),
		Comment: newCommentRepo(db),
		Like:    newLikeRepo(db),
		Follow:  newFollowRepo(db),
		Profile: newProfileRepo(db),
	}
}
