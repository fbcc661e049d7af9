package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type likeRepo struct {
	db *pgxpool.Pool
}

func newLikeRepo(db *pgxpool.Pool) Like {
	return &likeRepo{
		db: db,
	}
}

// Create reports false when the user already liked the post.
func (r *likeRepo) Create(ctx context.Context, postID string, userID string) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		"INSERT INTO likes(post_id, user_id) VALUES($1, $2) ON CONFLICT (post_id, user_id) DO NOTHING",
		postID,
		userID,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *likeRepo) Delete(ctx context.Context, postID string, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM likes WHERE post_id = $1 AND user_id = $2", postID, userID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *likeRepo) Exists(ctx context.Context, postID string, userID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(
		ctx,
		"SELECT EXISTS(SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)",
		postID,
		userID,
	).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *likeRepo) Count(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM likes WHERE post_id = $1", postID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
