package postgres

import (
	"context"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postColumns = `p.id, p.author_id, p.author_name, p.caption, p.image_url, p.created_at,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count`

type postRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func newPostRepo(db *pgxpool.Pool, logger *zap.Logger) Post {
	return &postRepo{
		db:     db,
		logger: logger,
	}
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	post.LikeCount = 0
	post.Comments = []model.Comment{}
	post.Pending = false
	if err := r.db.QueryRow(
		ctx,
		"INSERT INTO posts(author_id, author_name, caption, image_url) VALUES($1, $2, $3, $4) RETURNING id, created_at",
		post.AuthorID,
		post.AuthorName,
		post.Caption,
		post.ImageURL,
	).Scan(&post.ID, &post.CreatedAt); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.QueryRow(
		ctx,
		"SELECT "+postColumns+" FROM posts p WHERE p.id = $1",
		id,
	).Scan(
		&post.ID,
		&post.AuthorID,
		&post.AuthorName,
		&post.Caption,
		&post.ImageURL,
		&post.CreatedAt,
		&post.LikeCount,
	); err != nil {
		return nil, err
	}

	posts := []*model.Post{&post}
	if err := attachComments(ctx, r.db, posts); err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) FindFeed(ctx context.Context, limit int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		"SELECT "+postColumns+" FROM posts p ORDER BY p.created_at DESC, p.id ASC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	if err := attachComments(ctx, r.db, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepo) FindAuthorPosts(ctx context.Context, authorID string, limit int) ([]*model.Post, error) {
	maxLimit(&limit)

	rows, err := r.db.Query(
		ctx,
		"SELECT "+postColumns+" FROM posts p WHERE p.author_id = $1 ORDER BY p.created_at DESC, p.id ASC LIMIT $2",
		authorID,
		limit,
	)
	if err != nil {
		return nil, err
	}

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	if err := attachComments(ctx, r.db, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// Delete removes the post together with its likes and comments. It returns pgx.ErrNoRows when the post does not exist.
func (r *postRepo) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		likes, err := tx.Exec(ctx, "DELETE FROM likes WHERE post_id = $1", id)
		if err != nil {
			return err
		}

		comments, err := tx.Exec(ctx, "DELETE FROM comments WHERE post_id = $1", id)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		r.logger.Sugar().Debugf("deleted post(%s) with %d likes and %d comments", id, likes.RowsAffected(), comments.RowsAffected())
		return nil
	})
}

func scanPosts(rows pgx.Rows) ([]*model.Post, error) {
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.AuthorName,
			&post.Caption,
			&post.ImageURL,
			&post.CreatedAt,
			&post.LikeCount,
		); err != nil {
			return nil, err
		}
		post.Comments = []model.Comment{}

		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
