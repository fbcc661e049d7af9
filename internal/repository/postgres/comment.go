package postgres

import (
	"context"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type commentRepo struct {
	db *pgxpool.Pool
}

func newCommentRepo(db *pgxpool.Pool) Comment {
	return &commentRepo{
		db: db,
	}
}

// Create stores the comment under its client-generated id; created_at is assigned by the database.
func (r *commentRepo) Create(ctx context.Context, comment model.Comment) (*model.Comment, error) {
	if err := r.db.QueryRow(
		ctx,
		"INSERT INTO comments(id, post_id, author_id, text) VALUES($1, $2, $3, $4) RETURNING created_at",
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Text,
	).Scan(&comment.CreatedAt); err != nil {
		return nil, err
	}

	return &comment, nil
}

// attachComments loads the comments of all posts in one query, newest first.
func attachComments(ctx context.Context, db *pgxpool.Pool, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	byID := make(map[string]*model.Post, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
		byID[post.ID] = post
		if post.Comments == nil {
			post.Comments = []model.Comment{}
		}
	}

	rows, err := db.Query(
		ctx,
		`SELECT c.id, c.post_id, c.author_id, c.text, c.created_at
		FROM comments c
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at DESC, c.id ASC`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var comment model.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Text,
			&comment.CreatedAt,
		); err != nil {
			return err
		}

		if post, ok := byID[comment.PostID]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}

	return rows.Err()
}
