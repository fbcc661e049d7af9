package postgres

import (
	"context"
	"strconv"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func newProfileRepo(db *pgxpool.Pool) Profile {
	return &profileRepo{
		db: db,
	}
}

func (r *profileRepo) Create(ctx context.Context, profile model.Profile) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO users(id, email, display_name, avatar_url) VALUES($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		profile.ID,
		profile.Email,
		profile.DisplayName,
		profile.AvatarURL,
	)
	return err
}

func (r *profileRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	allowedFields := []string{"display_name", "avatar_url"}
	allowedFieldsSet := make(map[string]struct{}, len(allowedFields))
	for _, field := range allowedFields {
		allowedFieldsSet[field] = struct{}{}
	}

	for field := range updates {
		if _, ok := allowedFieldsSet[field]; !ok {
			return ErrFieldsNotAllowedToUpdate
		}
	}

	query := "UPDATE users SET "
	args := []interface{}{}
	i := 1

	// iterate allowedFields, not the map, so the statement text is deterministic
	for _, column := range allowedFields {
		value, ok := updates[column]
		if !ok {
			continue
		}
		query += (column + " = $" + strconv.Itoa(i) + ", ")
		args = append(args, value)
		i++
	}

	query = query[:len(query)-2] + " WHERE id = $" + strconv.Itoa(i)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *profileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.QueryRow(
		ctx,
		"SELECT u.id, u.email, u.display_name, u.avatar_url, u.created_at FROM users u WHERE u.id = $1",
		id,
	).Scan(
		&profile.ID,
		&profile.Email,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &profile, nil
}
