package service

import (
	"context"
	"errors"
	"time"

	"github.com/PhotoSocial/feed-client/internal/model"
	"github.com/PhotoSocial/feed-client/internal/repository"
	"github.com/PhotoSocial/feed-client/internal/repository/postgres"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type profileService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	timeout  time.Duration
	cacheTTL time.Duration
}

func newProfileService(logger *zap.Logger, repo *repository.Repository, timeout time.Duration, cacheTTL time.Duration) *profileService {
	return &profileService{
		logger:   logger,
		repo:     repo,
		timeout:  timeout,
		cacheTTL: cacheTTL,
	}
}

func (s *profileService) Create(ctx context.Context, profile model.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Postgres.Profile.Create(ctx, profile); err != nil {
		s.logger.Sugar().Errorf("failed to create profile(%s): %s", profile.ID, err.Error())
		return remoteError(err)
	}

	return nil
}

func (s *profileService) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Postgres.Profile.Update(ctx, id, updates); err != nil {
		if errors.Is(err, postgres.ErrFieldsNotAllowedToUpdate) {
			return &ValidationError{Field: "profile", Message: err.Error()}
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		s.logger.Sugar().Errorf("failed to update profile(%s): %s", id, err.Error())
		return remoteError(err)
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.ProfileKey(id)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete profile(%s) from redis: %s", id, err.Error())
	}

	return nil
}

func (s *profileService) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cachedProfile, err := redisrepo.Get[model.Profile](s.repo.Redis.Default, ctx, redisrepo.ProfileKey(id))
	if err == nil && cachedProfile != nil {
		return cachedProfile, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get profile(%s) from redis: %s", id, err.Error())
	}

	profile, err := s.repo.Postgres.Profile.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		s.logger.Sugar().Errorf("failed to get profile(%s) from postgres: %s", id, err.Error())
		return nil, remoteError(err)
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.ProfileKey(id), profile, s.cacheTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set profile(%s) in redis: %s", id, err.Error())
	}

	return profile, nil
}
