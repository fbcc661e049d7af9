package service

import (
	"context"
	"time"

	"github.com/PhotoSocial/feed-client/internal/repository"
	"go.uber.org/zap"
)

type followService struct {
	logger  *zap.Logger
	repo    *repository.Repository
	timeout time.Duration
}

func newFollowService(logger *zap.Logger, repo *repository.Repository, timeout time.Duration) *followService {
	return &followService{
		logger:  logger,
		repo:    repo,
		timeout: timeout,
	}
}

func (s *followService) Follow(ctx context.Context, followerID string, followeeID string) error {
	if err := checkFollowPair(followerID, followeeID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Postgres.Follow.Create(ctx, followerID, followeeID); err != nil {
		s.logger.Sugar().Errorf("failed to create follow of user(%s) by user(%s): %s", followeeID, followerID, err.Error())
		return remoteError(err)
	}

	return nil
}

func (s *followService) Unfollow(ctx context.Context, followerID string, followeeID string) error {
	if err := checkFollowPair(followerID, followeeID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Postgres.Follow.Delete(ctx, followerID, followeeID); err != nil {
		s.logger.Sugar().Errorf("failed to delete follow of user(%s) by user(%s): %s", followeeID, followerID, err.Error())
		return remoteError(err)
	}

	return nil
}

func (s *followService) IsFollowing(ctx context.Context, followerID string, followeeID string) (bool, error) {
	if followerID == "" {
		return false, ErrNotSignedIn
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	following, err := s.repo.Postgres.Follow.Exists(ctx, followerID, followeeID)
	if err != nil {
		s.logger.Sugar().Errorf("failed to check follow of user(%s) by user(%s): %s", followeeID, followerID, err.Error())
		return false, remoteError(err)
	}

	return following, nil
}

func checkFollowPair(followerID string, followeeID string) error {
	if followerID == "" {
		return ErrNotSignedIn
	}
	if followeeID == "" {
		return &ValidationError{Field: "user_id", Message: "must not be empty"}
	}
	if followerID == followeeID {
		return ErrSelfFollow
	}
	return nil
}
