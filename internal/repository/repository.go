package repository

import (
	"github.com/PhotoSocial/feed-client/internal/repository/blob"
	"github.com/PhotoSocial/feed-client/internal/repository/events"
	"github.com/PhotoSocial/feed-client/internal/repository/identity"
	"github.com/PhotoSocial/feed-client/internal/repository/postgres"
	"github.com/PhotoSocial/feed-client/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	Postgres *postgres.PostgresRepository
	Redis    *redisrepo.RedisRepository
	Identity identity.Identity
	Blob     blob.Store
	Events   events.Events
}

func New(db *pgxpool.Pool, rdb *redis.Client, identityClient identity.Identity, blobStore blob.Store, eventBus events.Events, logger *zap.Logger) *Repository {
	return &Repository{
		Postgres: postgres.New(db, logger),
		Redis:    redisrepo.New(rdb),
		Identity: identityClient,
		Blob:     blobStore,
		Events:   eventBus,
	}
}
