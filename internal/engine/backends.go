package engine

import (
	"context"
	"database/sql"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/pkg/api"
)

// The constructors below open a session hydrated from the given backend.
// cfg.Gateway is overwritten.

func NewSQLiteEditor(ctx context.Context, db *sql.DB, cfg Config) (api.Editor, error) {
	store, err := persistence.NewSQLiteDocumentStore(db)
	if err != nil {
		return nil, err
	}
	cfg.Gateway = persistence.NewGateway(store)
	return Open(ctx, cfg)
}

func NewPostgresEditor(ctx context.Context, db *sql.DB, cfg Config) (api.Editor, error) {
	store, err := persistence.NewPostgresDocumentStore(db)
	if err != nil {
		return nil, err
	}
	cfg.Gateway = persistence.NewGateway(store)
	return Open(ctx, cfg)
}

// NewRedisEditor keeps documents under prefix (persistence.DefaultRedisPrefix
// when empty).
func NewRedisEditor(ctx context.Context, client *redis.Client, prefix string, cfg Config) (api.Editor, error) {
	cfg.Gateway = persistence.NewGateway(persistence.NewRedisDocumentStore(client, prefix))
	return Open(ctx, cfg)
}

func NewMongoEditor(ctx context.Context, client *mongo.Client, dbName string, cfg Config) (api.Editor, error) {
	cfg.Gateway = persistence.NewGateway(persistence.NewMongoDocumentStore(client, dbName, ""))
	return Open(ctx, cfg)
}

func NewNeo4jEditor(ctx context.Context, driver neo4j.DriverWithContext, dbName string, cfg Config) (api.Editor, error) {
	store, err := persistence.NewNeo4jDocumentStore(ctx, driver, dbName)
	if err != nil {
		return nil, err
	}
	cfg.Gateway = persistence.NewGateway(store)
	return Open(ctx, cfg)
}
