package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/petrijr/flowcraft"
	"github.com/petrijr/flowcraft/internal/config"
	"github.com/petrijr/flowcraft/internal/metrics"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

func (a *app) editorConfig() flowcraft.EditorConfig {
	ecfg := flowcraft.EditorConfig{
		Observer:     flowcraft.NewCompositeObserver(flowcraft.NewLoggingObserver(a.logger), metrics.Observer{}),
		Logger:       a.logger,
		AutoSave:     a.cfg.AutoSave,
		FlushTimeout: a.cfg.FlushTimeout,
	}
	if a.cfg.SkipValidation {
		ecfg.Validator = openapi.NopValidator{}
	}
	return ecfg
}

// open connects to the configured backend and hydrates the editor from it.
func (a *app) open(ctx context.Context) error {
	ecfg := a.editorConfig()
	dsn := a.cfg.DSN

	switch a.cfg.Backend {
	case config.BackendMemory:
		ed, err := flowcraft.Open(ctx, ecfg)
		if err != nil {
			return err
		}
		a.editor = ed

	case config.BackendSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		a.closers = append(a.closers, db.Close)

		bundle, err := flowcraft.NewSQLiteBundle(ctx, db, ecfg)
		if err != nil {
			return err
		}
		a.editor = bundle.Editor
		a.history = bundle.History

	case config.BackendPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		ed, err := flowcraft.NewPostgresEditor(ctx, db, ecfg)
		if err != nil {
			return err
		}
		a.editor = ed

	case config.BackendRedis:
		opts := &redis.Options{Addr: dsn}
		if strings.Contains(dsn, "://") {
			parsed, err := redis.ParseURL(dsn)
			if err != nil {
				return fmt.Errorf("parse redis url: %w", err)
			}
			opts = parsed
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		ed, err := flowcraft.NewRedisEditor(ctx, client, a.cfg.RedisPrefix, ecfg)
		if err != nil {
			return err
		}
		a.editor = ed

	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		ed, err := flowcraft.NewMongoEditor(ctx, client, a.cfg.Database, ecfg)
		if err != nil {
			return err
		}
		a.editor = ed

	case config.BackendNeo4j:
		driver, err := neo4j.NewDriverWithContext(dsn, neo4j.BasicAuth(a.cfg.Username, a.cfg.Password, ""))
		if err != nil {
			return fmt.Errorf("open neo4j: %w", err)
		}
		a.closers = append(a.closers, func() error { return driver.Close(context.Background()) })
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("verify neo4j: %w", err)
		}
		ed, err := flowcraft.NewNeo4jEditor(ctx, driver, a.cfg.Database, ecfg)
		if err != nil {
			return err
		}
		a.editor = ed

	default:
		return fmt.Errorf("unsupported backend: %s", a.cfg.Backend)
	}
	return nil
}
