package persistence

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jDocumentStore is a DocumentStore that keeps each document in a
// (:FlowcraftDocument {key, value}) node.
type Neo4jDocumentStore struct {
	driver neo4j.DriverWithContext
	dbName string
}

var _ DocumentStore = (*Neo4jDocumentStore)(nil)

// NewNeo4jDocumentStore ensures the key constraint exists. dbName defaults to
// "neo4j".
func NewNeo4jDocumentStore(ctx context.Context, driver neo4j.DriverWithContext, dbName string) (*Neo4jDocumentStore, error) {
	if dbName == "" {
		dbName = "neo4j"
	}
	s := &Neo4jDocumentStore{driver: driver, dbName: dbName}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Neo4jDocumentStore) initSchema(ctx context.Context) error {
	_, err := s.run(ctx, `
		CREATE CONSTRAINT flowcraft_document_key IF NOT EXISTS
		FOR (d:FlowcraftDocument) REQUIRE d.key IS UNIQUE`, nil)
	return err
}

func (s *Neo4jDocumentStore) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	result, err := neo4j.ExecuteQuery(
		ctx,
		s.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.dbName),
	)
	if err != nil {
		return nil, fmt.Errorf("neo4j query: %w", err)
	}
	return result, nil
}

func (s *Neo4jDocumentStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.run(ctx, `
		MERGE (d:FlowcraftDocument {key: $key})
		SET d.value = $value, d.updatedAt = timestamp()`,
		map[string]any{"key": key, "value": string(data)},
	)
	return err
}

func (s *Neo4jDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.run(ctx, `
		MATCH (d:FlowcraftDocument {key: $key})
		RETURN d.value AS value`,
		map[string]any{"key": key},
	)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrDocumentNotFound
	}
	raw, ok := result.Records[0].Get("value")
	if !ok {
		return nil, ErrDocumentNotFound
	}
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("neo4j get %q: unexpected value type %T", key, raw)
	}
	return []byte(value), nil
}

func (s *Neo4jDocumentStore) Delete(ctx context.Context, key string) error {
	_, err := s.run(ctx, `
		MATCH (d:FlowcraftDocument {key: $key})
		DELETE d`,
		map[string]any{"key": key},
	)
	return err
}
