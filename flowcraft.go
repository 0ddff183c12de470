package flowcraft

import (
	"context"
	"database/sql"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowcraft/internal/arazzo"
	"github.com/petrijr/flowcraft/internal/engine"
	"github.com/petrijr/flowcraft/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Editor               = api.Editor
	Node                 = api.Node
	NodeKind             = api.NodeKind
	NodePatch            = api.NodePatch
	Position             = api.Position
	InputPort            = api.InputPort
	OutputPort           = api.OutputPort
	OutputGroup          = api.OutputGroup
	Edge                 = api.Edge
	Pipeline             = api.Pipeline
	PipelineIO           = api.PipelineIO
	Draft                = api.Draft
	ServiceDescriptor    = api.ServiceDescriptor
	OperationDescriptor  = api.OperationDescriptor
	EdgeRejectedError    = api.EdgeRejectedError
	ValidationError      = api.ValidationError
	EditorEvent          = api.EditorEvent
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	// EditorConfig tunes a session: persistence, observer, validation,
	// autosave and id generation.
	EditorConfig = engine.Config

	WorkflowDocument = arazzo.Document
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

const (
	NodeCall           = api.NodeCall
	NodePipelineInput  = api.NodePipelineInput
	NodePipelineOutput = api.NodePipelineOutput
)

var (
	ErrNodeNotFound       = api.ErrNodeNotFound
	ErrPortNotFound       = api.ErrPortNotFound
	ErrServiceNotFound    = api.ErrServiceNotFound
	ErrEndpointNotFound   = api.ErrEndpointNotFound
	ErrPipelineIONotFound = api.ErrPipelineIONotFound
	ErrIncompatibleTypes  = api.ErrIncompatibleTypes
	ErrPortConnected      = api.ErrPortConnected
)

// Editor constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEditor returns an Editor whose state lives only in memory.
func NewInMemoryEditor() Editor {
	return engine.NewInMemoryEditor()
}

func NewInMemoryEditorWithObserver(obs Observer) Editor {
	return engine.NewInMemoryEditorWithObserver(obs)
}

// Open returns a session hydrated from cfg.Gateway.
func Open(ctx context.Context, cfg EditorConfig) (Editor, error) {
	return engine.Open(ctx, cfg)
}

// NewSQLiteEditor opens a session whose pipeline and service registry are
// stored in db. The schema is created when missing.
func NewSQLiteEditor(ctx context.Context, db *sql.DB, cfg EditorConfig) (Editor, error) {
	return engine.NewSQLiteEditor(ctx, db, cfg)
}

func NewPostgresEditor(ctx context.Context, db *sql.DB, cfg EditorConfig) (Editor, error) {
	return engine.NewPostgresEditor(ctx, db, cfg)
}

func NewRedisEditor(ctx context.Context, client *redis.Client, prefix string, cfg EditorConfig) (Editor, error) {
	return engine.NewRedisEditor(ctx, client, prefix, cfg)
}

func NewMongoEditor(ctx context.Context, client *mongo.Client, dbName string, cfg EditorConfig) (Editor, error) {
	return engine.NewMongoEditor(ctx, client, dbName, cfg)
}

func NewNeo4jEditor(ctx context.Context, driver neo4j.DriverWithContext, dbName string, cfg EditorConfig) (Editor, error) {
	return engine.NewNeo4jEditor(ctx, driver, dbName, cfg)
}

// Convenience wrappers around Editor methods.

// FindEndpoint looks an operation up by operationId or "METHOD /path".
func FindEndpoint(ed Editor, serviceID, ref string) (OperationDescriptor, error) {
	return engine.FindEndpoint(ed, serviceID, ref)
}

// Export projects the editor's current pipeline into a workflow document.
func Export(ed Editor) *WorkflowDocument {
	return engine.Export(ed)
}

func ExportJSON(ed Editor) ([]byte, error) {
	return engine.Export(ed).ToJSON()
}

func ExportYAML(ed Editor) ([]byte, error) {
	return engine.Export(ed).ToYAML()
}

// DecodeWorkflow parses an exported document, JSON or YAML.
func DecodeWorkflow(data []byte) (*WorkflowDocument, error) {
	return arazzo.Decode(data)
}
