// Package mcpserver exposes an editing session over the Model Context
// Protocol so agents can assemble pipelines.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/petrijr/flowcraft/internal/engine"
	"github.com/petrijr/flowcraft/internal/splitter"
	"github.com/petrijr/flowcraft/pkg/api"
)

const pipelineURI = "flowcraft://pipeline"

// Server adapts an api.Editor to MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	editor    api.Editor
	logger    *slog.Logger
}

func New(editor api.Editor, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer("flowcraft", version),
		editor:    editor,
		logger:    logger,
	}
	s.registerResources()
	s.registerTools()
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		pipelineURI,
		"Current pipeline",
		mcp.WithResourceDescription("Nodes, edges and declarations of the pipeline being edited"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadPipeline)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_service",
		mcp.WithDescription("Register an OpenAPI 3 description from a file"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the service")),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to a JSON or YAML description")),
		mcp.WithString("description", mcp.Description("Free-form notes")),
	), s.handleAddService)

	s.mcpServer.AddTool(mcp.NewTool(
		"list_services",
		mcp.WithDescription("List registered services"),
	), s.handleListServices)

	s.mcpServer.AddTool(mcp.NewTool(
		"list_endpoints",
		mcp.WithDescription("List the operations of a service"),
		mcp.WithString("service_id", mcp.Required()),
	), s.handleListEndpoints)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_call_node",
		mcp.WithDescription("Add a node calling an operation"),
		mcp.WithString("service_id", mcp.Required()),
		mcp.WithString("operation", mcp.Required(), mcp.Description("operationId or 'METHOD /path'")),
	), s.handleAddCallNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"list_nodes",
		mcp.WithDescription("List nodes with their port ids"),
	), s.handleListNodes)

	s.mcpServer.AddTool(mcp.NewTool(
		"remove_node",
		mcp.WithDescription("Remove a node and its edges"),
		mcp.WithString("node_id", mcp.Required()),
	), s.handleRemoveNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"connect",
		mcp.WithDescription("Wire an output port to an input port"),
		mcp.WithString("source_node_id", mcp.Required()),
		mcp.WithString("source_port_id", mcp.Required()),
		mcp.WithString("target_node_id", mcp.Required()),
		mcp.WithString("target_port_id", mcp.Required()),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool(
		"disconnect",
		mcp.WithDescription("Remove an edge"),
		mcp.WithString("edge_id", mcp.Required()),
	), s.handleDisconnect)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_input",
		mcp.WithDescription("Set the literal value of an unconnected input port"),
		mcp.WithString("node_id", mcp.Required()),
		mcp.WithString("port_id", mcp.Required()),
		mcp.WithString("value", mcp.Required()),
	), s.handleSetInput)

	s.mcpServer.AddTool(mcp.NewTool(
		"split_output",
		mcp.WithDescription("Expose sub-fields of an output port as ports of their own"),
		mcp.WithString("node_id", mcp.Required()),
		mcp.WithString("port_id", mcp.Required()),
		mcp.WithString("paths", mcp.Required(), mcp.Description("Comma separated dotted paths relative to the port")),
		mcp.WithString("prefix", mcp.Description("Prefix for the new port names")),
	), s.handleSplitOutput)

	s.mcpServer.AddTool(mcp.NewTool(
		"promote_output",
		mcp.WithDescription("Declare a pipeline output typed after an output port"),
		mcp.WithString("node_id", mcp.Required()),
		mcp.WithString("port_id", mcp.Required()),
		mcp.WithString("name", mcp.Description("Declaration name; defaults to the port name")),
	), s.handlePromoteOutput)

	s.mcpServer.AddTool(mcp.NewTool(
		"export_workflow",
		mcp.WithDescription("Render the pipeline as an Arazzo workflow document"),
		mcp.WithString("format", mcp.Description("json (default) or yaml")),
	), s.handleExportWorkflow)

	s.mcpServer.AddTool(mcp.NewTool(
		"save_pipeline",
		mcp.WithDescription("Persist a snapshot of the pipeline"),
		mcp.WithString("name", mcp.Description("Optional new pipeline name")),
	), s.handleSavePipeline)
}

// --- Handlers ---

func (s *Server) handleReadPipeline(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.editor.Pipeline(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAddService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := mcp.ParseString(request, "file", "")
	data, err := os.ReadFile(file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", file, err)), nil
	}
	svc, err := s.editor.AddService(ctx, mcp.ParseString(request, "name", ""), mcp.ParseString(request, "description", ""), data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("service_added", slog.String("service_id", svc.ID), slog.String("name", svc.Name))
	return mcp.NewToolResultText(fmt.Sprintf("Registered %s as %s", svc.Name, svc.ID)), nil
}

type serviceSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services := s.editor.Services()
	out := make([]serviceSummary, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceSummary{
			ID:          svc.ID,
			Name:        svc.Name,
			Description: svc.Description,
			Title:       svc.Document.Title(),
		})
	}
	return jsonResult(out)
}

type endpointSummary struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	OperationID string `json:"operationId,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

func (s *Server) handleListEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eps, err := s.editor.Endpoints(mcp.ParseString(request, "service_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]endpointSummary, 0, len(eps))
	for _, ep := range eps {
		out = append(out, endpointSummary{Method: ep.Method, Path: ep.Path, OperationID: ep.OperationID, Summary: ep.Summary})
	}
	return jsonResult(out)
}

func (s *Server) handleAddCallNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ep, err := engine.FindEndpoint(s.editor, mcp.ParseString(request, "service_id", ""), mcp.ParseString(request, "operation", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.editor.AddCallNode(ep)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes := s.editor.Nodes()
	// Schemas are bulky and agents wire by id, so drop them.
	for i := range nodes {
		for g := range nodes[i].Outputs {
			for k := range nodes[i].Outputs[g].Items {
				nodes[i].Outputs[g].Items[k].Schema = nil
			}
		}
		nodes[i].Endpoint = nil
	}
	return jsonResult(nodes)
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "node_id", "")
	if !s.editor.RemoveNode(id) {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", api.ErrNodeNotFound, id)), nil
	}
	return mcp.NewToolResultText("Removed " + id), nil
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edge, err := s.editor.AddEdge(
		mcp.ParseString(request, "source_node_id", ""),
		mcp.ParseString(request, "target_node_id", ""),
		mcp.ParseString(request, "source_port_id", ""),
		mcp.ParseString(request, "target_port_id", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Connected as " + edge.ID), nil
}

func (s *Server) handleDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(request, "edge_id", "")
	if !s.editor.RemoveEdge(id) {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", api.ErrEdgeNotFound, id)), nil
	}
	return mcp.NewToolResultText("Removed " + id), nil
}

func (s *Server) handleSetInput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	portID := mcp.ParseString(request, "port_id", "")
	err := s.editor.StageInputValue(mcp.ParseString(request, "node_id", ""), portID, mcp.ParseString(request, "value", ""))
	if err == nil {
		err = s.editor.CommitDraft(portID)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Set " + portID), nil
}

func (s *Server) handleSplitOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := mcp.ParseString(request, "node_id", "")
	portID := mcp.ParseString(request, "port_id", "")
	n, ok := s.editor.Node(nodeID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", api.ErrNodeNotFound, nodeID)), nil
	}
	g, i, ok := engine.OutputIndex(n, portID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", api.ErrPortNotFound, portID)), nil
	}
	updated, err := s.editor.SplitOutput(nodeID, g, i, splitter.ParsePaths(mcp.ParseString(request, "paths", "")), mcp.ParseString(request, "prefix", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(updated.Outputs[g].Items)
}

func (s *Server) handlePromoteOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	io, err := s.editor.PromoteOutputToPipelineOutput(
		mcp.ParseString(request, "node_id", ""),
		mcp.ParseString(request, "port_id", ""),
		mcp.ParseString(request, "name", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(io)
}

func (s *Server) handleExportWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := engine.Export(s.editor)
	var (
		data []byte
		err  error
	)
	switch format := mcp.ParseString(request, "format", "json"); format {
	case "json":
		data, err = doc.ToJSON()
	case "yaml":
		data, err = doc.ToYAML()
	default:
		return mcp.NewToolResultError("unsupported format: " + format), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSavePipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.editor.Save(ctx, mcp.ParseString(request, "name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %q at %s", p.Name, p.SavedAt.Format("2006-01-02T15:04:05Z07:00"))), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
