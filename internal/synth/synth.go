package synth

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

// DefaultPosition is where freshly synthesized nodes are placed.
var DefaultPosition = api.Position{X: 100, Y: 100}

// Synthesizer turns operation descriptors and pipeline IO declarations into
// graph nodes with typed ports.
type Synthesizer struct {
	Logger *slog.Logger
	NewID  func() string
}

// New returns a Synthesizer that logs reference failures to logger
// (slog.Default() when nil) and mints ids with uuid.NewString.
func New(logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{Logger: logger, NewID: uuid.NewString}
}

func (s *Synthesizer) id() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

// CallNode builds a call node for endpoint. doc is the owning service's
// description and is used to resolve references; properties whose
// references cannot be resolved are left out.
func (s *Synthesizer) CallNode(endpoint api.OperationDescriptor, doc *openapi.Document) api.Node {
	node := api.Node{
		ID:       s.id(),
		Kind:     api.NodeCall,
		Position: DefaultPosition,
		Label:    strings.ToUpper(endpoint.Method) + " " + endpoint.Path,
		Endpoint: endpoint.Clone(),
		Inputs:   []api.InputPort{},
		Outputs:  []api.OutputGroup{},
	}

	for _, p := range endpoint.Parameters {
		loc := api.Location(p.In)
		if loc != api.LocationPath && loc != api.LocationQuery && loc != api.LocationHeader {
			continue
		}
		node.Inputs = append(node.Inputs, api.InputPort{
			ID:       s.id(),
			Name:     p.Name,
			Type:     s.propertyType(p.Schema, doc),
			Required: p.Required,
			Location: loc,
		})
	}
	node.Inputs = append(node.Inputs, s.bodyInputs(endpoint, doc)...)

	if endpoint.Responses != nil {
		for pair := endpoint.Responses.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil {
				continue
			}
			schema := openapi.JSONSchema(pair.Value.Content)
			if schema == nil {
				continue
			}
			items := s.outputPorts(schema, doc)
			if len(items) == 0 {
				continue
			}
			node.Outputs = append(node.Outputs, api.OutputGroup{StatusCode: pair.Key, Items: items})
		}
	}
	return node
}

func (s *Synthesizer) bodyInputs(endpoint api.OperationDescriptor, doc *openapi.Document) []api.InputPort {
	if endpoint.RequestBody == nil {
		return nil
	}
	schema, err := openapi.ResolveSchema(openapi.JSONSchema(endpoint.RequestBody.Content), doc)
	if err != nil {
		s.Logger.Warn("request_schema_unresolved",
			slog.String("path", endpoint.Path),
			slog.String("method", endpoint.Method),
			slog.Any("error", err),
		)
		return nil
	}
	if openapi.Classify(schema) != openapi.KindObject {
		return nil
	}

	var out []api.InputPort
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, api.InputPort{
			ID:       s.id(),
			Name:     pair.Key,
			Type:     s.propertyType(pair.Value, doc),
			Required: schema.IsRequired(pair.Key),
			Location: api.LocationBody,
		})
	}
	return out
}

// outputPorts derives the ports of one response schema.
func (s *Synthesizer) outputPorts(schema *openapi.Schema, doc *openapi.Document) []api.OutputPort {
	resolved, err := openapi.ResolveSchema(schema, doc)
	if err != nil {
		s.Logger.Warn("response_schema_unresolved", slog.Any("error", err))
		return nil
	}

	switch openapi.Classify(resolved) {
	case openapi.KindObject:
		var out []api.OutputPort
		for pair := resolved.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop, err := openapi.ResolveSchema(pair.Value, doc)
			if err != nil {
				s.Logger.Warn("property_schema_unresolved",
					slog.String("property", pair.Key),
					slog.Any("error", err),
				)
				continue
			}
			out = append(out, api.OutputPort{
				ID:     s.id(),
				Name:   pair.Key,
				Type:   prop.TypeOr("string"),
				Schema: prop.Clone(),
				Path:   []string{pair.Key},
			})
		}
		return out
	case openapi.KindArray:
		arr := resolved.Clone()
		if arr.Items.Ref != "" {
			items, err := openapi.Resolve(arr.Items.Ref, doc)
			if err != nil {
				s.Logger.Warn("array_items_unresolved", slog.Any("error", err))
			} else {
				arr.Items = items
			}
		}
		return []api.OutputPort{{
			ID:     s.id(),
			Name:   "items",
			Type:   "array",
			Schema: arr,
			Path:   []string{"items"},
		}}
	case openapi.KindPrimitive:
		return []api.OutputPort{{
			ID:     s.id(),
			Name:   "response",
			Type:   string(resolved.Type),
			Schema: resolved.Clone(),
			Path:   []string{},
		}}
	}
	return nil
}

// propertyType reads a port type, looking through a reference when one can
// be resolved.
func (s *Synthesizer) propertyType(schema *openapi.Schema, doc *openapi.Document) string {
	resolved, err := openapi.ResolveSchema(schema, doc)
	if err != nil {
		return "string"
	}
	return resolved.TypeOr("string")
}

// InputNode builds the node standing for a pipeline input: no inputs and a
// single output named after the declaration.
func (s *Synthesizer) InputNode(io api.PipelineIO) api.Node {
	return api.Node{
		ID:           s.id(),
		Kind:         api.NodePipelineInput,
		Position:     DefaultPosition,
		Label:        io.Name,
		PipelineIOID: io.ID,
		Inputs:       []api.InputPort{},
		Outputs: []api.OutputGroup{{
			StatusCode: "input",
			Items: []api.OutputPort{{
				ID:   s.id(),
				Name: io.Name,
				Type: ioType(io),
				Path: []string{},
			}},
		}},
	}
}

// OutputNode builds the node standing for a pipeline output: a single input
// named after the declaration and no outputs.
func (s *Synthesizer) OutputNode(io api.PipelineIO) api.Node {
	return api.Node{
		ID:           s.id(),
		Kind:         api.NodePipelineOutput,
		Position:     DefaultPosition,
		Label:        io.Name,
		PipelineIOID: io.ID,
		Inputs: []api.InputPort{{
			ID:   s.id(),
			Name: io.Name,
			Type: ioType(io),
		}},
		Outputs: []api.OutputGroup{},
	}
}

func ioType(io api.PipelineIO) string {
	if io.Type == "" {
		return "string"
	}
	return io.Type
}
