package synth

import (
	"log/slog"

	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

// Extract flattens a description into operation descriptors: paths in
// document order, methods in openapi.Methods order.
//
// Path-level parameters are inherited unless the operation redefines the
// same (name, in) pair. Parameter, request body and response references are
// resolved; ones that cannot be resolved are dropped and logged.
func Extract(serviceID string, doc *openapi.Document, logger *slog.Logger) []api.OperationDescriptor {
	if logger == nil {
		logger = slog.Default()
	}
	if doc == nil || doc.Paths == nil {
		return nil
	}

	var out []api.OperationDescriptor
	for pair := doc.Paths.Oldest(); pair != nil; pair = pair.Next() {
		path, item := pair.Key, pair.Value
		if item == nil {
			continue
		}
		shared := resolveParameters(path, item.Parameters, doc, logger)

		for _, method := range openapi.Methods {
			op := item.Operation(method)
			if op == nil {
				continue
			}
			desc := api.OperationDescriptor{
				ServiceID:   serviceID,
				Path:        path,
				Method:      method,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Description: op.Description,
				Parameters:  mergeParameters(resolveParameters(path, op.Parameters, doc, logger), shared),
				Responses:   resolveResponses(path, op.Responses, doc, logger),
			}
			if op.RequestBody != nil {
				body, err := openapi.ResolveRequestBody(op.RequestBody, doc)
				if err != nil {
					logger.Warn("request_body_unresolved",
						slog.String("path", path),
						slog.String("method", method),
						slog.Any("error", err),
					)
				} else {
					desc.RequestBody = body.Clone()
				}
			}
			out = append(out, desc)
		}
	}
	return out
}

func resolveParameters(path string, params []*openapi.Parameter, doc *openapi.Document, logger *slog.Logger) []openapi.Parameter {
	out := make([]openapi.Parameter, 0, len(params))
	for _, p := range params {
		resolved, err := openapi.ResolveParameter(p, doc)
		if err != nil {
			logger.Warn("parameter_unresolved",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}
		if resolved == nil {
			continue
		}
		out = append(out, *resolved.Clone())
	}
	return out
}

func mergeParameters(own, shared []openapi.Parameter) []openapi.Parameter {
	type key struct{ name, in string }
	seen := make(map[key]struct{}, len(own))
	for _, p := range own {
		seen[key{p.Name, p.In}] = struct{}{}
	}
	for _, p := range shared {
		if _, dup := seen[key{p.Name, p.In}]; !dup {
			own = append(own, p)
		}
	}
	if len(own) == 0 {
		return nil
	}
	return own
}

func resolveResponses(path string, responses *openapi.ResponseMap, doc *openapi.Document, logger *slog.Logger) *openapi.ResponseMap {
	if responses == nil {
		return nil
	}
	out := openapi.CloneResponses(responses)
	var dropped []string
	for pair := out.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil || pair.Value.Ref == "" {
			continue
		}
		resolved, err := openapi.ResolveResponse(pair.Value, doc)
		if err != nil {
			logger.Warn("response_unresolved",
				slog.String("path", path),
				slog.String("status", pair.Key),
				slog.Any("error", err),
			)
			dropped = append(dropped, pair.Key)
			continue
		}
		pair.Value = resolved
	}
	for _, code := range dropped {
		out.Delete(code)
	}
	return out
}
