package openapi

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Query evaluates a JSONPath expression (for example
// "$.paths['/pets'].get.operationId") against the document and returns the
// matched values as plain maps, slices and scalars.
func (d *Document) Query(expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", expr, err)
	}
	if d == nil || d.root == nil {
		return nil, nil
	}
	return x.Get(plain(d.root)), nil
}
