package openapi

import (
	"context"
	"errors"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator checks a raw API description before it is accepted.
type Validator interface {
	Validate(ctx context.Context, data []byte) error
}

// ValidationError carries the validator's messages. The description is not
// registered when one is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "openapi: invalid description"
	}
	return "openapi: invalid description: " + strings.Join(e.Messages, "; ")
}

// KinValidator validates descriptions with kin-openapi. External references
// are refused; only self-contained descriptions are supported.
type KinValidator struct{}

var _ Validator = KinValidator{}

func (KinValidator) Validate(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return &ValidationError{Messages: flatten(err)}
	}
	if err := doc.Validate(ctx); err != nil {
		return &ValidationError{Messages: flatten(err)}
	}
	return nil
}

func flatten(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		out := make([]string, 0, len(multi))
		for _, e := range multi {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// NopValidator accepts everything.
type NopValidator struct{}

func (NopValidator) Validate(context.Context, []byte) error { return nil }

// Load validates data with v (KinValidator when nil) and parses it.
func Load(ctx context.Context, data []byte, v Validator) (*Document, error) {
	if v == nil {
		v = KinValidator{}
	}
	if err := v.Validate(ctx, data); err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &ValidationError{Messages: []string{err.Error()}}
	}
	return doc, nil
}
