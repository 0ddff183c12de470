// Package arazzo projects a pipeline into an Arazzo-shaped workflow
// document with steps keyed by node id.
package arazzo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

const (
	// Version is written to both the envelope and info.version.
	Version = "1.0.0"
	// DefaultTitle is used when the pipeline has no name.
	DefaultTitle = "HTTP Request Pipeline"
)

type StepType string

const (
	StepOperation StepType = "operation"
	StepInput     StepType = "input"
	StepOutput    StepType = "output"
)

var ErrInvalidDocument = errors.New("arazzo: invalid document")

// Document is the exported workflow.
type Document struct {
	Version  string   `json:"version" yaml:"version"`
	Info     Info     `json:"info" yaml:"info"`
	Workflow Workflow `json:"workflow" yaml:"workflow"`
}

type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

// StepMap holds steps keyed by id, in node order.
type StepMap = orderedmap.OrderedMap[string, *Step]

// ParameterMap holds named inputs or outputs, in declaration order.
type ParameterMap = orderedmap.OrderedMap[string, *Parameter]

type Workflow struct {
	ID      string        `json:"id" yaml:"id"`
	Steps   *StepMap      `json:"steps" yaml:"steps"`
	Inputs  *ParameterMap `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs *ParameterMap `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// ValueMap holds step input values by port name.
type ValueMap = orderedmap.OrderedMap[string, any]

type Step struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Type      StepType      `json:"type" yaml:"type"`
	Operation *Operation    `json:"operation,omitempty" yaml:"operation,omitempty"`
	Inputs    *ValueMap     `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs   *ParameterMap `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Next      string        `json:"next,omitempty" yaml:"next,omitempty"`
}

type Operation struct {
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
}

// Parameter describes a step output or a workflow input/output. Required is
// only set on workflow-level entries.
type Parameter struct {
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      TypeSchema `json:"schema" yaml:"schema"`
	Required    *bool      `json:"required,omitempty" yaml:"required,omitempty"`
}

type TypeSchema struct {
	Type string `json:"type" yaml:"type"`
}

// ToJSON renders the document as indented JSON.
func (d *Document) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToYAML renders the document as YAML with keys in document order.
func (d *Document) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("arazzo: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a document back from JSON or YAML and checks its shape.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	var doc Document
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("arazzo: decode json: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("arazzo: decode yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the structural shape only: envelope fields present, known
// step types, and next pointers naming existing steps.
func (d *Document) Validate() error {
	if d.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidDocument)
	}
	if d.Info.Title == "" {
		return fmt.Errorf("%w: missing info.title", ErrInvalidDocument)
	}
	if d.Workflow.Steps == nil {
		return fmt.Errorf("%w: missing workflow.steps", ErrInvalidDocument)
	}
	for pair := d.Workflow.Steps.Oldest(); pair != nil; pair = pair.Next() {
		step := pair.Value
		if step == nil {
			return fmt.Errorf("%w: step %q is empty", ErrInvalidDocument, pair.Key)
		}
		switch step.Type {
		case StepOperation, StepInput, StepOutput:
		default:
			return fmt.Errorf("%w: step %q has unknown type %q", ErrInvalidDocument, pair.Key, step.Type)
		}
		if step.Next != "" {
			if _, ok := d.Workflow.Steps.Get(step.Next); !ok {
				return fmt.Errorf("%w: step %q points at unknown step %q", ErrInvalidDocument, pair.Key, step.Next)
			}
		}
	}
	return nil
}
