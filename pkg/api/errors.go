package api

import (
	"errors"
	"fmt"

	"github.com/petrijr/flowcraft/pkg/openapi"
)

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrPortNotFound        = errors.New("port not found")
	ErrEdgeNotFound        = errors.New("edge not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrEndpointNotFound    = errors.New("endpoint not found")
	ErrPipelineIONotFound  = errors.New("pipeline input/output not found")
	ErrIncompatibleTypes   = errors.New("incompatible port types")
	ErrPortConnected       = errors.New("input port is already connected")
	ErrServiceNameRequired = errors.New("service name is required")
	ErrDraftNotFound       = errors.New("draft not found")
	ErrOutputNotFound      = errors.New("output group or port not found")
)

// ValidationError carries the messages of a rejected API description.
type ValidationError = openapi.ValidationError

// EdgeRejectedError is returned by AddEdge when the source port's type
// cannot feed the target port.
type EdgeRejectedError struct {
	SourceNodeID string
	SourcePortID string
	SourceType   string
	TargetNodeID string
	TargetPortID string
	TargetType   string
}

func (e *EdgeRejectedError) Error() string {
	return fmt.Sprintf("edge rejected: %s:%s (%s) -> %s:%s (%s): %s",
		e.SourceNodeID, e.SourcePortID, e.SourceType,
		e.TargetNodeID, e.TargetPortID, e.TargetType,
		ErrIncompatibleTypes)
}

func (e *EdgeRejectedError) Unwrap() error { return ErrIncompatibleTypes }

// Compatible reports whether an output of type source may feed an input of
// type target. An object source is accepted by any input.
func Compatible(source, target string) bool {
	switch {
	case source == target:
		return true
	case source == "object":
		return true
	case source == "array" && target == "array":
		return true
	}
	return false
}

// IsRejection reports whether err is an edge type rejection.
func IsRejection(err error) bool {
	var rej *EdgeRejectedError
	return errors.As(err, &rej)
}
