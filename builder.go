package flowcraft

import (
	"context"
	"fmt"
	"strings"
)

// PipelineBuilder assembles a pipeline declaratively and applies it to an
// Editor in one go:
//
//	b := flowcraft.NewPipeline("Adopt").
//	    Service("pets", "Petstore", petstoreYAML).
//	    Input("petId", flowcraft.PipelineIO{Type: "string"}).
//	    Call("show", "pets", "showPetById").
//	    Connect("petId.petId", "show.petId").
//	    Output("petName", flowcraft.PipelineIO{Type: "string"}).
//	    Connect("show.name", "petName.petName")
//
//	built, err := b.Build(ctx, editor)
//
// Nodes are addressed by alias and ports by name, as "alias.port".
type PipelineBuilder struct {
	name        string
	description string
	ops         []builderOp
	aliases     map[string]bool
}

type builderOp func(ctx context.Context, st *buildState) error

type buildState struct {
	ed       Editor
	services map[string]string
	nodes    map[string]string
}

// BuiltPipeline maps the builder's aliases to what Build created.
type BuiltPipeline struct {
	Services map[string]ServiceDescriptor
	Nodes    map[string]Node
	Pipeline Pipeline
}

// NewPipeline creates a new builder for a pipeline with the given name.
func NewPipeline(name string) *PipelineBuilder {
	return &PipelineBuilder{name: name, aliases: map[string]bool{}}
}

func (b *PipelineBuilder) Name() string {
	return b.name
}

func (b *PipelineBuilder) Describe(description string) *PipelineBuilder {
	b.description = description
	return b
}

func (b *PipelineBuilder) claim(alias string) {
	if alias == "" || strings.Contains(alias, ".") {
		panic(fmt.Sprintf("flowcraft: invalid alias %q", alias))
	}
	if b.aliases[alias] {
		panic(fmt.Sprintf("flowcraft: alias %q used twice", alias))
	}
	b.aliases[alias] = true
}

// Service registers an API description under alias.
func (b *PipelineBuilder) Service(alias, name string, description []byte) *PipelineBuilder {
	b.claim(alias)
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		svc, err := st.ed.AddService(ctx, name, "", description)
		if err != nil {
			return fmt.Errorf("service %s: %w", alias, err)
		}
		st.services[alias] = svc.ID
		return nil
	})
	return b
}

// Call adds a node for operation (operationId or "METHOD /path") of the
// service registered as serviceAlias.
func (b *PipelineBuilder) Call(alias, serviceAlias, operation string) *PipelineBuilder {
	b.claim(alias)
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		svcID, ok := st.services[serviceAlias]
		if !ok {
			return fmt.Errorf("call %s: %w: alias %s", alias, ErrServiceNotFound, serviceAlias)
		}
		ep, err := FindEndpoint(st.ed, svcID, operation)
		if err != nil {
			return fmt.Errorf("call %s: %w", alias, err)
		}
		n, err := st.ed.AddCallNode(ep)
		if err != nil {
			return fmt.Errorf("call %s: %w", alias, err)
		}
		st.nodes[alias] = n.ID
		return nil
	})
	return b
}

// Input declares a pipeline input and adds its node. The declaration name
// defaults to alias.
func (b *PipelineBuilder) Input(alias string, io PipelineIO) *PipelineBuilder {
	b.claim(alias)
	if io.Name == "" {
		io.Name = alias
	}
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		decl := st.ed.AddPipelineInput(io)
		n, err := st.ed.AddPipelineInputNode(decl.ID)
		if err != nil {
			return fmt.Errorf("input %s: %w", alias, err)
		}
		st.nodes[alias] = n.ID
		return nil
	})
	return b
}

func (b *PipelineBuilder) Output(alias string, io PipelineIO) *PipelineBuilder {
	b.claim(alias)
	if io.Name == "" {
		io.Name = alias
	}
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		decl := st.ed.AddPipelineOutput(io)
		n, err := st.ed.AddPipelineOutputNode(decl.ID)
		if err != nil {
			return fmt.Errorf("output %s: %w", alias, err)
		}
		st.nodes[alias] = n.ID
		return nil
	})
	return b
}

// Connect wires output "alias.port" to input "alias.port".
func (b *PipelineBuilder) Connect(from, to string) *PipelineBuilder {
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		src, srcPort, err := st.resolve(from, false)
		if err != nil {
			return err
		}
		tgt, tgtPort, err := st.resolve(to, true)
		if err != nil {
			return err
		}
		if _, err := st.ed.AddEdge(src, tgt, srcPort, tgtPort); err != nil {
			return fmt.Errorf("connect %s -> %s: %w", from, to, err)
		}
		return nil
	})
	return b
}

// Set commits a literal value on input "alias.port".
func (b *PipelineBuilder) Set(ref string, value any) *PipelineBuilder {
	b.ops = append(b.ops, func(ctx context.Context, st *buildState) error {
		nodeID, portID, err := st.resolve(ref, true)
		if err != nil {
			return err
		}
		if err := st.ed.StageInputValue(nodeID, portID, value); err != nil {
			return fmt.Errorf("set %s: %w", ref, err)
		}
		return st.ed.CommitDraft(portID)
	})
	return b
}

func (st *buildState) resolve(ref string, input bool) (string, string, error) {
	alias, port, ok := strings.Cut(ref, ".")
	if !ok {
		return "", "", fmt.Errorf("flowcraft: port reference %q is not alias.port", ref)
	}
	nodeID, ok := st.nodes[alias]
	if !ok {
		return "", "", fmt.Errorf("%w: alias %s", ErrNodeNotFound, alias)
	}
	n, _ := st.ed.Node(nodeID)
	if input {
		for _, in := range n.Inputs {
			if in.Name == port {
				return nodeID, in.ID, nil
			}
		}
	} else {
		for _, g := range n.Outputs {
			for _, out := range g.Items {
				if out.Name == port {
					return nodeID, out.ID, nil
				}
			}
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrPortNotFound, ref)
}

// Build applies every recorded step to ed in order and stops at the first
// error. Steps already applied are not rolled back.
func (b *PipelineBuilder) Build(ctx context.Context, ed Editor) (*BuiltPipeline, error) {
	if b.name != "" {
		ed.SetPipelineName(b.name)
	}
	if b.description != "" {
		ed.SetPipelineDescription(b.description)
	}

	st := &buildState{ed: ed, services: map[string]string{}, nodes: map[string]string{}}
	for _, op := range b.ops {
		if err := op(ctx, st); err != nil {
			return nil, err
		}
	}

	out := &BuiltPipeline{
		Services: make(map[string]ServiceDescriptor, len(st.services)),
		Nodes:    make(map[string]Node, len(st.nodes)),
		Pipeline: ed.Pipeline(),
	}
	for alias, id := range st.services {
		out.Services[alias], _ = ed.Service(id)
	}
	for alias, id := range st.nodes {
		out.Nodes[alias], _ = ed.Node(id)
	}
	return out, nil
}
