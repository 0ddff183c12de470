package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petrijr/flowcraft"
)

func newNodeCmd(a *app) *cobra.Command {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Add, inspect and remove nodes",
	}

	var label string
	addCmd := &cobra.Command{
		Use:   "add [service-id] [operation]",
		Short: "Add a call node for an operationId or \"METHOD /path\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := flowcraft.FindEndpoint(a.editor, args[0], args[1])
			if err != nil {
				return err
			}
			n, err := a.editor.AddCallNode(ep)
			if err != nil {
				return err
			}
			if label != "" {
				a.editor.UpdateNode(n.ID, flowcraft.NodePatch{Label: &label})
			}
			a.printf("%s\n", n.ID)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&label, "label", "l", "", "Override the node label")

	inputCmd := &cobra.Command{
		Use:   "input [io-id]",
		Short: "Add a node for a declared pipeline input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.editor.AddPipelineInputNode(args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", n.ID)
			return nil
		},
	}

	outputCmd := &cobra.Command{
		Use:   "output [io-id]",
		Short: "Add a node for a declared pipeline output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.editor.AddPipelineOutputNode(args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", n.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes with their ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range a.editor.Nodes() {
				a.printNode(n)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [node-id]",
		Short: "Remove a node and its edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.editor.RemoveNode(args[0]) {
				return fmt.Errorf("%w: %s", flowcraft.ErrNodeNotFound, args[0])
			}
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [node-id] [port-id] [value]",
		Short: "Set the literal value of an unconnected input",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.editor.StageInputValue(args[0], args[1], args[2]); err != nil {
				return err
			}
			return a.editor.CommitDraft(args[1])
		},
	}

	nodeCmd.AddCommand(addCmd, inputCmd, outputCmd, listCmd, removeCmd, setCmd)
	return nodeCmd
}

func (a *app) printNode(n flowcraft.Node) {
	a.printf("%s\t%s\t%s\n", n.ID, n.Kind, n.Label)
	for _, in := range n.Inputs {
		mark := "-"
		if in.Connected {
			mark = "*"
		}
		a.printf("  in %s %s\t%s\t%s\n", mark, in.ID, in.Name, in.Type)
	}
	for _, g := range n.Outputs {
		for _, out := range g.Items {
			a.printf("  out %s %s\t%s\t%s\n", g.StatusCode, out.ID, out.Name, out.Type)
		}
	}
}

func newEdgeCmd(a *app) *cobra.Command {
	edgeCmd := &cobra.Command{
		Use:   "edge",
		Short: "Wire and unwire ports",
	}

	addCmd := &cobra.Command{
		Use:   "add [source-node] [source-port] [target-node] [target-port]",
		Short: "Connect an output port to an input port",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.editor.AddEdge(args[0], args[2], args[1], args[3])
			if err != nil {
				return err
			}
			a.printf("%s\n", e.ID)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [edge-id]",
		Short: "Remove an edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.editor.RemoveEdge(args[0]) {
				return fmt.Errorf("edge not found: %s", args[0])
			}
			return nil
		},
	}

	edgeCmd.AddCommand(addCmd, removeCmd)
	return edgeCmd
}
