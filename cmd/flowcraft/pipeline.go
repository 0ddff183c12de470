package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrijr/flowcraft"
	"github.com/petrijr/flowcraft/internal/engine"
	"github.com/petrijr/flowcraft/internal/splitter"
)

func newIOCmd(a *app) *cobra.Command {
	ioCmd := &cobra.Command{
		Use:   "io",
		Short: "Declare pipeline inputs and outputs",
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add [input|output] [name] [type]",
		Short: "Declare a pipeline input or output",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			decl := flowcraft.PipelineIO{Name: args[1], Type: args[2], Description: description}
			switch args[0] {
			case "input":
				decl = a.editor.AddPipelineInput(decl)
			case "output":
				decl = a.editor.AddPipelineOutput(decl)
			default:
				return fmt.Errorf("expected input or output, got %q", args[0])
			}
			a.printf("%s\n", decl.ID)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Declaration description")

	removeCmd := &cobra.Command{
		Use:   "remove [input|output] [io-id]",
		Short: "Remove a declaration and the nodes built from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ok bool
			switch args[0] {
			case "input":
				ok = a.editor.RemovePipelineInput(args[1])
			case "output":
				ok = a.editor.RemovePipelineOutput(args[1])
			default:
				return fmt.Errorf("expected input or output, got %q", args[0])
			}
			if !ok {
				return fmt.Errorf("%w: %s", flowcraft.ErrPipelineIONotFound, args[1])
			}
			return nil
		},
	}

	ioCmd.AddCommand(addCmd, removeCmd)
	return ioCmd
}

func newSplitCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "split [node-id] [port-id] [paths]",
		Short: "Expose sub-fields of an output port, e.g. \"owner.name,owner.address.city\"",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, ok := a.editor.Node(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", flowcraft.ErrNodeNotFound, args[0])
			}
			g, i, ok := engine.OutputIndex(n, args[1])
			if !ok {
				return fmt.Errorf("%w: %s", flowcraft.ErrPortNotFound, args[1])
			}
			updated, err := a.editor.SplitOutput(args[0], g, i, splitter.ParsePaths(args[2]), prefix)
			if err != nil {
				return err
			}
			a.printNode(updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Prefix for the new port names")
	return cmd
}

func newPromoteCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "promote [node-id] [port-id]",
		Short: "Declare a pipeline output typed after an output port",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			decl, err := a.editor.PromoteOutputToPipelineOutput(args[0], args[1], name)
			if err != nil {
				return err
			}
			a.printf("%s\t%s\t%s\n", decl.ID, decl.Name, decl.Type)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Declaration name (default: the port name)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the pipeline as a workflow document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			switch format {
			case "json":
				data, err = flowcraft.ExportJSON(a.editor)
			case "yaml":
				data, err = flowcraft.ExportYAML(a.editor)
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = a.out.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newSaveCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist a snapshot of the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.editor.Save(cmd.Context(), name)
			if err != nil {
				return err
			}
			a.printf("saved %q at %s\n", p.Name, p.SavedAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "New pipeline name")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [subject]",
		Short: "Show recorded edit events (sqlite backend)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == nil {
				return fmt.Errorf("history is only recorded by the sqlite backend, not %s", a.cfg.Backend)
			}
			subject := ""
			if len(args) == 1 {
				subject = args[0]
			}
			events, err := a.history(cmd.Context(), subject)
			if err != nil {
				return err
			}
			for _, ev := range events {
				a.printf("%d\t%s\t%s\t%s\t%s\n", ev.Seq, ev.At.Format(time.RFC3339), ev.Type, ev.Subject, ev.Detail)
			}
			return nil
		},
	}
}
