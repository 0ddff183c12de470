package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newServiceCmd(a *app) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage registered API descriptions",
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add [name] [file]",
		Short: "Validate and register an OpenAPI 3 description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read description: %w", err)
			}
			svc, err := a.editor.AddService(cmd.Context(), args[0], description, data)
			if err != nil {
				return err
			}
			a.printf("%s\n", svc.ID)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Free-form notes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, svc := range a.editor.Services() {
				a.printf("%s\t%s\t%s\n", svc.ID, svc.Name, svc.Document.Title())
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [service-id]",
		Short: "Unregister a service and remove its call nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editor.RemoveService(cmd.Context(), args[0])
		},
	}

	queryCmd := &cobra.Command{
		Use:   "query [service-id] [jsonpath]",
		Short: "Evaluate a JSONPath expression against a description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, ok := a.editor.Service(args[0])
			if !ok {
				return fmt.Errorf("service not found: %s", args[0])
			}
			matches, err := svc.Document.Query(args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		},
	}

	serviceCmd.AddCommand(addCmd, listCmd, removeCmd, queryCmd)
	return serviceCmd
}

func newEndpointsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints [service-id]",
		Short: "List the operations of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eps, err := a.editor.Endpoints(args[0])
			if err != nil {
				return err
			}
			for _, ep := range eps {
				a.printf("%-7s %s\t%s\n", ep.Method, ep.Path, ep.OperationID)
			}
			return nil
		},
	}
}
