package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/cli"
	"github.com/mwhitfield/reqwell/internal/config"
)

func areasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Manage stakeholder areas",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stakeholder areas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			areas, err := store.GetStakeholderAreas(ctx)
			if err != nil {
				return fmt.Errorf("failed to list stakeholder areas: %w", err)
			}
			for _, a := range areas {
				fmt.Println(a.Name)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a stakeholder area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			a, err := store.CreateStakeholderArea(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to add stakeholder area: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("added stakeholder area %s", a.Name)))
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(addCmd)
	return cmd
}
