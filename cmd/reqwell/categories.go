package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/cli"
	"github.com/mwhitfield/reqwell/internal/config"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage requirement categories",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			for _, c := range categories {
				line := c.Name
				if c.Description != "" {
					line += ": " + c.Description
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name> [description]",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.Load())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			description := strings.Join(args[1:], " ")
			c, err := store.CreateCategory(ctx, args[0], description)
			if err != nil {
				return fmt.Errorf("failed to add category: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("added category %s", c.Name)))
			return nil
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(addCmd)
	return cmd
}
