package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/config"
	"github.com/mwhitfield/reqwell/internal/model"
	"github.com/mwhitfield/reqwell/internal/service"
)

func requirementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requirements",
		Aliases: []string{"reqs"},
		Short:   "List requirements",
		RunE:    runRequirementsList,
	}

	cmd.Flags().String("status", "", "Filter by status (draft, in_review, approved, rejected, implemented)")
	cmd.Flags().String("priority", "", "Filter by priority (must_have, should_have, could_have, wont_have)")
	cmd.Flags().Int("limit", 0, "Maximum rows to show")

	return cmd
}

func runRequirementsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetString("priority")
	limit, _ := cmd.Flags().GetInt("limit")

	settings := config.Load()
	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.GetRequirements(ctx, service.RequirementFilter{
		ProjectID: settings.ProjectID,
		Status:    model.Status(status),
		Priority:  model.Priority(priority),
		Limit:     limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list requirements: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("no requirements found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tTITLE\tPRIORITY\tSTATUS\tCATEGORY\tAREA")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Reference, truncateTitle(r.Title), r.Priority, r.Status, r.CategoryName, r.StakeholderAreaName)
	}
	return w.Flush()
}

func truncateTitle(s string) string {
	const max = 60
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
