package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/catalog"
	"github.com/mwhitfield/reqwell/internal/cli"
	"github.com/mwhitfield/reqwell/internal/config"
	"github.com/mwhitfield/reqwell/internal/grid"
	"github.com/mwhitfield/reqwell/internal/model"
	"github.com/mwhitfield/reqwell/internal/service"
)

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit requirements from the command line",
		Long: `Apply grid edits to requirements without the wizard.

Examples:
  # Change one field on one requirement
  reqwell edit set REQ-0004 priority=must_have

  # Set a status across several requirements in one call
  reqwell edit bulk --status approved REQ-0001 REQ-0002

  # Submit drafts for review
  reqwell edit submit REQ-0001 REQ-0002

  # Delete requirements
  reqwell edit delete REQ-0007`,
	}

	cmd.AddCommand(editAddCmd())
	cmd.AddCommand(editSetCmd())
	cmd.AddCommand(editBulkCmd())
	cmd.AddCommand(editSubmitCmd())
	cmd.AddCommand(editDeleteCmd())
	return cmd
}

func editAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> [<field>=<value>...]",
		Short: "Add a new requirement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGridSession(cmd.Context(), func(sess *grid.Session, _ map[string]string) error {
				row := sess.AddRow()
				title := args[0]
				if err := sess.EditCell(row.ID, model.Patch{Title: &title}); err != nil {
					return err
				}
				for _, assignment := range args[1:] {
					patch, err := parseAssignment(assignment)
					if err != nil {
						return err
					}
					if err := sess.EditCell(row.ID, patch); err != nil {
						return err
					}
				}
				if err := sess.Flush(); err != nil {
					return err
				}
				for _, r := range sess.Rows() {
					if r.Title == title {
						fmt.Println(cli.FormatSuccess(fmt.Sprintf("created %s", r.Reference)))
						return nil
					}
				}
				fmt.Println(cli.FormatSuccess("created requirement"))
				return nil
			})
		},
	}
}

func editSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <reference> <field>=<value> [<field>=<value>...]",
		Short: "Set fields on one requirement",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGridSession(cmd.Context(), func(sess *grid.Session, byRef map[string]string) error {
				id, ok := byRef[args[0]]
				if !ok {
					return fmt.Errorf("no requirement with reference %s", args[0])
				}
				for _, assignment := range args[1:] {
					patch, err := parseAssignment(assignment)
					if err != nil {
						return err
					}
					if err := sess.EditCell(id, patch); err != nil {
						return err
					}
				}
				if err := sess.Flush(); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("updated %s", args[0])))
				return nil
			})
		},
	}
}

func editBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk <reference>...",
		Short: "Set one field across several requirements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			priority, _ := cmd.Flags().GetString("priority")

			var patch model.Patch
			switch {
			case status != "":
				s := model.Status(status)
				patch.Status = &s
			case priority != "":
				p := model.Priority(priority)
				patch.Priority = &p
			default:
				return fmt.Errorf("one of --status or --priority is required")
			}

			return withGridSession(cmd.Context(), func(sess *grid.Session, byRef map[string]string) error {
				ids, err := resolveRefs(byRef, args)
				if err != nil {
					return err
				}
				if err := sess.BulkSetField(ids, patch); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("updated %d requirements", len(ids))))
				return nil
			})
		},
	}
	cmd.Flags().String("status", "", "Status to apply")
	cmd.Flags().String("priority", "", "Priority to apply")
	return cmd
}

func editSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <reference>...",
		Short: "Submit draft requirements for review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGridSession(cmd.Context(), func(sess *grid.Session, byRef map[string]string) error {
				ids, err := resolveRefs(byRef, args)
				if err != nil {
					return err
				}
				submitted, err := sess.SubmitForApproval(ids)
				if err != nil {
					return err
				}
				if submitted == 0 {
					fmt.Println(cli.FormatWarning("no drafts in selection, nothing submitted"))
					return nil
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("submitted %d requirements for review", submitted)))
				return nil
			})
		},
	}
}

func editDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reference>...",
		Short: "Delete requirements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGridSession(cmd.Context(), func(sess *grid.Session, byRef map[string]string) error {
				ids, err := resolveRefs(byRef, args)
				if err != nil {
					return err
				}
				if err := sess.DeleteSelected(ids); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("deleted %d requirements", len(ids))))
				return nil
			})
		},
	}
}

// withGridSession loads the project's rows into a grid session and hands it
// to fn along with a reference → id index.
func withGridSession(ctx context.Context, fn func(*grid.Session, map[string]string) error) error {
	settings := config.Load()
	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.GetRequirements(ctx, service.RequirementFilter{ProjectID: settings.ProjectID})
	if err != nil {
		return fmt.Errorf("failed to load requirements: %w", err)
	}

	byRef := make(map[string]string, len(recs))
	for _, r := range recs {
		byRef[r.Reference] = r.ID
	}

	sess := grid.NewSession(ctx, store, recs, grid.Options{
		ProjectID: settings.ProjectID,
		ActorID:   settings.ActorID,
	})
	defer sess.Close()

	return fn(sess, byRef)
}

func resolveRefs(byRef map[string]string, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, ok := byRef[ref]
		if !ok {
			return nil, fmt.Errorf("no requirement with reference %s", ref)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseAssignment turns "field=value" into a single-field patch.
func parseAssignment(s string) (model.Patch, error) {
	var patch model.Patch
	field, value, ok := strings.Cut(s, "=")
	if !ok {
		return patch, fmt.Errorf("expected field=value, got %q", s)
	}
	switch field {
	case catalog.FieldTitle:
		patch.Title = &value
	case catalog.FieldDescription:
		patch.Description = &value
	case catalog.FieldPriority:
		p, found := catalog.PrioritySynonyms[strings.ToLower(value)]
		if !found {
			return patch, fmt.Errorf("unrecognized priority %q", value)
		}
		patch.Priority = &p
	case catalog.FieldStatus:
		st, found := catalog.StatusSynonyms[strings.ToLower(value)]
		if !found {
			return patch, fmt.Errorf("unrecognized status %q", value)
		}
		patch.Status = &st
	case catalog.FieldSourceType:
		patch.SourceType = &value
	case catalog.FieldSourceReference:
		patch.SourceReference = &value
	case catalog.FieldAcceptanceCriteria:
		patch.AcceptanceCriteria = &value
	case catalog.FieldWeighting:
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return patch, fmt.Errorf("weighting must be a number, got %q", value)
		}
		patch.Weighting = &w
	default:
		return patch, fmt.Errorf("unknown field %q", field)
	}
	return patch, nil
}
