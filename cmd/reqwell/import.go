package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/cli"
	"github.com/mwhitfield/reqwell/internal/config"
	"github.com/mwhitfield/reqwell/internal/decode"
	"github.com/mwhitfield/reqwell/internal/wizard"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import requirements from a spreadsheet or CSV file",
		Long: `Import requirements from an .xlsx, .csv or .tsv file.

The import runs as a short wizard: pick a sheet (spreadsheets only), review
the inferred column mapping, check the validation summary and confirm.

Examples:
  # Interactive import
  reqwell import ./requirements.xlsx

  # Accept the inferred mapping without prompting
  reqwell import --yes ./requirements.csv

  # Validate only, write nothing
  reqwell import --dry-run ./requirements.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Validate without saving")
	cmd.Flags().BoolP("yes", "y", false, "Accept the inferred mapping and commit without prompting")
	cmd.Flags().Int("batch-size", 0, "Records per remote call (default 25)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	settings := config.Load()
	if batchSize <= 0 {
		batchSize = settings.BatchSize
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	lookups, err := loadLookups(ctx, store)
	if err != nil {
		return err
	}

	sheets, err := decode.File(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	sess := wizard.NewSession(lookups)
	if err := sess.LoadSheets(sheets); err != nil {
		return err
	}

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)

	if sess.Step() == wizard.StepSheetSelection {
		idx, selErr := prompter.SelectSheet(sess.SheetNames())
		if selErr != nil {
			return cancelOr(selErr)
		}
		if err := sess.SelectSheet(idx); err != nil {
			return err
		}
	}

	if !yes {
		if err := prompter.ReviewMapping(sess); err != nil {
			return cancelOr(err)
		}
	}

	if !sess.CanValidate() {
		return fmt.Errorf("no column maps to title; re-run without --yes and map one")
	}
	if err := sess.Validate(); err != nil {
		return err
	}

	result := sess.Result()
	prompter.ShowValidation(result)

	if dryRun {
		fmt.Println(cli.FormatSuccess("dry run complete, nothing imported"))
		return nil
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("nothing to import: every row was excluded")
	}

	if !yes {
		ok, confErr := prompter.ConfirmCommit(len(result.Records))
		if confErr != nil {
			return confErr
		}
		if !ok {
			fmt.Println(cli.FormatWarning("import canceled"))
			return nil
		}
	}

	commit, err := sess.Commit(ctx, store, wizard.CommitOptions{
		ProjectID:  settings.ProjectID,
		BatchSize:  batchSize,
		OnProgress: prompter.NewProgressCallback(len(result.Records)),
	})
	if err != nil {
		if commit != nil && commit.Created > 0 {
			fmt.Println(cli.FormatWarning(fmt.Sprintf(
				"partial import: %d of %d created before failure", commit.Created, commit.Total)))
		}
		return fmt.Errorf("import failed: %w", err)
	}

	slog.Info("Import complete",
		"created", commit.Created,
		"total", commit.Total,
		"errors", len(commit.Errors))
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d of %d requirements", commit.Created, commit.Total)))
	for _, e := range commit.Errors {
		fmt.Println(cli.FormatError(fmt.Sprintf("record %d: %s", e.Index+1, e.Message)))
	}
	return nil
}

// cancelOr maps a user cancel to a clean exit.
func cancelOr(err error) error {
	if errors.Is(err, cli.ErrCanceled) {
		fmt.Println(cli.FormatWarning("import canceled"))
		return nil
	}
	return err
}
