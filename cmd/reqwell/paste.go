package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/reqwell/internal/cli"
	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/config"
	"github.com/mwhitfield/reqwell/internal/decode"
	"github.com/mwhitfield/reqwell/internal/wizard"
)

func pasteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Import requirements from tab-separated text on stdin",
		Long: `Import requirements from clipboard-style tab-separated text.

If the first row looks like a header it is skipped automatically and used to
infer the column mapping.

Examples:
  # Paste from a pipe
  xclip -o | reqwell paste

  # Or from a file of pasted text
  reqwell paste < rows.tsv`,
		Args: cobra.NoArgs,
		RunE: runPaste,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Validate without saving")
	cmd.Flags().BoolP("yes", "y", false, "Commit without prompting")
	cmd.Flags().Int("batch-size", 0, "Records per remote call (default 25)")

	return cmd
}

func runPaste(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	settings := config.Load()
	if batchSize <= 0 {
		batchSize = settings.BatchSize
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	rows := decode.Text(string(input))
	if len(rows) == 0 {
		return fmt.Errorf("no input rows")
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

	sess := wizard.NewPasteSession(rows, lookups)
	result := sess.Result()

	// Stdin carries the pasted rows, so the prompter must not read from it.
	prompter := cli.NewPrompter(nil, os.Stdout)
	prompter.ShowValidation(&result)

	if dryRun {
		fmt.Println(cli.FormatSuccess("dry run complete, nothing imported"))
		return nil
	}
	if !sess.CanCommit() {
		return fmt.Errorf("nothing to import: map a title column or fix the rows above")
	}

	if !yes {
		tty, ttyErr := os.Open("/dev/tty")
		if ttyErr != nil {
			return common.NewUserError(
				"no terminal available to confirm (stdin holds the pasted rows); re-run with --yes or --dry-run",
				ttyErr)
		}
		defer func() { _ = tty.Close() }()

		ok, confErr := cli.NewPrompter(tty, os.Stdout).ConfirmCommit(len(result.Records))
		if confErr != nil {
			return confErr
		}
		if !ok {
			fmt.Println(cli.FormatWarning("import canceled"))
			return nil
		}
	}

	commit, err := wizard.CommitRecords(ctx, store, sess.Records(), wizard.CommitOptions{
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

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("imported %d of %d requirements", commit.Created, commit.Total)))
	return nil
}
