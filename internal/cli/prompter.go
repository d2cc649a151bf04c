package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/mwhitfield/reqwell/internal/catalog"
	"github.com/mwhitfield/reqwell/internal/mapping"
	"github.com/mwhitfield/reqwell/internal/normalize"
	"github.com/mwhitfield/reqwell/internal/wizard"
)

// ErrCanceled is returned when the user cancels the import flow. Cancel is
// always permitted and discards session state without remote side effects.
var ErrCanceled = errors.New("import canceled")

// Prompter drives the import wizard interactively over a terminal.
type Prompter struct {
	writer io.Writer
	reader *bufio.Reader
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

func (p *Prompter) readLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// SelectSheet asks the user which decoded sheet to import.
func (p *Prompter) SelectSheet(names []string) (int, error) {
	fmt.Fprintln(p.writer, TitleStyle.Render("Select a sheet"))
	for i, name := range names {
		fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, name)
	}
	for {
		line, err := p.readLine("Sheet number (or q to cancel)")
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(line, "q") {
			return 0, ErrCanceled
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(names) {
			return n - 1, nil
		}
		fmt.Fprintln(p.writer, FormatWarning(fmt.Sprintf("enter a number between 1 and %d", len(names))))
	}
}

// ReviewMapping shows the inferred column mapping and lets the user adjust it
// until a title mapping exists and they choose to continue.
func (p *Prompter) ReviewMapping(sess *wizard.Session) error {
	for {
		p.printMapping(sess)
		line, err := p.readLine("map <col> <field> | skip <col> | header on|off | continue | q")
		if err != nil {
			return err
		}
		parts := strings.Fields(strings.ToLower(line))
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "q", "quit", "cancel":
			return ErrCanceled
		case "continue", "c", "next":
			if !sess.CanValidate() {
				fmt.Fprintln(p.writer, FormatWarning("map a column to title before continuing"))
				continue
			}
			return nil
		case "header":
			if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
				fmt.Fprintln(p.writer, FormatWarning("usage: header on|off"))
				continue
			}
			if err := sess.SetSkipHeader(parts[1] == "on"); err != nil {
				return err
			}
		case "skip":
			if len(parts) != 2 {
				fmt.Fprintln(p.writer, FormatWarning("usage: skip <col>"))
				continue
			}
			col, convErr := strconv.Atoi(parts[1])
			if convErr != nil {
				fmt.Fprintln(p.writer, FormatWarning("usage: skip <col>"))
				continue
			}
			if err := sess.SetMapping(col-1, mapping.Skip); err != nil {
				fmt.Fprintln(p.writer, FormatWarning(err.Error()))
			}
		case "map":
			if len(parts) != 3 {
				fmt.Fprintln(p.writer, FormatWarning("usage: map <col> <field>"))
				continue
			}
			col, convErr := strconv.Atoi(parts[1])
			if convErr != nil {
				fmt.Fprintln(p.writer, FormatWarning("usage: map <col> <field>"))
				continue
			}
			if err := sess.SetMapping(col-1, parts[2]); err != nil {
				fmt.Fprintln(p.writer, FormatWarning(err.Error()))
			}
		default:
			fmt.Fprintln(p.writer, FormatWarning("unknown command"))
		}
	}
}

func (p *Prompter) printMapping(sess *wizard.Session) {
	header := sess.Header()
	m := sess.Mapping()

	fmt.Fprintln(p.writer, TableHeaderStyle.Render("Col  Header                    Field"))
	for col, cell := range header {
		field := m.Field(col)
		display := field
		if field == mapping.Skip {
			display = SubtleStyle.Render("(skipped)")
		}
		fmt.Fprintf(p.writer, "%-4d %-25s %s\n", col+1, truncate(cell, 25), display)
	}
	if dupes := m.Duplicates(); len(dupes) > 0 {
		fmt.Fprintln(p.writer, FormatWarning(
			"multiple columns mapped to: "+strings.Join(dupes, ", ")+" (last column wins)"))
	}
	state := "off"
	if sess.SkipHeader() {
		state = "on"
	}
	fmt.Fprintln(p.writer, SubtleStyle.Render("skip first row: "+state))
	fmt.Fprintln(p.writer, SubtleStyle.Render("fields: "+strings.Join(fieldKeys(), ", ")))
}

// ShowValidation prints the validation summary and per-row issues.
func (p *Prompter) ShowValidation(result *normalize.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", FormatSuccess(fmt.Sprintf("%d rows ready to import", len(result.Records))))
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "%s\n", FormatError(fmt.Sprintf("%d rows excluded", len(result.Errors))))
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  row %d: %s\n", e.Row, e.Message)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(&b, "%s\n", FormatWarning(fmt.Sprintf("%d rows with warnings", len(result.Warnings))))
		for _, w := range result.Warnings {
			for _, msg := range w.Messages {
				fmt.Fprintf(&b, "  row %d: %s\n", w.Row, msg)
			}
		}
	}
	fmt.Fprintln(p.writer, RenderBox("Validation", strings.TrimRight(b.String(), "\n")))
}

// ConfirmCommit asks whether to proceed with the commit.
func (p *Prompter) ConfirmCommit(count int) (bool, error) {
	for {
		line, err := p.readLine(fmt.Sprintf("Import %d requirements? [y/n]", count))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no", "q":
			return false, nil
		}
	}
}

// NewProgressCallback returns a wizard progress callback backed by a terminal
// progress bar.
func (p *Prompter) NewProgressCallback(total int) func(wizard.Progress) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(progress wizard.Progress) {
		_ = bar.Set(progress.Current)
	}
}

func fieldKeys() []string {
	keys := make([]string, len(catalog.Fields))
	for i, f := range catalog.Fields {
		keys[i] = f.Key
	}
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
