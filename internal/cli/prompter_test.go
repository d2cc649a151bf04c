package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmCommit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes long form", input: "yes\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "quit counts as no", input: "q\n", want: false},
		{name: "garbage then yes", input: "maybe\nY\n", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.ConfirmCommit(5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "5")
		})
	}
}

// The confirm prompt reads from the prompter's own reader, never the process
// stdin. A drained reader must surface an error rather than hang or default
// to yes; the paste command relies on this and hands the prompter a terminal
// reader separate from the pasted input.
func TestConfirmCommit_DrainedReader(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader(""), &out)

	_, err := p.ConfirmCommit(3)
	require.Error(t, err)
}

func TestSelectSheet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{name: "first sheet", input: "1\n", want: 0},
		{name: "second sheet", input: "2\n", want: 1},
		{name: "out of range then valid", input: "9\n2\n", want: 1},
		{name: "cancel", input: "q\n", wantErr: ErrCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.SelectSheet([]string{"Backlog", "Archive"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
