package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree() *cobra.Command {
	root := &cobra.Command{Use: "guata", Short: "root"}
	root.PersistentFlags().Bool("output", false, "Output as JSON")
	AddHelpJSONFlag(root)

	ask := &cobra.Command{
		Use:     "ask <question>",
		Aliases: []string{"a"},
		Short:   "Ask a question",
		Args:    cobra.ExactArgs(1),
		RunE:    func(cmd *cobra.Command, args []string) error { return nil },
	}
	ask.Flags().StringP("session", "s", "", "Session ID to continue")
	ask.Flags().String("user", "", "User ID")
	_ = ask.MarkFlagRequired("user")

	hidden := &cobra.Command{Use: "debug", Hidden: true, Run: func(cmd *cobra.Command, args []string) {}}

	root.AddCommand(ask, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(newTestTree())

	assert.Equal(t, "guata", schema.Name)
	require.Len(t, schema.Subcommands, 1)

	ask := schema.Subcommands[0]
	assert.Equal(t, "ask", ask.Name)
	assert.Equal(t, []string{"a"}, ask.Aliases)

	require.Len(t, ask.Flags, 2)
	assert.Equal(t, FlagSchema{Name: "session", Shorthand: "s", Type: "string", Description: "Session ID to continue"}, ask.Flags[0])
	assert.Equal(t, "user", ask.Flags[1].Name)
	assert.True(t, ask.Flags[1].Required)

	require.Len(t, ask.InheritedFlags, 1)
	assert.Equal(t, "output", ask.InheritedFlags[0].Name)
}

func TestHelpJSON(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantHandled bool
		wantCommand string
	}{
		{name: "no flag", args: []string{"ask", "onde comer"}},
		{name: "root", args: []string{"--help-json"}, wantHandled: true, wantCommand: "guata"},
		{name: "subcommand", args: []string{"ask", "--help-json"}, wantHandled: true, wantCommand: "ask"},
		{name: "alias after positional", args: []string{"a", "onde comer", "--help-json"}, wantHandled: true, wantCommand: "ask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handled, err := HelpJSON(newTestTree(), tt.args, &buf)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHandled, handled)
			if !tt.wantHandled {
				assert.Empty(t, buf.String())
				return
			}

			var schema CommandSchema
			require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
			assert.Equal(t, tt.wantCommand, schema.Name)
		})
	}
}
