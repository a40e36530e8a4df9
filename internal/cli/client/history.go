package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Turn is one recorded question/answer pair.
type Turn struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"session_id"`
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Confidence   int      `json:"confidence"`
	Sources      []string `json:"sources"`
	FromCache    bool     `json:"from_cache"`
	ProcessingMs int64    `json:"processing_ms"`
	CreatedAt    string   `json:"created_at"`
}

// HistoryResponse is one page of a session's turns.
type HistoryResponse struct {
	Items   []Turn `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show a session's conversation",
		Long:  "Lists recorded turns of a session, oldest first. Defaults to the last session used by 'guata ask'.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			} else {
				state, err := LoadState()
				if err != nil {
					return err
				}
				sessionID = state.SessionID
			}
			if sessionID == "" {
				return fmt.Errorf("no session id given and no previous session found")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runHistory(cmd, api, sessionID, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of turns")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runHistory(cmd *cobra.Command, api *APIClient, sessionID string, limit int, cursor string, outputJSON bool) error {
	history, err := api.History(cmd.Context(), sessionID, limit, cursor)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		output, _ := json.MarshalIndent(history, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(history.Items) == 0 {
		fmt.Fprintln(out, "No turns recorded for this session.")
		return nil
	}

	for i, turn := range history.Items {
		fmt.Fprintf(out, "[%s] Q: %s\n", turn.CreatedAt, turn.Question)
		fmt.Fprintf(out, "A (%d%%): %s\n", turn.Confidence, turn.Answer)
		if i < len(history.Items)-1 {
			fmt.Fprintln(out)
		}
	}

	if history.HasMore {
		fmt.Fprintf(out, "\nMore turns available. Use --cursor %s\n", history.Cursor)
	}
	return nil
}
