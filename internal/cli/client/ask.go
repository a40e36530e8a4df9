package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest mirrors the /v1/ask request body.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// AskResponse mirrors the /v1/ask response payload.
type AskResponse struct {
	SessionID        string   `json:"session_id"`
	Answer           string   `json:"answer"`
	Confidence       int      `json:"confidence"`
	Sources          []string `json:"sources"`
	Reasoning        []string `json:"reasoning"`
	IsFromCache      bool     `json:"is_from_cache"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		sessionID  string
		userID     string
		newSession bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask Guatá a question",
		Long: `Sends a question to the Guatá API and prints the answer.

The session id returned by the server is remembered, so consecutive asks
continue the same conversation. Use --new to start over.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			state, err := LoadState()
			if err != nil {
				return err
			}

			req := AskRequest{
				Question:  strings.Join(args, " "),
				SessionID: sessionID,
				UserID:    userID,
			}
			if req.SessionID == "" && !newSession {
				req.SessionID = state.SessionID
			}
			if req.UserID == "" {
				req.UserID = state.UserID
			}

			resp, err := api.Ask(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}

			state.Remember(resp.SessionID, userID)
			if err := state.Save(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save session: %v\n", err)
			}

			return printAsk(cmd, resp, outputJSON, verbose)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID to continue")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID to attach to the conversation")
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new session")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show sources and pipeline reasoning")

	return cmd
}

func printAsk(cmd *cobra.Command, resp *AskResponse, outputJSON, verbose bool) error {
	out := cmd.OutOrStdout()
	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintln(out, resp.Answer)
	if !verbose {
		return nil
	}

	fmt.Fprintf(out, "\nConfidence: %d%%", resp.Confidence)
	if resp.IsFromCache {
		fmt.Fprint(out, " (cached)")
	}
	fmt.Fprintf(out, "\nTime: %dms\n", resp.ProcessingTimeMs)
	if len(resp.Sources) > 0 {
		fmt.Fprintf(out, "Sources: %s\n", strings.Join(resp.Sources, ", "))
	}
	for _, step := range resp.Reasoning {
		fmt.Fprintf(out, "  - %s\n", step)
	}
	fmt.Fprintf(out, "Session: %s\n", resp.SessionID)
	return nil
}
