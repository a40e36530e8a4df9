package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// KnowledgeMatch is one local knowledge entry scored for a question.
type KnowledgeMatch struct {
	ID             string  `json:"id"`
	Relevance      float64 `json:"relevance"`
	BaseConfidence string  `json:"base_confidence"`
}

// SearchResponse mirrors the /v1/knowledge/search payload.
type SearchResponse struct {
	Question      string           `json:"question"`
	Matches       []KnowledgeMatch `json:"matches"`
	NeedsRealTime bool             `json:"needs_real_time"`
	Trigger       string           `json:"trigger,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <question>",
		Short: "Score a question against the local knowledge base",
		Long:  "Shows which local knowledge entries match a question and whether it would trigger a real-time search. No remote backend is called.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSearch(cmd, api, strings.Join(args, " "), outputJSON)
		},
	}
}

func runSearch(cmd *cobra.Command, api *APIClient, question string, outputJSON bool) error {
	searchResp, err := api.SearchKnowledge(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(searchResp.Matches) == 0 {
		fmt.Fprintln(out, "No local knowledge matches.")
	} else {
		fmt.Fprintf(out, "Found %d matches:\n", len(searchResp.Matches))
		for i, m := range searchResp.Matches {
			fmt.Fprintf(out, "%d. %s (%.2f, %s)\n", i+1, m.ID, m.Relevance, m.BaseConfidence)
		}
	}

	if searchResp.NeedsRealTime {
		fmt.Fprintf(out, "Real-time search: yes (trigger %q)\n", searchResp.Trigger)
	} else {
		fmt.Fprintln(out, "Real-time search: no")
	}
	return nil
}
