package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/descubra-ms/guata/internal/config"
	"github.com/descubra-ms/guata/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// AskCmd resolves one question in-process with the same wiring as serve.
// Nothing is recorded.
func AskCmd() *cobra.Command {
	var (
		outputJSON bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Resolve a question locally",
		Long:  "Runs the answer pipeline once without starting the server. Uses the same configuration as serve.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := zap.NewNop()
			if verbose {
				logger, err = logging.New(true, cfg.Environment)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			app, err := BuildApp(ctx, cfg, logger, BuildOptions{})
			if err != nil {
				return err
			}
			defer app.Close()

			resp := app.Resolver.Resolve(ctx, strings.Join(args, " "), "", "")

			out := cmd.OutOrStdout()
			if outputJSON {
				data, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintln(out, resp.Answer)
			fmt.Fprintf(out, "\nConfidence: %d%%  Time: %dms\n", resp.Confidence, resp.ProcessingTimeMs)
			if len(resp.Sources) > 0 {
				fmt.Fprintf(out, "Sources: %s\n", strings.Join(resp.Sources, ", "))
			}
			for _, step := range resp.Reasoning {
				fmt.Fprintf(out, "  - %s\n", step)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "output", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline steps")

	return cmd
}
