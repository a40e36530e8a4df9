package main

import (
	"fmt"
	"os"

	"github.com/descubra-ms/guata/internal/cli"
	"github.com/descubra-ms/guata/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	client.Version = version

	rootCmd := &cobra.Command{
		Use:   "guata",
		Short: "Guatá CLI - tourism assistant for Mato Grosso do Sul",
		Long: `Guatá CLI asks the Guatá API about tourism in Mato Grosso do Sul.

Environment variables:
  GUATA_API_URL     API base URL (default: http://localhost:8080)
  GUATA_STATE_FILE  Where the last session is remembered`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and saved state)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.SearchCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
