package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/descubra-ms/guata/internal/config"
	"github.com/descubra-ms/guata/internal/domain"
	"github.com/descubra-ms/guata/internal/knowledge"
	"github.com/descubra-ms/guata/internal/realtime"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// KnowledgeCmd groups the knowledge base maintenance commands.
func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Inspect and publish the local knowledge base",
	}

	cmd.PersistentFlags().StringP("file", "f", "", "Knowledge YAML file (defaults to the configured source)")

	cmd.AddCommand(knowledgeListCmd())
	cmd.AddCommand(knowledgeSearchCmd())
	cmd.AddCommand(knowledgeValidateCmd())
	cmd.AddCommand(knowledgeUploadCmd())

	return cmd
}

func knowledgeListCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := indexFromCmd(cmd)
			if err != nil {
				return err
			}
			if outputJSON {
				data, err := jsonEntries(index.Entries())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printEntries(cmd.OutOrStdout(), index.Entries())
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "output", false, "Output entries with content as JSON")

	return cmd
}

func knowledgeSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <question>",
		Short: "Score a question against the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := indexFromCmd(cmd)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			printSearch(cmd.OutOrStdout(), question, index.Search(question), realtime.NewClassifier(nil))
			return nil
		},
	}
}

func knowledgeValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a knowledge YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := knowledge.LoadFile(args[0])
			if err != nil {
				return err
			}
			index, err := knowledge.NewIndex(entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries OK\n", args[0], index.Len())
			return nil
		},
	}
}

func knowledgeUploadCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Validate and upload a knowledge file to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasS3() {
				return fmt.Errorf("object storage not configured (GUATA_S3_ENDPOINT, GUATA_S3_ACCESS_KEY_ID, GUATA_S3_SECRET_ACCESS_KEY)")
			}
			if key == "" {
				key = cfg.KnowledgeS3Key
			}
			if key == "" {
				return fmt.Errorf("no object key: pass --key or set GUATA_KNOWLEDGE_S3_KEY")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read knowledge file: %w", err)
			}
			entries, err := knowledge.Parse(data)
			if err != nil {
				return err
			}
			if _, err := knowledge.NewIndex(entries); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := newS3Client(ctx, cfg)
			if err != nil {
				return err
			}
			if err := client.EnsureBucket(ctx); err != nil {
				return err
			}
			if err := client.PutObject(ctx, key, data, "application/yaml"); err != nil {
				return err
			}
			meta, err := client.HeadObject(ctx, key)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d entries to s3://%s/%s (%d bytes, etag %s)\n",
				len(entries), client.Bucket(), key, meta.ContentLength, meta.ETag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Object key (defaults to GUATA_KNOWLEDGE_S3_KEY)")

	return cmd
}

// indexFromCmd loads --file when given, otherwise the configured source.
func indexFromCmd(cmd *cobra.Command) (*knowledge.Index, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		return knowledge.Load(ctx, knowledge.Source{File: file})
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return loadKnowledge(ctx, cfg, zap.NewNop())
}

func printEntries(out io.Writer, entries []*domain.KnowledgeEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%-16s %-7s %s\n", e.ID, e.BaseConfidence, strings.Join(e.Keywords, ", "))
	}
}

func printSearch(out io.Writer, question string, matches []domain.ScoredMatch, classifier *realtime.Classifier) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No local knowledge matches.")
	}
	for i, m := range matches {
		fmt.Fprintf(out, "%d. %s (%.2f, %s)\n", i+1, m.Entry.ID, m.Relevance, m.Entry.BaseConfidence)
	}

	if trigger, ok := classifier.Match(question); ok {
		fmt.Fprintf(out, "Real-time search: yes (trigger %q)\n", trigger)
	} else {
		fmt.Fprintln(out, "Real-time search: no")
	}
}

func jsonEntries(entries []*domain.KnowledgeEntry) ([]byte, error) {
	type entry struct {
		ID         string   `json:"id"`
		Keywords   []string `json:"keywords"`
		Confidence string   `json:"confidence"`
		Content    any      `json:"content"`
	}
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, entry{ID: e.ID, Keywords: e.Keywords, Confidence: string(e.BaseConfidence), Content: e.Payload})
	}
	return json.MarshalIndent(out, "", "  ")
}
