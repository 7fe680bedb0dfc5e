// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/config"
	"github.com/pdiddy/research-assistant/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [urls...]",
	Short: "Extract readable text from web pages",
	Long: `Extract renders each URL in a headless browser and prints the cleaned
readable text. Each URL is attempted independently; failures are reported
per URL and do not abort the batch.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Duration("timeout", 0, "per-URL rendering timeout (default 30s)")
	extractCmd.Flags().Int("concurrency", 0, "pages extracted in parallel (default 4)")
	extractCmd.Flags().Bool("no-headless", false, "run the browser with a visible window")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more URLs")
	}

	cfg := config.Load(viper.GetViper())
	if d, _ := cmd.Flags().GetDuration("timeout"); d > 0 {
		cfg.Extraction.PerURLTimeout = d
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Extraction.MaxConcurrent = n
	}
	if visible, _ := cmd.Flags().GetBool("no-headless"); visible {
		cfg.Extraction.Headless = false
	}

	extractor := extract.NewChromeExtractor(cfg.Extraction)
	result := extract.ExtractBatch(context.Background(), extractor, args, cfg.Extraction, os.Stderr)

	for _, doc := range result.Documents {
		fmt.Printf("=== %s ===\n", doc.URL)
		if doc.Title != "" {
			fmt.Printf("Title: %s\n\n", doc.Title)
		}
		fmt.Println(doc.Text)
		fmt.Println()
	}

	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed extraction", len(result.Failures))
	}
	return nil
}
