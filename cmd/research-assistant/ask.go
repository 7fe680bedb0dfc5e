// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/assistant"
	"github.com/pdiddy/research-assistant/internal/config"
	"github.com/pdiddy/research-assistant/internal/extract"
	"github.com/pdiddy/research-assistant/internal/groq"
	"github.com/pdiddy/research-assistant/internal/guard"
	"github.com/pdiddy/research-assistant/internal/history"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/synth"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer a research question from live web sources",
	Long: `Ask runs the full pipeline for one question: the question is screened by
the safety filter, decomposed into focused search queries, searched on the
web, the result pages are rendered and their readable text extracted, the
content is screened again, and a cited answer is synthesized.

The question can be given as arguments or entered interactively.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("max-results", 0, "maximum sources to use (default 5)")
	askCmd.Flags().Int("sub-queries", -1, "derived search queries per question (0 disables derivation)")
	askCmd.Flags().Bool("fail-open", false, "admit content with a warning when the safety filter is unavailable")
	askCmd.Flags().Bool("no-history", false, "do not archive this run")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			question = strings.TrimSpace(scanner.Text())
		}
		if question == "" {
			return fmt.Errorf("no question provided")
		}
	}

	cfg := config.Load(viper.GetViper())
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	if n, _ := cmd.Flags().GetInt("sub-queries"); n >= 0 {
		cfg.Synthesis.SubQueries = n
	}
	if open, _ := cmd.Flags().GetBool("fail-open"); open {
		cfg.Filter.FailClosed = false
	}

	creds, err := config.ResolveCredentials(os.Getenv, loadedSecrets)
	if err != nil {
		return err
	}

	groqClient := &groq.Client{
		APIKey:     creds.GroqAPIKey,
		HTTPClient: &http.Client{},
	}

	deps := assistant.Deps{
		Backend: &search.ExaBackend{
			Client: &http.Client{Timeout: cfg.Search.Timeout},
			APIKey: creds.ExaAPIKey,
		},
		Extractor: extract.NewChromeExtractor(cfg.Extraction),
		Filter:    &guard.PromptGuard{Client: groqClient, Config: cfg.Filter},
		Synth:     &synth.Engine{Client: groqClient, Config: cfg.Synthesis},
		Planner: func(ctx context.Context, q string) ([]string, error) {
			return synth.DeriveSubQueries(ctx, groqClient, cfg.Synthesis, q)
		},
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			defer store.Close()
			deps.History = store
		}
	}

	result, err := assistant.Run(context.Background(), question, deps, cfg, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(result.Answer.Text)

	if len(result.Answer.Citations) > 0 {
		fmt.Println("\nSources:")
		for i, url := range result.Answer.Citations {
			fmt.Printf("  %d. %s\n", i+1, url)
		}
	}
	if result.RunID != "" {
		fmt.Fprintf(os.Stderr, "\narchived as run %s\n", result.RunID)
	}
	return nil
}
