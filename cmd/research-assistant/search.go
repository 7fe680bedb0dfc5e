// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/config"
	"github.com/pdiddy/research-assistant/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the web and print ranked results",
	Long: `Search queries the web search service directly, without extraction or
synthesis. Results are deduplicated and ranked by relevance. Useful for
inspecting what sources a question would draw on.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to return (default 5)")
	searchCmd.Flags().String("type", "", "search mode: auto, neural, or keyword (default auto)")
	searchCmd.Flags().StringSlice("include-domain", nil, "restrict results to these domains")
	searchCmd.Flags().StringSlice("exclude-domain", nil, "remove results from these domains")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("provide a search query")
	}

	cfg := config.Load(viper.GetViper())
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	if t, _ := cmd.Flags().GetString("type"); t != "" {
		cfg.Search.SearchType = t
	}
	if d, _ := cmd.Flags().GetStringSlice("include-domain"); len(d) > 0 {
		cfg.Search.IncludeDomains = d
	}
	if d, _ := cmd.Flags().GetStringSlice("exclude-domain"); len(d) > 0 {
		cfg.Search.ExcludeDomains = d
	}

	creds, err := config.ResolveCredentials(os.Getenv, loadedSecrets)
	if err != nil {
		return err
	}

	backend := &search.ExaBackend{
		Client: &http.Client{Timeout: cfg.Search.Timeout},
		APIKey: creds.ExaAPIKey,
	}

	out, err := search.Search(context.Background(), backend, []string{query}, cfg.Search, os.Stderr)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}
