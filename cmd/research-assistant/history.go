// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/config"
	"github.com/pdiddy/research-assistant/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the archive of past runs (list, show, search, export)",
	Long: `History manages the local archive of completed runs. Use subcommands to
list recent runs, show one run with its sources, search past questions and
answers, or export the whole archive.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one archived run with its answer and sources",
	Long: `Show prints the question, answer, citations, and per-source outcomes of
one archived run. The run ID may be abbreviated to a unique prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search over past questions and answers",
	RunE:  runHistorySearch,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole archive as YAML or JSON",
	RunE:  runHistoryExport,
}

func init() {
	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (default 20)")
	historySearchCmd.Flags().Int("limit", 0, "maximum matches to list (default 20)")
	historyExportCmd.Flags().Bool("json", false, "export as JSON instead of YAML")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Store, error) {
	cfg := config.Load(viper.GetViper())
	return history.NewStore(cfg.History)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}
	printSummaries(runs)
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("provide a search query")
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.SearchRuns(context.Background(), query, limit)
	if err != nil {
		return err
	}
	printSummaries(runs)
	return nil
}

func printSummaries(runs []history.Summary) {
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-5s  %s\n", "ID", "Asked", "Cites", "Question")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range runs {
		question := r.Question
		if len(question) > 50 {
			question = question[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-5d  %s\n",
			r.ID, r.AskedAt.Format("2006-01-02 15:04"), r.Citations, question)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Show(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", rec.ID)
	fmt.Printf("Asked:    %s\n", rec.AskedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Question: %s\n\n", rec.Question)
	fmt.Println(rec.Answer)

	if len(rec.Citations) > 0 {
		fmt.Println("\nCitations:")
		for i, url := range rec.Citations {
			fmt.Printf("  %d. %s\n", i+1, url)
		}
	}

	if len(rec.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range rec.Sources {
			status := "ok"
			switch {
			case src.Error != "":
				status = src.Error
			case !src.Extracted:
				status = "not extracted"
			case !src.Allowed:
				status = "blocked"
			}
			fmt.Printf("  %d. %s (%s)\n", src.Rank, src.URL, status)
		}
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return store.ExportJSON(context.Background(), os.Stdout)
	}
	return store.ExportYAML(context.Background(), os.Stdout)
}
