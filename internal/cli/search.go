package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lightpath-health/careassist/internal/protocol"
)

var (
	searchPriority string
	searchProgram  string
	searchTopK     int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the protocol index with semantic reranking",
	Long: `Search care protocols by free-text query. Results are reranked
server-side for relevance.

Examples:
  careassist search "severe hyperglycemia overnight"
  careassist search "blood pressure outreach" --priority P0
  careassist search "new member onboarding" -n 3`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchPriority, "priority", "p", "", "filter by priority (P0-P3)")
	searchCmd.Flags().StringVar(&searchProgram, "program", "", "filter by program")
	searchCmd.Flags().IntVarP(&searchTopK, "limit", "n", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	svc := protocol.NewService(index, cfg.PineconeNamespace, cfg.RerankModel)
	results, err := svc.Search(ctx, query, protocol.Filters{
		Priority: searchPriority,
		Program:  searchProgram,
	}, searchTopK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, rec := range results {
		fmt.Printf("%d. %s - %s [%s] (score %.3f)\n", i+1, rec.TaskCode, rec.TaskName, rec.Priority, rec.Score)
		if len(rec.Roles) > 0 {
			fmt.Printf("   Roles: %s\n", strings.Join(rec.Roles, ", "))
		}
		if verbose && rec.Content != "" {
			fmt.Printf("   %s\n", rec.Content)
		}
		fmt.Println()
	}

	return nil
}
