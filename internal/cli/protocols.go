package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightpath-health/careassist/internal/protocol"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "Manage the hosted protocol index",
}

var protocolsLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Upload protocol chunks from a JSONL file",
	Long: `Load protocol chunks into the hosted index. The file holds one JSON
protocol chunk per line; embedding happens server-side on upsert.

Example:
  careassist protocols load protocols.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runProtocolsLoad,
}

var protocolsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show protocol index record counts",
	RunE:  runProtocolsStats,
}

func init() {
	protocolsCmd.AddCommand(protocolsLoadCmd)
	protocolsCmd.AddCommand(protocolsStatsCmd)
}

func runProtocolsLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	loader := protocol.NewLoader(index, cfg.PineconeNamespace)
	count, err := loader.LoadFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load protocols: %w", err)
	}

	fmt.Printf("Uploaded %d protocol chunks to namespace %q.\n", count, cfg.PineconeNamespace)
	fmt.Println("Note: server-side embedding may take a short while before records are searchable.")
	return nil
}

func runProtocolsStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc := protocol.NewService(index, cfg.PineconeNamespace, cfg.RerankModel)
	stats, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("index stats: %w", err)
	}

	fmt.Printf("Total records: %d\n", stats.TotalRecordCount)
	for name, ns := range stats.Namespaces {
		fmt.Printf("  %s: %d\n", name, ns.RecordCount)
	}
	return nil
}
