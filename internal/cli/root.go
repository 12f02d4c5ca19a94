// Package cli provides the command-line interface for careassist.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lightpath-health/careassist/internal/config"
	"github.com/lightpath-health/careassist/internal/pinecone"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and index client
	cfg   config.Config
	index *pinecone.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "careassist",
	Short: "Clinical task assistance toolkit",
	Long: `CareAssist is the operational toolkit for the task assistance console:
search the hosted protocol index, load protocol documents into it, and
generate synthetic patient charts for demos.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// .env is optional
		_ = godotenv.Load()
		cfg = config.Load()

		index = pinecone.New(cfg.PineconeIndexHost, cfg.PineconeAPIKey)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(protocolsCmd)
	rootCmd.AddCommand(patientsCmd)
}
