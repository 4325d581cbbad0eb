// Package main implements the askd CLI: ingest builds the vector index from
// the configured knowledge sources, serve answers questions against it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seastacklabs/askd/internal/config"
	"github.com/seastacklabs/askd/internal/logging"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "askd",
	Short: "Knowledge-base question answering engine",
	Long: `askd answers natural-language questions from heterogeneous knowledge
sources: an indexed document corpus (including PDF attachments), code
repository references, and a relational database, tried in that order.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the askd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("askd", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger shared by subcommands.
func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
