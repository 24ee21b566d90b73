// Package cli implements the leaguelore command-line interface.
//
// Commands call the core through the driving ports; wiring happens in
// main via SetServices so the commands stay free of construction
// concerns.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/leaguelore/leaguelore-cli/internal/core/ports/driving"
	"github.com/leaguelore/leaguelore-cli/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Services the commands depend on, injected from main.
var (
	ingestOrchestrator driving.IngestOrchestrator
	indexBuilder       driving.IndexBuilder
	retriever          driving.Retriever
	curatedService     driving.CuratedService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "leaguelore",
	Short: "Build a searchable corpus from league archives",
	Long: `leaguelore ingests heterogeneous league archives (notebook exports,
mailbox files, podcast transcripts) into a normalised corpus and serves
hybrid keyword plus semantic retrieval over it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Services groups the driving ports the commands call.
type Services struct {
	Ingest  driving.IngestOrchestrator
	Indexer driving.IndexBuilder
	Query   driving.Retriever
	Curated driving.CuratedService
}

// SetServices injects the core services. Call before Execute.
func SetServices(s Services) {
	ingestOrchestrator = s.Ingest
	indexBuilder = s.Indexer
	retriever = s.Query
	curatedService = s.Curated
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
