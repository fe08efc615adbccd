// Package cmd implements the ris-scraper command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	// debug forces debug logging
	debug bool

	rootCmd = &cobra.Command{
		Use:           "ris-scraper",
		Short:         "Scraper for more-rubin council information systems",
		Long:          `Collects meetings, agenda items and attachments of a council information system into a database and exports them as JSON, CSV and XLSX.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newScrapeCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newCommitteesCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newChangedCommand())
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
