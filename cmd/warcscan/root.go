package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for warcscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warcscan",
		Short: "PII and language auditing tool for web archive corpora",
		Long: `warcscan audits WARC corpora before they are used for training or release.

It reads a sample of records, extracts their visible text, masks e-mail
addresses, phone numbers and IP addresses, and identifies the language of
each record. The report shows masked examples with their context for manual
review, exact per-category counts and the language distribution.

Archives are never modified.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
