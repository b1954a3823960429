package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/store"
)

var rootFlag string

var rootCmd = &cobra.Command{
	Use:   "teamwork",
	Short: "Filesystem-based task coordination for worker teams",
	Long: `Teamwork coordinates multiple independent worker processes executing a
shared dependency graph of tasks, with no central server. All coordination
happens through a shared project root on the filesystem: one JSON record per
task, directory-based file locks, a computed wave partition, and per-inbox
mailboxes for completion notifications.

Workers list available tasks, claim one, do the work, and resolve it;
resolving notifies the orchestrator inbox so the orchestrator can react
without polling every task file.`,
	SilenceUsage: true,
}

// Execute runs the root command, mapping command errors to exit codes
// after all deferred cleanup has run.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps claim outcomes to their documented exit codes so scripted
// workers can branch without parsing stderr.
func exitCode(err error) int {
	switch {
	case errors.Is(err, store.ErrConflict):
		return exitConflict
	case errors.Is(err, store.ErrUnavailable):
		return exitUnavailable
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "project root directory (default from config, .teamwork)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(wavesCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(mailboxCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(watchCmd)
}

// printJSON writes v as indented JSON to stdout. Data commands emit JSON so
// scripted workers can parse results without scraping human output.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
