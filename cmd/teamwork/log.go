package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/history"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log [task-id]",
	Short: "Show the status transition ledger",
	Long: `Print recorded task status transitions as JSON, newest first across
all tasks or oldest first for a single task id. Transitions are recorded in
a project-local SQLite ledger; task files remain the canonical state.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "maximum transitions to show")
}

func runLog(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.ledger == nil {
		return fmt.Errorf("history ledger unavailable at %s", history.Path(e.root))
	}

	var transitions []history.Transition
	if len(args) == 1 {
		transitions, err = e.ledger.ListByTask(args[0])
	} else {
		transitions, err = e.ledger.Recent(logLimit)
	}
	if err != nil {
		return err
	}
	if transitions == nil {
		transitions = []history.Transition{}
	}
	return printJSON(transitions)
}
