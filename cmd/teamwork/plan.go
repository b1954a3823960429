package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/plan"
	"github.com/ShayCichocki/teamwork/internal/store"
)

var planSkipExisting bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Apply task plans",
}

var planApplyCmd = &cobra.Command{
	Use:   "apply <file.yaml>",
	Short: "Create tasks from a plan file and compute waves",
	Long: `Load a YAML plan, validate its dependency graph (unknown references
and cycles fail before any task is created), create the task records, and
recompute the wave partition.

Plan format:

  goal: optional objective text
  tasks:
    - id: "1"
      subject: set up schema
      role: builder
      blocked_by: []
    - id: "2"
      subject: write queries
      blocked_by: ["1"]`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanApply,
}

func init() {
	planApplyCmd.Flags().BoolVar(&planSkipExisting, "skip-existing", false, "keep already-created tasks instead of failing")
	planCmd.AddCommand(planApplyCmd)
}

func runPlanApply(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := plan.Load(args[0])
	if err != nil {
		return cycleFailure(err)
	}

	created := 0
	for _, t := range p.ModelTasks() {
		if _, err := e.store.Create(t); err != nil {
			if planSkipExisting && errors.Is(err, store.ErrConflict) {
				fmt.Fprintf(os.Stderr, "Skipping existing task %s\n", t.ID)
				continue
			}
			return err
		}
		created++
	}

	waves, err := e.store.RecomputeWaves(context.Background(), e.cfg.Waves.ForceRelease)
	if err != nil {
		return cycleFailure(err)
	}

	fmt.Fprintf(os.Stderr, "Created %d tasks in %d waves\n", created, len(waves))
	return printJSON(waves)
}
