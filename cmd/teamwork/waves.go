package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/graph"
)

var (
	wavesFlat         bool
	wavesForceRelease bool
	wavesCached       bool
)

var wavesCmd = &cobra.Command{
	Use:   "waves",
	Short: "Compute the wave partition of the task set",
	Long: `Recompute execution waves from the current task set and persist them
to <root>/waves.json. Wave N contains only tasks whose dependencies are all
in waves before N, so the members of one wave can run in parallel.

A dependency cycle is fatal for the planning pass: the command exits
non-zero naming every task involved.

With --flat, print a single topological order instead of waves.
With --cached, print the last persisted partition without recomputing.`,
	Args: cobra.NoArgs,
	RunE: runWaves,
}

func init() {
	wavesCmd.Flags().BoolVar(&wavesFlat, "flat", false, "print a flat topological order")
	wavesCmd.Flags().BoolVar(&wavesForceRelease, "force-release", false, "release claims invalidated by new dependencies")
	wavesCmd.Flags().BoolVar(&wavesCached, "cached", false, "print the persisted partition without recomputing")
}

func runWaves(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if wavesCached {
		waves, err := e.store.LoadWaves()
		if err != nil {
			return err
		}
		return printJSON(waves)
	}

	if wavesFlat {
		tasks, err := e.store.List()
		if err != nil {
			return err
		}
		order, err := graph.Validate(tasks)
		if err != nil {
			return cycleFailure(err)
		}
		return printJSON(order)
	}

	force := wavesForceRelease || e.cfg.Waves.ForceRelease
	waves, err := e.store.RecomputeWaves(context.Background(), force)
	if err != nil {
		return cycleFailure(err)
	}
	return printJSON(waves)
}

// cycleFailure prints cycle participants on stderr before failing, so the
// malformed graph is surfaced to the operator rather than silently dropped.
func cycleFailure(err error) error {
	var cycleErr *graph.CycleError
	if errors.As(err, &cycleErr) {
		fmt.Fprintf(os.Stderr, "Dependency cycle - fix these tasks: %v\n", cycleErr.TaskIDs)
	}
	return err
}
