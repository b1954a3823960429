package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a colored summary of tasks and waves",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var (
	statusOpen     = color.New(color.FgCyan)
	statusProgress = color.New(color.FgYellow)
	statusResolved = color.New(color.FgGreen)
	statusFailed   = color.New(color.FgRed)
	statusDim      = color.New(color.Faint)
	statusBold     = color.New(color.Bold)
)

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	tasks, err := e.store.List()
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks. Run 'teamwork plan apply <file>' or 'teamwork task create' to add some.")
		return nil
	}

	byID := make(map[string]*models.Task, len(tasks))
	counts := make(map[models.TaskStatus]int)
	for _, t := range tasks {
		byID[t.ID] = t
		counts[t.Status]++
	}

	statusBold.Printf("Tasks (%d)\n", len(tasks))
	fmt.Printf("  %s  %s  %s  %s\n",
		statusOpen.Sprintf("open: %d", counts[models.TaskStatusOpen]),
		statusProgress.Sprintf("in progress: %d", counts[models.TaskStatusInProgress]),
		statusResolved.Sprintf("resolved: %d", counts[models.TaskStatusResolved]),
		statusFailed.Sprintf("failed: %d", counts[models.TaskStatusFailed]),
	)
	fmt.Println()

	waves, err := e.store.LoadWaves()
	if err != nil {
		return err
	}
	if waves == nil {
		statusDim.Println("No wave partition computed yet. Run 'teamwork waves'.")
	}
	for _, w := range waves {
		statusBold.Printf("Wave %d", w.Index)
		statusDim.Printf("  [%s]\n", w.Status)
		for _, id := range w.TaskIDs {
			t := byID[id]
			if t == nil {
				statusDim.Printf("  %-12s (missing - recompute waves)\n", id)
				continue
			}
			line := fmt.Sprintf("  %-12s %-12s %s", t.ID, t.Status, t.Subject)
			if t.Owner != "" {
				line += statusDim.Sprintf("  (%s)", t.Owner)
			}
			taskColor(t.Status).Fprintln(os.Stdout, line)
		}
	}

	if e.ledger != nil {
		recent, err := e.ledger.Recent(5)
		if err == nil && len(recent) > 0 {
			fmt.Println()
			statusBold.Println("Recent activity")
			for _, tr := range recent {
				from := string(tr.From)
				if from == "" {
					from = "(new)"
				}
				statusDim.Printf("  %s  %s: %s -> %s", tr.At.Local().Format("15:04:05"), tr.TaskID, from, tr.To)
				if tr.Actor != "" {
					statusDim.Printf("  by %s", tr.Actor)
				}
				fmt.Println()
			}
		}
	}
	return nil
}

func taskColor(s models.TaskStatus) *color.Color {
	switch s {
	case models.TaskStatusInProgress:
		return statusProgress
	case models.TaskStatusResolved:
		return statusResolved
	case models.TaskStatusFailed:
		return statusFailed
	default:
		return statusOpen
	}
}
