package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/tui"
)

var watchRefresh time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of tasks grouped by wave",
	Long: `Open a full-screen dashboard that re-reads the task set on an
interval and shows each wave's tasks with status, owner and subject.
The dashboard is read-only. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", time.Second, "reload interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	program := tea.NewProgram(tui.NewWatch(e.store, watchRefresh), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
