package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the project coordination root",
	Long: `Initialize the coordination layout under the project root:

  <root>/tasks/     one JSON record per task
  <root>/mailbox/   per-inbox message files
  <root>/logs/      debug logs (when enabled)

Running init in an already-initialized root is a no-op.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	for _, dir := range []string{
		e.root,
		filepath.Join(e.root, "tasks"),
		filepath.Join(e.root, "mailbox"),
		filepath.Join(e.root, "logs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	fmt.Printf("Initialized teamwork root at %s\n", e.root)
	return nil
}
