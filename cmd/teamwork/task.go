package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/internal/store"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Exit codes for claim outcomes, so scripted workers can branch without
// parsing stderr.
const (
	exitConflict    = 2
	exitUnavailable = 3
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, inspect and mutate tasks",
}

var (
	createSubject     string
	createDescription string
	createRole        string
	createBlockedBy   []string
	createCriteria    []string

	listAvailableOnly bool
	listRole          string

	holderFlag     string
	updateStatus   string
	updateEvidence []string
	updateRelease  bool
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCreate,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks as JSON. With --available, only tasks that may be claimed
right now: status open, no owner, every blockedBy dependency resolved.`,
	Args: cobra.NoArgs,
	RunE: runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskClaimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "Take exclusive ownership of an open task",
	Long: `Claim a task for the holder given with --as (a generated
hostname-suffix id when omitted). Exactly one of any number of concurrent
claims succeeds.

Exit codes: 0 claimed, 2 conflict (already owned - pick another task),
3 unavailable (blocked by an unresolved dependency), 1 other error.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskClaim,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change status, append evidence, or release",
	Long: `Apply a patch to a task: --status changes the status, --evidence
appends evidence entries (repeatable), --release clears the owner and
reopens the task. Resolving a task notifies the orchestrator inbox.

--as must match the current owner; omit it for an orchestrator override.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskUpdate,
}

var taskResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark a task resolved",
	Long: `Mark a task resolved, appending any --evidence entries. Resolving
sends an idle notification to the orchestrator inbox so it can react without
polling task files.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskResolve,
}

var taskReleaseCmd = &cobra.Command{
	Use:   "release <id>",
	Short: "Release a claimed task back to open",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRelease,
}

func init() {
	taskCreateCmd.Flags().StringVar(&createSubject, "subject", "", "short task description (required)")
	taskCreateCmd.Flags().StringVar(&createDescription, "description", "", "detailed task description")
	taskCreateCmd.Flags().StringVar(&createRole, "role", "", "worker role tag")
	taskCreateCmd.Flags().StringSliceVar(&createBlockedBy, "blocked-by", nil, "task ids that must resolve first")
	taskCreateCmd.Flags().StringArrayVar(&createCriteria, "criteria", nil, "success criterion (repeatable)")
	taskCreateCmd.MarkFlagRequired("subject")

	taskListCmd.Flags().BoolVar(&listAvailableOnly, "available", false, "only tasks claimable right now")
	taskListCmd.Flags().StringVar(&listRole, "role", "", "filter by role tag")

	for _, c := range []*cobra.Command{taskClaimCmd, taskUpdateCmd, taskResolveCmd, taskReleaseCmd} {
		c.Flags().StringVar(&holderFlag, "as", "", "holder identity (worker/session id)")
	}
	taskUpdateCmd.Flags().StringVar(&updateStatus, "status", "", "new status (open|in_progress|resolved|failed)")
	taskUpdateCmd.Flags().StringArrayVar(&updateEvidence, "evidence", nil, "evidence entry to append (repeatable)")
	taskUpdateCmd.Flags().BoolVar(&updateRelease, "release", false, "clear owner and reopen the task")
	taskResolveCmd.Flags().StringArrayVar(&updateEvidence, "evidence", nil, "evidence entry to append (repeatable)")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskClaimCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskResolveCmd)
	taskCmd.AddCommand(taskReleaseCmd)
}

// signalContext returns a context cancelled by SIGINT/SIGTERM so lock and
// mailbox waits abort promptly instead of running out their timeouts.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTaskCreate(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	task, err := e.store.Create(&models.Task{
		ID:              args[0],
		Subject:         createSubject,
		Description:     createDescription,
		Role:            createRole,
		BlockedBy:       createBlockedBy,
		SuccessCriteria: createCriteria,
	})
	if err != nil {
		return err
	}
	return printJSON(task)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var tasks []*models.Task
	if listAvailableOnly {
		tasks, err = e.store.ListAvailable(store.Filter{Role: listRole})
	} else {
		tasks, err = e.store.List()
		if err == nil && listRole != "" {
			filtered := tasks[:0]
			for _, t := range tasks {
				if t.Role == listRole {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
	}
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return printJSON(tasks)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	task, err := e.store.Get(args[0])
	if err != nil {
		return err
	}
	return printJSON(task)
}

func runTaskClaim(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	holder := holderFlag
	if holder == "" {
		holder = defaultHolderID()
	}

	ctx, stop := signalContext()
	defer stop()

	task, err := e.store.Claim(ctx, args[0], holder)
	if err != nil {
		// Execute maps ErrConflict/ErrUnavailable to their exit codes;
		// exiting here would skip the deferred teardown.
		return err
	}
	return printJSON(task)
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	patch := store.Patch{Evidence: updateEvidence, Release: updateRelease}
	if updateStatus != "" {
		status := models.TaskStatus(updateStatus)
		patch.Status = &status
	}

	ctx, stop := signalContext()
	defer stop()

	task, err := e.store.Update(ctx, args[0], patch, holderFlag)
	if err != nil {
		return err
	}
	return printJSON(task)
}

func runTaskResolve(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	status := models.TaskStatusResolved
	task, err := e.store.Update(ctx, args[0], store.Patch{Status: &status, Evidence: updateEvidence}, holderFlag)
	if err != nil {
		return err
	}
	return printJSON(task)
}

func runTaskRelease(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	task, err := e.store.Release(ctx, args[0], holderFlag)
	if err != nil {
		return err
	}
	return printJSON(task)
}
