package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/teamwork/internal/graph"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

const validPlan = `
goal: Ship the auth service
tasks:
  - id: schema
    subject: Design the user schema
    role: backend
  - id: api
    subject: Build the login endpoint
    role: backend
    blocked_by: [schema]
    success_criteria:
      - login returns a session token
  - id: ui
    subject: Build the login form
    role: frontend
    blocked_by: [api]
`

func TestParseValidPlan(t *testing.T) {
	p, err := Parse([]byte(validPlan))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Goal != "Ship the auth service" {
		t.Errorf("goal = %q", p.Goal)
	}
	if len(p.Tasks) != 3 {
		t.Fatalf("plan has %d tasks, want 3", len(p.Tasks))
	}
	api := p.Tasks[1]
	if api.ID != "api" || api.Role != "backend" {
		t.Errorf("task = %+v", api)
	}
	if len(api.BlockedBy) != 1 || api.BlockedBy[0] != "schema" {
		t.Errorf("blocked_by = %v", api.BlockedBy)
	}
	if len(api.SuccessCriteria) != 1 {
		t.Errorf("success_criteria = %v", api.SuccessCriteria)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(validPlan), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(p.Tasks) != 3 {
		t.Errorf("plan has %d tasks, want 3", len(p.Tasks))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestParseRejectsInvalidPlans(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "tasks: [",
			wantErr: "parse plan",
		},
		{
			name:    "empty",
			yaml:    "goal: nothing to do",
			wantErr: "no tasks",
		},
		{
			name:    "missing id",
			yaml:    "tasks:\n  - subject: anonymous",
			wantErr: "no id",
		},
		{
			name:    "missing subject",
			yaml:    "tasks:\n  - id: t1",
			wantErr: "no subject",
		},
		{
			name:    "duplicate id",
			yaml:    "tasks:\n  - id: t1\n    subject: a\n  - id: t1\n    subject: b",
			wantErr: "appears twice",
		},
		{
			name:    "unknown dependency",
			yaml:    "tasks:\n  - id: t1\n    subject: a\n    blocked_by: [ghost]",
			wantErr: "unknown task",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestParseRejectsCycle(t *testing.T) {
	cyclic := `
tasks:
  - id: a
    subject: first
    blocked_by: [b]
  - id: b
    subject: second
    blocked_by: [a]
`
	_, err := Parse([]byte(cyclic))
	var cycleErr *graph.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error = %v, want *graph.CycleError", err)
	}
}

func TestModelTasks(t *testing.T) {
	p, err := Parse([]byte(validPlan))
	if err != nil {
		t.Fatal(err)
	}

	tasks := p.ModelTasks()
	if len(tasks) != 3 {
		t.Fatalf("ModelTasks returned %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.Status != models.TaskStatusOpen {
			t.Errorf("task %s status = %s, want open", task.ID, task.Status)
		}
	}

	// The converted tasks must not alias the plan's slices.
	tasks[1].BlockedBy[0] = "mutated"
	if p.Tasks[1].BlockedBy[0] != "schema" {
		t.Error("ModelTasks aliases the plan's blocked_by slice")
	}
}
