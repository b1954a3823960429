// Package plan loads task plans from YAML files. A plan is the output of an
// orchestrator planning pass: a batch of tasks with dependency edges that is
// validated as a whole (unknown references, cycles) before any task record
// is created.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/teamwork/internal/graph"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Plan is a parsed plan file.
type Plan struct {
	// Goal is the overall objective the tasks decompose.
	Goal string `yaml:"goal,omitempty"`
	// Tasks are the units of work to create.
	Tasks []Task `yaml:"tasks"`
}

// Task is one task entry in a plan file.
type Task struct {
	ID              string   `yaml:"id"`
	Subject         string   `yaml:"subject"`
	Description     string   `yaml:"description,omitempty"`
	Role            string   `yaml:"role,omitempty"`
	BlockedBy       []string `yaml:"blocked_by,omitempty"`
	SuccessCriteria []string `yaml:"success_criteria,omitempty"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates plan YAML.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the plan's tasks for missing fields, duplicate ids,
// unknown dependency references, and cycles.
func (p *Plan) Validate() error {
	if len(p.Tasks) == 0 {
		return fmt.Errorf("plan contains no tasks")
	}

	seen := make(map[string]bool, len(p.Tasks))
	for i, t := range p.Tasks {
		if t.ID == "" {
			return fmt.Errorf("plan task %d has no id", i)
		}
		if t.Subject == "" {
			return fmt.Errorf("plan task %s has no subject", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("plan task id %s appears twice", t.ID)
		}
		seen[t.ID] = true
	}

	if _, err := graph.Validate(p.ModelTasks()); err != nil {
		return fmt.Errorf("plan dependency graph: %w", err)
	}
	return nil
}

// ModelTasks converts plan entries into task records ready for the store.
func (p *Plan) ModelTasks() []*models.Task {
	tasks := make([]*models.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		tasks[i] = &models.Task{
			ID:              t.ID,
			Subject:         t.Subject,
			Description:     t.Description,
			Role:            t.Role,
			BlockedBy:       append([]string(nil), t.BlockedBy...),
			SuccessCriteria: append([]string(nil), t.SuccessCriteria...),
			Status:          models.TaskStatusOpen,
		}
	}
	return tasks
}
