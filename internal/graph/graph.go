// Package graph computes execution waves from task dependency edges.
// It is stateless: the same task set always yields the same wave partition,
// so waves can be recomputed from scratch whenever edges change (for
// example after inserting fix tasks).
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gammazero/toposort"

	"github.com/ShayCichocki/teamwork/pkg/models"
)

// CycleError indicates the dependency graph contains a cycle.
// TaskIDs names every task that could not be assigned to a wave; callers
// must surface them rather than silently dropping tasks.
type CycleError struct {
	TaskIDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving tasks: %s", strings.Join(e.TaskIDs, ", "))
}

// ComputeWaves partitions tasks into execution waves.
// Wave 0 holds every task with no dependencies; wave k holds every task
// whose blockedBy set is fully contained in waves 0..k-1. Tasks within a
// wave are mutually independent by construction and are sorted by id for
// determinism. Returns a *CycleError if any tasks cannot be layered.
func ComputeWaves(tasks []*models.Task) ([]models.Wave, error) {
	if err := checkEdges(tasks); err != nil {
		return nil, err
	}

	layers, remaining := layer(tasks)
	if len(remaining) > 0 {
		return nil, &CycleError{TaskIDs: remaining}
	}

	waves := make([]models.Wave, len(layers))
	for i, ids := range layers {
		waves[i] = models.Wave{
			Index:   i,
			TaskIDs: ids,
			Status:  models.WaveStatusPlanning,
		}
	}
	return waves, nil
}

// Validate runs a topological sort over the task set and returns task ids
// in an order where every dependency precedes its dependents. The relative
// order of independent tasks is unspecified. Returns a *CycleError if the
// graph contains a cycle.
func Validate(tasks []*models.Task) ([]string, error) {
	if err := checkEdges(tasks); err != nil {
		return nil, err
	}

	var edges []toposort.Edge
	for _, task := range tasks {
		if len(task.BlockedBy) == 0 {
			// Edge from nil keeps dependency-free tasks in the sort.
			edges = append(edges, toposort.Edge{nil, task.ID})
			continue
		}
		for _, depID := range task.BlockedBy {
			edges = append(edges, toposort.Edge{depID, task.ID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		_, remaining := layer(tasks)
		return nil, &CycleError{TaskIDs: remaining}
	}

	order := make([]string, 0, len(sorted))
	for _, v := range sorted {
		if id, ok := v.(string); ok {
			order = append(order, id)
		}
	}
	return order, nil
}

// checkEdges verifies every blockedBy reference names a task in the set.
func checkEdges(tasks []*models.Task) error {
	ids := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		ids[task.ID] = true
	}
	for _, task := range tasks {
		for _, depID := range task.BlockedBy {
			if !ids[depID] {
				return fmt.Errorf("task %s is blocked by unknown task %s", task.ID, depID)
			}
		}
	}
	return nil
}

// layer assigns tasks to waves by repeated sweeps: a task joins the current
// wave once all of its dependencies are assigned to earlier waves. Tasks
// still unassigned after len(tasks) sweeps are cycle participants and are
// returned as remaining, sorted by id.
func layer(tasks []*models.Task) (layers [][]string, remaining []string) {
	assigned := make(map[string]bool, len(tasks))

	for iter := 0; iter < len(tasks); iter++ {
		var wave []string
		for _, task := range tasks {
			if assigned[task.ID] {
				continue
			}
			ready := true
			for _, depID := range task.BlockedBy {
				if !assigned[depID] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, task.ID)
			}
		}
		if len(wave) == 0 {
			break
		}
		sort.Strings(wave)
		for _, id := range wave {
			assigned[id] = true
		}
		layers = append(layers, wave)
	}

	for _, task := range tasks {
		if !assigned[task.ID] {
			remaining = append(remaining, task.ID)
		}
	}
	sort.Strings(remaining)
	return layers, remaining
}
