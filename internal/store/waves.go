package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ShayCichocki/teamwork/internal/graph"
	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// wavesPath returns the location of the persisted wave partition.
func (s *Store) wavesPath() string {
	return filepath.Join(s.root, "waves.json")
}

// SaveWaves persists a computed wave partition to <root>/waves.json.
func (s *Store) SaveWaves(waves []models.Wave) error {
	if err := record.Write(s.wavesPath(), waves); err != nil {
		return fmt.Errorf("save waves: %w", err)
	}
	return nil
}

// LoadWaves returns the last persisted wave partition, or nil when none has
// been computed yet.
func (s *Store) LoadWaves() ([]models.Wave, error) {
	var waves []models.Wave
	err := record.Read(s.wavesPath(), &waves)
	if errors.Is(err, record.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load waves: %w", err)
	}
	return waves, nil
}

// RecomputeWaves recomputes the wave partition from the current task set,
// derives each wave's status from its members, persists the result and
// returns it. When forceRelease is true, claimed tasks whose dependencies
// are no longer all resolved (for example after fix tasks were inserted)
// are released back to open first.
func (s *Store) RecomputeWaves(ctx context.Context, forceRelease bool) ([]models.Wave, error) {
	tasks, err := s.List()
	if err != nil {
		return nil, err
	}

	if forceRelease {
		if err := s.releaseInvalidClaims(ctx, tasks); err != nil {
			return nil, err
		}
		if tasks, err = s.List(); err != nil {
			return nil, err
		}
	}

	waves, err := graph.ComputeWaves(tasks)
	if err != nil {
		return nil, err
	}

	statusByID := make(map[string]models.TaskStatus, len(tasks))
	for _, t := range tasks {
		statusByID[t.ID] = t.Status
	}
	for i := range waves {
		waves[i].Status = waveStatus(waves[i].TaskIDs, statusByID)
	}

	if err := s.SaveWaves(waves); err != nil {
		return nil, err
	}
	return waves, nil
}

// releaseInvalidClaims releases in-progress tasks whose blockedBy set is no
// longer fully resolved. These claims were legal when made; a later planning
// pass invalidated them.
func (s *Store) releaseInvalidClaims(ctx context.Context, tasks []*models.Task) error {
	statusByID := make(map[string]models.TaskStatus, len(tasks))
	for _, t := range tasks {
		statusByID[t.ID] = t.Status
	}
	for _, t := range tasks {
		if t.Status != models.TaskStatusInProgress || depsResolved(t, statusByID) {
			continue
		}
		s.log.Log("[store] force-releasing %s (owner %s): dependencies no longer resolved", t.ID, t.Owner)
		if _, err := s.Release(ctx, t.ID, ""); err != nil {
			return fmt.Errorf("force release %s: %w", t.ID, err)
		}
	}
	return nil
}

// waveStatus derives a wave's status from its member task statuses.
func waveStatus(ids []string, statusByID map[string]models.TaskStatus) models.WaveStatus {
	resolved := 0
	started := false
	for _, id := range ids {
		switch statusByID[id] {
		case models.TaskStatusFailed:
			return models.WaveStatusFailed
		case models.TaskStatusResolved:
			resolved++
			started = true
		case models.TaskStatusInProgress:
			started = true
		}
	}
	switch {
	case resolved == len(ids):
		return models.WaveStatusCompleted
	case started:
		return models.WaveStatusInProgress
	default:
		return models.WaveStatusPlanning
	}
}
