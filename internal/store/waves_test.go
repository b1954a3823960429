package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/teamwork/internal/graph"
	"github.com/ShayCichocki/teamwork/internal/record"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

func TestLoadWavesBeforeCompute(t *testing.T) {
	s := newTestStore(t)
	waves, err := s.LoadWaves()
	if err != nil {
		t.Fatalf("LoadWaves failed: %v", err)
	}
	if waves != nil {
		t.Errorf("waves = %v, want nil before first compute", waves)
	}
}

func TestRecomputeWavesPersists(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &models.Task{ID: "base", Subject: "schema"})
	mustCreate(t, s, &models.Task{ID: "api", Subject: "endpoints", BlockedBy: []string{"base"}})

	waves, err := s.RecomputeWaves(context.Background(), false)
	if err != nil {
		t.Fatalf("RecomputeWaves failed: %v", err)
	}
	if len(waves) != 2 {
		t.Fatalf("got %d waves, want 2", len(waves))
	}
	if waves[0].TaskIDs[0] != "base" || waves[1].TaskIDs[0] != "api" {
		t.Errorf("waves = %+v", waves)
	}
	if waves[0].Status != models.WaveStatusPlanning {
		t.Errorf("untouched wave status = %s, want planning", waves[0].Status)
	}

	loaded, err := s.LoadWaves()
	if err != nil {
		t.Fatalf("LoadWaves failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0].TaskIDs[0] != "base" {
		t.Errorf("persisted waves = %+v", loaded)
	}
}

func TestRecomputeWavesDerivesStatus(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &models.Task{ID: "a", Subject: "x"})
	mustCreate(t, s, &models.Task{ID: "b", Subject: "x"})
	mustCreate(t, s, &models.Task{ID: "c", Subject: "x", BlockedBy: []string{"a", "b"}})
	ctx := context.Background()

	if _, err := s.Claim(ctx, "a", "w1"); err != nil {
		t.Fatal(err)
	}
	resolved := models.TaskStatusResolved
	if _, err := s.Update(ctx, "a", Patch{Status: &resolved}, "w1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Claim(ctx, "b", "w2"); err != nil {
		t.Fatal(err)
	}

	waves, err := s.RecomputeWaves(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if waves[0].Status != models.WaveStatusInProgress {
		t.Errorf("wave 0 status = %s, want in_progress", waves[0].Status)
	}
	if waves[1].Status != models.WaveStatusPlanning {
		t.Errorf("wave 1 status = %s, want planning", waves[1].Status)
	}

	// Finishing the first wave completes it.
	if _, err := s.Update(ctx, "b", Patch{Status: &resolved}, "w2"); err != nil {
		t.Fatal(err)
	}
	waves, err = s.RecomputeWaves(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if waves[0].Status != models.WaveStatusCompleted {
		t.Errorf("wave 0 status = %s, want completed", waves[0].Status)
	}
}

func TestRecomputeWavesFailedMember(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &models.Task{ID: "a", Subject: "x"})
	ctx := context.Background()

	if _, err := s.Claim(ctx, "a", "w1"); err != nil {
		t.Fatal(err)
	}
	failed := models.TaskStatusFailed
	if _, err := s.Update(ctx, "a", Patch{Status: &failed}, "w1"); err != nil {
		t.Fatal(err)
	}

	waves, err := s.RecomputeWaves(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if waves[0].Status != models.WaveStatusFailed {
		t.Errorf("wave status = %s, want failed", waves[0].Status)
	}
}

func TestRecomputeWavesCycle(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &models.Task{ID: "a", Subject: "x", BlockedBy: []string{"b"}})
	mustCreate(t, s, &models.Task{ID: "b", Subject: "x", BlockedBy: []string{"a"}})

	_, err := s.RecomputeWaves(context.Background(), false)
	var cycleErr *graph.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error = %v, want *graph.CycleError", err)
	}
}

func TestRecomputeWavesForceRelease(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, &models.Task{ID: "a", Subject: "x"})
	mustCreate(t, s, &models.Task{ID: "b", Subject: "x"})
	ctx := context.Background()

	// Claim b while it has no dependencies.
	if _, err := s.Claim(ctx, "b", "w1"); err != nil {
		t.Fatal(err)
	}
	// A later planning pass makes b depend on a task that is not resolved.
	b, err := s.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	b.BlockedBy = []string{"a"}
	if err := record.Write(s.taskPath("b"), b); err != nil {
		t.Fatal(err)
	}

	// Without force release the stale claim stands.
	if _, err := s.RecomputeWaves(ctx, false); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	if got.Owner != "w1" {
		t.Fatalf("owner = %q, want w1 before force release", got.Owner)
	}

	if _, err := s.RecomputeWaves(ctx, true); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	if got.Owner != "" || got.Status != models.TaskStatusOpen {
		t.Errorf("task after force release = %+v", got)
	}
}
