package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ShayCichocki/teamwork/internal/store"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"conflict", fmt.Errorf("claim task t1: %w", store.ErrConflict), exitConflict},
		{"unavailable", fmt.Errorf("claim task t1: %w", store.ErrUnavailable), exitUnavailable},
		{"not found", fmt.Errorf("%w: t1", store.ErrNotFound), 1},
		{"other", errors.New("boom"), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
