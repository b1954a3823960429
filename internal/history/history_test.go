package history

import (
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/teamwork/pkg/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(Path(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndListByTask(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Record("t1", "", models.TaskStatusOpen, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record("t1", models.TaskStatusOpen, models.TaskStatusInProgress, "w1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record("t2", "", models.TaskStatusOpen, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	transitions, err := l.ListByTask("t1")
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("ListByTask returned %d transitions, want 2", len(transitions))
	}
	if transitions[0].To != models.TaskStatusOpen || transitions[0].From != "" {
		t.Errorf("first transition = %+v", transitions[0])
	}
	if transitions[1].From != models.TaskStatusOpen || transitions[1].To != models.TaskStatusInProgress {
		t.Errorf("second transition = %+v", transitions[1])
	}
	if transitions[1].Actor != "w1" {
		t.Errorf("actor = %q, want w1", transitions[1].Actor)
	}
	if transitions[0].At.IsZero() {
		t.Error("At not recorded")
	}
}

func TestListByTaskEmpty(t *testing.T) {
	l := newTestLedger(t)
	transitions, err := l.ListByTask("nothing")
	if err != nil {
		t.Fatalf("ListByTask failed: %v", err)
	}
	if len(transitions) != 0 {
		t.Errorf("transitions = %v, want none", transitions)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	l := newTestLedger(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := l.Record(id, "", models.TaskStatusOpen, ""); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := l.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d transitions, want 2", len(recent))
	}
	if recent[0].TaskID != "c" || recent[1].TaskID != "b" {
		t.Errorf("Recent order = %s, %s, want c, b", recent[0].TaskID, recent[1].TaskID)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Record("t1", "", models.TaskStatusOpen, ""); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening must not rerun migrations destructively.
	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l2.Close()

	transitions, err := l2.ListByTask("t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(transitions) != 1 {
		t.Errorf("transitions after reopen = %d, want 1", len(transitions))
	}
}

func TestPath(t *testing.T) {
	got := Path("/proj/.teamwork")
	want := filepath.Join("/proj/.teamwork", "history.db")
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}
