package scores

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRun(id string, endedOffsetSec, waves, kills int) Run {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ended := base.Add(time.Duration(endedOffsetSec) * time.Second)
	return Run{
		ID:              id,
		StartedAt:       ended.Add(-90 * time.Second),
		EndedAt:         ended,
		WavesCleared:    waves,
		Kills:           kills,
		DurationSeconds: 90,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	for _, r := range []Run{
		testRun("run-a", 0, 2, 11),
		testRun("run-b", 60, 4, 23),
		testRun("run-c", 120, 1, 3),
	} {
		if err := store.Record(r); err != nil {
			t.Fatalf("failed to record %s: %v", r.ID, err)
		}
	}

	runs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}

	// Newest first
	wantOrder := []string{"run-c", "run-b", "run-a"}
	for i, want := range wantOrder {
		if runs[i].ID != want {
			t.Errorf("Expected runs[%d]=%s, got %s", i, want, runs[i].ID)
		}
	}

	got := runs[1]
	if got.WavesCleared != 4 || got.Kills != 23 {
		t.Errorf("Expected waves=4 kills=23, got waves=%d kills=%d", got.WavesCleared, got.Kills)
	}
	if got.DurationSeconds != 90 {
		t.Errorf("Expected duration 90, got %v", got.DurationSeconds)
	}
	wantEnded := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	if !got.EndedAt.Equal(wantEnded) {
		t.Errorf("Expected ended_at %v, got %v", wantEnded, got.EndedAt)
	}
	if !got.StartedAt.Equal(wantEnded.Add(-90 * time.Second)) {
		t.Errorf("Expected started_at %v, got %v", wantEnded.Add(-90*time.Second), got.StartedAt)
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		r := testRun(string(rune('a'+i)), i*10, 1, i)
		if err := store.Record(r); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	runs, err := store.Recent(2)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("Expected 2 runs, got %d", len(runs))
	}
}

func TestTopOrdering(t *testing.T) {
	store := openTestStore(t)

	for _, r := range []Run{
		testRun("mid", 0, 5, 7),
		testRun("low", 30, 3, 10),
		testRun("high", 60, 5, 9),
	} {
		if err := store.Record(r); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
	}

	runs, err := store.Top(10)
	if err != nil {
		t.Fatalf("failed to list top runs: %v", err)
	}
	wantOrder := []string{"high", "mid", "low"}
	if len(runs) != len(wantOrder) {
		t.Fatalf("Expected %d runs, got %d", len(wantOrder), len(runs))
	}
	for i, want := range wantOrder {
		if runs[i].ID != want {
			t.Errorf("Expected top[%d]=%s, got %s", i, want, runs[i].ID)
		}
	}
}

func TestDuplicateIDRejected(t *testing.T) {
	store := openTestStore(t)

	r := testRun("dup", 0, 1, 1)
	if err := store.Record(r); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := store.Record(r); err == nil {
		t.Error("Expected error recording duplicate run id")
	}
}

func TestEmptyStore(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected no runs, got %d", len(runs))
	}
}

func TestZeroLimitUsesDefault(t *testing.T) {
	store := openTestStore(t)

	if err := store.Record(testRun("only", 0, 2, 5)); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	runs, err := store.Recent(0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run with default limit, got %d", len(runs))
	}
}
