package pipeline

import (
	"testing"
	"time"

	"github.com/perryops/periaudit/internal/config"
)

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionStore_PutGet(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s := newSession("abc")
	store.Put(s)

	if got := store.Get("abc"); got != s {
		t.Error("expected same session back")
	}
	if got := store.Get("missing"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestSessionStore_CleanupEvictsExpired(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	stale := newSession("stale")
	stale.UpdatedAt = time.Now().Add(-time.Minute)
	fresh := newSession("fresh")
	store.Put(stale)
	store.Put(fresh)

	store.Cleanup()

	if store.Get("stale") != nil {
		t.Error("expected stale session evicted")
	}
	if store.Get("fresh") == nil {
		t.Error("expected fresh session kept")
	}
}

func TestSessionStore_CleanupConcurrentWithUpdates(t *testing.T) {
	store := NewSessionStore(time.Hour)
	s := newSession("busy")
	store.Put(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.SetStatus(StatusAuditing, "auditing compliance")
		}
	}()
	for i := 0; i < 100; i++ {
		store.Cleanup()
	}
	<-done

	if store.Get("busy") == nil {
		t.Error("expected active session kept")
	}
}

func TestSession_LastUpdatedTracksStatusChanges(t *testing.T) {
	s := newSession("abc")
	before := s.LastUpdated()
	time.Sleep(time.Millisecond)
	s.SetStatus(StatusParsing, "parsing guideline")
	if !s.LastUpdated().After(before) {
		t.Error("expected LastUpdated to advance on status change")
	}
}

func TestSession_SnapshotReflectsState(t *testing.T) {
	s := newSession("abc")
	s.GuidelineFilename = "guideline.pdf"
	s.SetStatus(StatusAuditing, "auditing compliance")
	s.AddError("structure: timeout")

	snap := s.Snapshot()
	if snap.ID != "abc" || snap.Status != StatusAuditing || snap.Phase != "auditing compliance" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.GuidelineFilename != "guideline.pdf" {
		t.Errorf("expected filename in snapshot, got %q", snap.GuidelineFilename)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "structure: timeout" {
		t.Errorf("unexpected errors: %+v", snap.Errors)
	}
}

func TestSession_SnapshotErrorsNeverNil(t *testing.T) {
	snap := newSession("abc").Snapshot()
	if snap.Errors == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestSession_ResultNilUntilSet(t *testing.T) {
	s := newSession("abc")
	if s.Result() != nil {
		t.Error("expected nil result before completion")
	}
	s.SetResult(&Result{SectionCount: 3})
	if r := s.Result(); r == nil || r.SectionCount != 3 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	cfg := config.Config{MaxQueueSize: 1, SessionTTL: time.Hour}
	orch := NewOrchestrator(cfg, nil, nil, nil)

	first := newSession("first")
	if err := orch.Submit(first); err != nil {
		t.Fatalf("unexpected error on first submit: %v", err)
	}

	second := newSession("second")
	if err := orch.Submit(second); err == nil {
		t.Fatal("expected queue-full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected session marked failed, got %s", second.Snapshot().Status)
	}

	// Both sessions stay retrievable for status polling.
	if orch.GetSession("first") == nil || orch.GetSession("second") == nil {
		t.Error("expected both sessions registered")
	}
	if orch.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", orch.QueueDepth())
	}
}
