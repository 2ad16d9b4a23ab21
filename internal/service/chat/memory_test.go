package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pairforge-ai/pairforge/backend/internal/service/ai"
)

func backdate(s *Session, to time.Time) {
	s.mu.Lock()
	s.lastActive = to
	s.mu.Unlock()
}

func buildFor(t *testing.T, counter *int) func(key string) (*Session, error) {
	t.Helper()
	return func(key string) (*Session, error) {
		if counter != nil {
			*counter++
		}
		return NewSession(context.Background(), key, &ai.MockChatModel{Chunks: []string{"ok"}}, Options{})
	}
}

func TestGetOrCreateMintsOpaqueKeys(t *testing.T) {
	memory := NewMemory(MemoryConfig{})
	defer memory.Close()

	first, created, err := memory.GetOrCreate("", buildFor(t, nil))
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}
	if !created {
		t.Fatal("expected a new session")
	}
	if first.Key() == "" {
		t.Fatal("expected a minted key")
	}

	second, _, err := memory.GetOrCreate("", buildFor(t, nil))
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}
	if second.Key() == first.Key() {
		t.Fatalf("minted keys must be unique, both were %q", first.Key())
	}
}

func TestGetOrCreateIsIdempotentForKnownKeys(t *testing.T) {
	memory := NewMemory(MemoryConfig{})
	defer memory.Close()

	calls := 0
	first, created, err := memory.GetOrCreate("alpha", buildFor(t, &calls))
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}
	if !created || calls != 1 {
		t.Fatalf("expected one build for a fresh key, created=%v calls=%d", created, calls)
	}

	again, created, err := memory.GetOrCreate("alpha", buildFor(t, &calls))
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}
	if created || calls != 1 {
		t.Fatalf("known key must not rebuild, created=%v calls=%d", created, calls)
	}
	if again != first {
		t.Fatal("expected the same session instance for a known key")
	}
}

func TestGetOrCreateConcurrentSameKeyRegistersOnce(t *testing.T) {
	memory := NewMemory(MemoryConfig{})
	defer memory.Close()

	const callers = 16
	var wg sync.WaitGroup
	sessions := make([]*Session, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, _, err := memory.GetOrCreate("shared", buildFor(t, nil))
			if err != nil {
				t.Errorf("GetOrCreate err: %v", err)
				return
			}
			sessions[i] = session
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent callers must observe the same registered session")
		}
	}
	if memory.Len() != 1 {
		t.Fatalf("expected one registered session, got %d", memory.Len())
	}
}

func TestSweepEvictsExpiredIdleSessions(t *testing.T) {
	memory := NewMemory(MemoryConfig{TTL: 10 * time.Minute})
	defer memory.Close()

	session, _, err := memory.GetOrCreate("stale", buildFor(t, nil))
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}
	backdate(session, time.Now().Add(-time.Hour))

	memory.sweep(time.Now())

	if _, ok := memory.Get("stale"); ok {
		t.Fatal("expected expired idle session to be evicted")
	}
}

func TestSweepNeverEvictsGeneratingSessions(t *testing.T) {
	memory := NewMemory(MemoryConfig{TTL: 10 * time.Minute})
	defer memory.Close()

	build := func(key string) (*Session, error) {
		backend := &ai.MockChatModel{
			Chunks:     []string{"a", "b"},
			ChunkDelay: 100 * time.Millisecond,
		}
		return NewSession(context.Background(), key, backend, Options{})
	}

	session, _, err := memory.GetOrCreate("busy", build)
	if err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}

	stream, err := session.Start(context.Background(), "hold the line")
	if err != nil {
		t.Fatalf("Start err: %v", err)
	}
	defer stream.Close()

	backdate(session, time.Now().Add(-time.Hour))
	memory.sweep(time.Now())

	if _, ok := memory.Get("busy"); !ok {
		t.Fatal("generating session must survive TTL sweeps")
	}
}

func TestSweepEnforcesMaxSessionsByEvictingOldestIdle(t *testing.T) {
	memory := NewMemory(MemoryConfig{TTL: time.Hour, MaxSessions: 2})
	defer memory.Close()

	for i, key := range []string{"one", "two", "three"} {
		session, _, err := memory.GetOrCreate(key, buildFor(t, nil))
		if err != nil {
			t.Fatalf("GetOrCreate err: %v", err)
		}
		// Make "one" the oldest without waiting.
		backdate(session, time.Now().Add(time.Duration(i-3) * time.Minute))
	}

	memory.sweep(time.Now())

	if memory.Len() != 2 {
		t.Fatalf("expected registry trimmed to 2, got %d", memory.Len())
	}
	if _, ok := memory.Get("one"); ok {
		t.Fatal("expected the oldest idle session to be evicted first")
	}
	if _, ok := memory.Get("three"); !ok {
		t.Fatal("expected the newest session to survive")
	}
}

func TestRemoveDropsSession(t *testing.T) {
	memory := NewMemory(MemoryConfig{})
	defer memory.Close()

	if _, _, err := memory.GetOrCreate("gone", buildFor(t, nil)); err != nil {
		t.Fatalf("GetOrCreate err: %v", err)
	}

	if !memory.Remove("gone") {
		t.Fatal("expected Remove to report the session existed")
	}
	if memory.Remove("gone") {
		t.Fatal("expected second Remove to report a miss")
	}
	if _, ok := memory.Get("gone"); ok {
		t.Fatal("expected session to be gone after Remove")
	}
}
