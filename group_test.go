package sequex

import (
	"errors"
	"sync"
	"testing"
)

func TestGroupOpen(t *testing.T) {
	var g Group[string, int]

	handles := g.Open("a", 7, 3)
	if len(handles) != 3 {
		t.Fatalf("Open returned %d handles, want 3", len(handles))
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}

	guard, err := handles[0].Lock()
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if v := guard.Get(); v != 7 {
		t.Errorf("initial value = %d, want 7", v)
	}
	guard.Unlock()
}

func TestGroupOpenReuses(t *testing.T) {
	var g Group[string, int]

	first := g.Open("a", 1, 2)
	second := g.Open("a", 99, 5)

	if len(second) != 2 || second[0] != first[0] {
		t.Errorf("second Open did not return the existing rotation")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestGroupClose(t *testing.T) {
	var g Group[string, int]

	handles := g.Open("a", 0, 2)
	if !g.Close("a") {
		t.Fatalf("Close returned false for a live rotation")
	}
	if g.Close("a") {
		t.Errorf("Close returned true for a removed rotation")
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d, want 0", g.Len())
	}
	if _, err := handles[0].Lock(); !errors.Is(err, ErrPoisoned) {
		t.Errorf("Lock on closed rotation err = %v, want ErrPoisoned", err)
	}

	// Reopening the key starts an independent rotation.
	fresh := g.Open("a", 0, 2)
	if fresh[0].Poisoned() {
		t.Errorf("reopened rotation inherited poison")
	}
}

func TestGroupConcurrentOpen(t *testing.T) {
	var g Group[int, int]
	const workers = 16

	results := make([]*Sequex[int], workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			results[i] = g.Open(42, 0, 4)[0]
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent Open returned different rotations for one key")
		}
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}
