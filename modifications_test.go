package templatesync

import (
	"fmt"
	"sync"
	"testing"
)

// TestModificationStore_RoundTrip: a written value reads back, an empty write
// removes the key.
func TestModificationStore_RoundTrip(t *testing.T) {
	store := NewModificationStore()

	store.Apply("Headline", "Hello")
	if v, ok := store.Get("Headline"); !ok || v != "Hello" {
		t.Errorf("Get(Headline) = (%q, %v), want (Hello, true)", v, ok)
	}

	store.Apply("Headline", "")
	if _, ok := store.Get("Headline"); ok {
		t.Error("empty write did not remove the key")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

// TestModificationStore_SnapshotIsolated: mutating a snapshot does not leak
// back into the store.
func TestModificationStore_SnapshotIsolated(t *testing.T) {
	store := NewModificationStore()
	store.Set("a", "1")

	snap := store.Snapshot()
	snap["a"] = "tampered"
	snap["b"] = "2"

	if v, _ := store.Get("a"); v != "1" {
		t.Errorf("store value changed through snapshot: %q", v)
	}
	if _, ok := store.Get("b"); ok {
		t.Error("snapshot write leaked into store")
	}
}

// TestModificationStore_Reset drops everything at once.
func TestModificationStore_Reset(t *testing.T) {
	store := NewModificationStore()
	store.Set("a", "1")
	store.Set("b", "2")

	store.Reset()
	if store.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", store.Len())
	}
}

// TestModificationStore_ConcurrentWriters: overlapping writers are serialized
// by the store; every key lands.
func TestModificationStore_ConcurrentWriters(t *testing.T) {
	store := NewModificationStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Apply(fmt.Sprintf("key%d", i), "v")
		}(i)
	}
	wg.Wait()

	if store.Len() != 50 {
		t.Errorf("Len = %d, want 50", store.Len())
	}
}
