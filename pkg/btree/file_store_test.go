package btree

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreAllocateReadWriteFree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.ygg")
	store, err := OpenFileStore(path, 4)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	if store.Count() != 0 {
		t.Fatalf("Fresh store holds %d nodes", store.Count())
	}
	if store.Root() != NilNode {
		t.Fatalf("Fresh store root = %d, want NilNode", store.Root())
	}

	n, err := store.Allocate(true)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	n.Keys = append(n.Keys, 10, 20)
	n.Values = append(n.Values, 100, 200)
	if err := store.Write(n); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read(n.ID)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !got.Leaf || got.Len() != 2 || got.Keys[0] != 10 || got.Values[1] != 200 {
		t.Errorf("Read returned %+v", got)
	}

	// The copy is owned: mutating it must not leak into the store.
	got.Keys[0] = 999
	again, err := store.Read(n.ID)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if again.Keys[0] != 10 {
		t.Errorf("Borrowed copy aliased the stored node")
	}

	if err := store.Free(n.ID); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if _, err := store.Read(n.ID); err != ErrInvalidNode {
		t.Errorf("Read of freed slot: expected ErrInvalidNode, got %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count = %d after free, want 0", store.Count())
	}

	// The tombstoned slot is reused before the file grows.
	reused, err := store.Allocate(false)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if reused.ID != n.ID {
		t.Errorf("Allocate returned slot %d, expected reuse of %d", reused.ID, n.ID)
	}
}

func TestFileStoreReadRejectsBadIDs(t *testing.T) {
	store, err := OpenFileStore(filepath.Join(t.TempDir(), "store.ygg"), 4)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	for _, id := range []NodeID{NilNode, -5, 0, 17} {
		if _, err := store.Read(id); err != ErrInvalidNode {
			t.Errorf("Read(%d): expected ErrInvalidNode, got %v", id, err)
		}
	}
}

func TestFileStoreHeaderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.ygg")
	store, err := OpenFileStore(path, 5)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	a, err := store.Allocate(true)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	b, err := store.Allocate(true)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if err := store.Free(b.ID); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if err := store.SetRoot(a.ID); err != nil {
		t.Fatalf("SetRoot failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenFileStore(path, 5)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if reopened.Root() != a.ID {
		t.Errorf("Root = %d after reopen, want %d", reopened.Root(), a.ID)
	}
	if reopened.Count() != 1 {
		t.Errorf("Count = %d after reopen, want 1", reopened.Count())
	}

	// The free list was rebuilt from the tombstones.
	reused, err := reopened.Allocate(true)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if reused.ID != b.ID {
		t.Errorf("Allocate returned slot %d, expected reuse of %d", reused.ID, b.ID)
	}
}

func TestFileStoreRejectsOrderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.ygg")
	store, err := OpenFileStore(path, 4)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := OpenFileStore(path, 5); err == nil {
		t.Error("Expected error reopening with a different order")
	}
}

func TestTreeReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.ygg")

	tree, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	for _, k := range []int32{10, 20, 30, 40, 50} {
		if err := tree.Insert(k, k*10); err != nil {
			t.Fatalf("Insert(%d) failed: %v", k, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Rehydrate from the bare file: the header carries the root.
	reopened, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Failed to reopen tree: %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Get(30)
	if err != nil {
		t.Fatalf("Get(30) failed: %v", err)
	}
	if value != 300 {
		t.Errorf("Get(30) = %d, want 300", value)
	}
	if err := reopened.Check(); err != nil {
		t.Errorf("Invariant violation after reopen: %v", err)
	}

	// The reopened tree keeps working.
	if err := reopened.Insert(60, 600); err != nil {
		t.Fatalf("Insert after reopen failed: %v", err)
	}
	pairs, err := reopened.Pairs()
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	if len(pairs) != 6 {
		t.Errorf("Pairs returned %d entries, want 6", len(pairs))
	}
}

func TestTreeReopenAfterDeletes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.ygg")

	tree, err := Open(path, 3)
	if err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	for k := int32(1); k <= 20; k++ {
		if err := tree.Insert(k, k*10); err != nil {
			t.Fatalf("Insert(%d) failed: %v", k, err)
		}
	}
	for k := int32(2); k <= 20; k += 2 {
		if err := tree.Delete(k); err != nil {
			t.Fatalf("Delete(%d) failed: %v", k, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, 3)
	if err != nil {
		t.Fatalf("Failed to reopen tree: %v", err)
	}
	defer reopened.Close()

	if err := reopened.Check(); err != nil {
		t.Fatalf("Invariant violation after reopen: %v", err)
	}
	pairs, err := reopened.Pairs()
	if err != nil {
		t.Fatalf("Pairs failed: %v", err)
	}
	if len(pairs) != 10 {
		t.Fatalf("Pairs returned %d entries, want 10", len(pairs))
	}
	for i, p := range pairs {
		if want := int32(2*i + 1); p.Key != want {
			t.Errorf("Pair %d is key %d, want %d", i, p.Key, want)
		}
	}
}

// Tombstoned slots keep the file from growing when contents churn.
func TestFileDoesNotGrowAcrossChurn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.ygg")

	tree, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	defer tree.Close()

	for k := int32(0); k < 100; k++ {
		if err := tree.Insert(k, k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	for k := int32(0); k < 100; k++ {
		if err := tree.Delete(k); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
	}

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	sizeBefore := stat.Size()

	for k := int32(0); k < 100; k++ {
		if err := tree.Insert(k, k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	stat, err = os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if stat.Size() > sizeBefore {
		t.Errorf("File grew from %d to %d despite the free list", sizeBefore, stat.Size())
	}
}

func TestDestroyFreesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.ygg")

	tree, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Failed to open tree: %v", err)
	}
	for k := int32(0); k < 50; k++ {
		if err := tree.Insert(k, k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := tree.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	reopened, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Failed to reopen destroyed tree: %v", err)
	}
	defer reopened.Close()

	if reopened.Root() != NilNode {
		t.Errorf("Root = %d after destroy, want NilNode", reopened.Root())
	}
	if reopened.Nodes() != 0 {
		t.Errorf("Nodes = %d after destroy, want 0", reopened.Nodes())
	}
}
