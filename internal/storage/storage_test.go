package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/e3wm/e3wm-api/internal/accessor"
)

func newAccessor(t *testing.T) *accessor.Accessor {
	t.Helper()
	return accessor.Open(t.TempDir())
}

func TestNewMemoryStorageStartsAtGenerationOne(t *testing.T) {
	t.Parallel()

	initial := newAccessor(t)
	store, err := NewMemoryStorage(initial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Current()
	if snap.Accessor != initial {
		t.Fatalf("expected initial accessor to be current")
	}
	if snap.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", snap.Generation)
	}
}

func TestSwapAdvancesGeneration(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStorage(newAccessor(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := newAccessor(t)
	snap, err := store.Swap(next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Generation != 2 || snap.Accessor != next {
		t.Fatalf("unexpected snapshot after swap: %+v", snap)
	}
	if store.Current() != snap {
		t.Fatalf("expected Current to return swapped snapshot")
	}
}

func TestNilSnapshotsRejected(t *testing.T) {
	t.Parallel()

	if _, err := NewMemoryStorage(nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("expected ErrNilSnapshot, got %v", err)
	}

	store, err := NewMemoryStorage(newAccessor(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Swap(nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("expected ErrNilSnapshot, got %v", err)
	}
	if store.Current().Generation != 1 {
		t.Fatalf("rejected swap must not advance generation")
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store, err := NewMemoryStorage(newAccessor(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next := newAccessor(t)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			if _, err := store.Swap(next); err != nil {
				t.Errorf("Swap failed: %v", err)
			}
		}()

		go func() {
			defer wg.Done()
			if store.Current().Accessor == nil {
				t.Errorf("Current returned nil accessor")
			}
		}()
	}

	wg.Wait()

	if got := store.Current().Generation; got != 33 {
		t.Fatalf("expected generation 33 after 32 swaps, got %d", got)
	}
}
