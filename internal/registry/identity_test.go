package registry

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestIdentityRegistryFreshUnique(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewIdentityRegistry()
	seen := make(map[uint64]bool)
	for i := 0; i < 10000; i++ {
		id := r.Fresh()
		if id == 0 {
			t.Fatal("Fresh returned the reserved null id")
		}
		if seen[uint64(id)] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[uint64(id)] = true
	}
}

func TestIdentityRegistryConcurrentFreshUnique(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewIdentityRegistry()
	const goroutines = 50
	const perGoroutine = 200

	var mu sync.Mutex
	seen := make(map[uint64]bool, goroutines*perGoroutine)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := r.Fresh()
				mu.Lock()
				if seen[uint64(id)] {
					t.Errorf("duplicate id %d", id)
				}
				seen[uint64(id)] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
