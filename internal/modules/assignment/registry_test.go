// README: Registry unit tests covering the one-task-per-order guarantee.
package assignment

import (
	"context"
	"sync"
	"testing"

	"nomnomgo/internal/types"
)

func TestRegistry_SingleTaskPerOrder(t *testing.T) {
	r := NewRegistry(context.Background())
	id := types.ID("order-1")

	ctx, ok := r.Start(id)
	if !ok {
		t.Fatal("first start should succeed")
	}
	if ctx == nil {
		t.Fatal("expected a context for the started task")
	}
	if _, ok := r.Start(id); ok {
		t.Fatal("second start for the same order should be refused")
	}
	if !r.Active(id) {
		t.Fatal("expected task to be active")
	}
}

func TestRegistry_StopCancelsContext(t *testing.T) {
	r := NewRegistry(context.Background())
	id := types.ID("order-2")

	ctx, _ := r.Start(id)
	if !r.Stop(id) {
		t.Fatal("stop should report the task existed")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected task context to be cancelled after Stop")
	}
	if r.Stop(id) {
		t.Fatal("second stop should report no task")
	}
	if r.Active(id) {
		t.Fatal("expected task to be gone")
	}
}

func TestRegistry_ParentCancelPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	r := NewRegistry(parent)

	ctx, _ := r.Start(types.ID("order-3"))
	cancel()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected parent cancellation to reach the task context")
	}
}

func TestRegistry_ConcurrentStartOnlyOneWins(t *testing.T) {
	r := NewRegistry(context.Background())
	id := types.ID("order-4")

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := r.Start(id); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly 1 winning start, got %d", wins)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 registered task, got %d", r.Len())
	}
}
