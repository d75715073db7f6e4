// README: Registry of pending-assignment background tasks keyed by order ID.
// Holding the cancel handle here lets a success path (driver found, manual
// cancel) stop the sibling timer directly instead of relying only on the
// state-check race.
package assignment

import (
	"context"
	"sync"

	"nomnomgo/internal/types"
)

type Registry struct {
	parent context.Context

	mu    sync.Mutex
	tasks map[types.ID]context.CancelFunc
}

// NewRegistry ties all pending tasks to parent, so cancelling parent (process
// shutdown) stops every poll loop and timer.
func NewRegistry(parent context.Context) *Registry {
	return &Registry{
		parent: parent,
		tasks:  make(map[types.ID]context.CancelFunc),
	}
}

// Start registers a task for the order. At most one task is active per
// order; a second Start while one is running reports ok=false and the caller
// must not spawn another.
func (r *Registry) Start(id types.ID) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return nil, false
	}
	ctx, cancel := context.WithCancel(r.parent)
	r.tasks[id] = cancel
	return ctx, true
}

// Stop cancels and removes the order's task if one is registered.
func (r *Registry) Stop(id types.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, exists := r.tasks[id]
	if !exists {
		return false
	}
	delete(r.tasks, id)
	cancel()
	return true
}

func (r *Registry) Active(id types.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.tasks[id]
	return exists
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
