package pumped

import (
	"sync"
)

// ReactiveGraph records which nodes were derived from which. It is keyed by
// node ID so that bookkeeping never keeps a signal alive; entries are
// dropped when their node is reclaimed.
type ReactiveGraph struct {
	// Using adjacency list representation for better memory efficiency
	downstream map[uint64][]uint64
	upstream   map[uint64][]uint64
	labels     map[uint64]string
	mu         sync.RWMutex
}

// NewReactiveGraph creates a new reactive dependency graph
func NewReactiveGraph() *ReactiveGraph {
	return &ReactiveGraph{
		downstream: make(map[uint64][]uint64),
		upstream:   make(map[uint64][]uint64),
		labels:     make(map[uint64]string),
	}
}

// AddNode registers a node and its display label
func (g *ReactiveGraph) AddNode(id uint64, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.labels[id] = label
}

// SetLabel changes a node's display label
func (g *ReactiveGraph) SetLabel(id uint64, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.labels[id] = label
}

// Label returns a node's display label
func (g *ReactiveGraph) Label(id uint64) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	label, ok := g.labels[id]
	return label, ok
}

// Len returns the number of live nodes
func (g *ReactiveGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.labels)
}

// AddDependency adds a reactive dependency relationship
func (g *ReactiveGraph) AddDependency(dependent uint64, dependency uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Add to downstream (dependency -> dependent)
	g.downstream[dependency] = appendUnique(g.downstream[dependency], dependent)

	// Add to upstream (dependent -> dependency)
	g.upstream[dependent] = appendUnique(g.upstream[dependent], dependency)
}

// RemoveDependency removes a reactive dependency relationship
func (g *ReactiveGraph) RemoveDependency(dependent uint64, dependency uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeDependencyLocked(dependent, dependency)
}

func (g *ReactiveGraph) removeDependencyLocked(dependent uint64, dependency uint64) {
	// Remove from downstream
	g.downstream[dependency] = removeElement(g.downstream[dependency], dependent)
	if len(g.downstream[dependency]) == 0 {
		delete(g.downstream, dependency)
	}

	// Remove from upstream
	g.upstream[dependent] = removeElement(g.upstream[dependent], dependency)
	if len(g.upstream[dependent]) == 0 {
		delete(g.upstream, dependent)
	}
}

// RemoveNode drops a node and every edge touching it
func (g *ReactiveGraph) RemoveNode(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, dep := range append([]uint64(nil), g.upstream[id]...) {
		g.removeDependencyLocked(id, dep)
	}
	for _, dependent := range append([]uint64(nil), g.downstream[id]...) {
		g.removeDependencyLocked(dependent, id)
	}
	delete(g.labels, id)
}

// FindDependents performs iterative traversal to find all reactive dependents
func (g *ReactiveGraph) FindDependents(start uint64) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Use explicit stack instead of recursion
	stack := make([]uint64, 0, 32)
	stack = append(stack, start)

	dependents := make([]uint64, 0, 32)
	visited := make(map[uint64]bool, 32)

	for len(stack) > 0 {
		// Pop from stack
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		// Add to dependents (but not the start node itself)
		if current != start {
			dependents = append(dependents, current)
		}

		for _, dep := range g.downstream[current] {
			if !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}

	return dependents
}

// GetDirectDependents returns only direct dependents (no recursion)
func (g *ReactiveGraph) GetDirectDependents(id uint64) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyIDs(g.downstream[id])
}

// GetDependencies returns the nodes id was derived from, in subscription order
func (g *ReactiveGraph) GetDependencies(id uint64) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyIDs(g.upstream[id])
}

// Export returns a copy of the downstream adjacency list
func (g *ReactiveGraph) Export() map[uint64][]uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[uint64][]uint64, len(g.downstream))
	for id, deps := range g.downstream {
		out[id] = copyIDs(deps)
	}
	return out
}

func copyIDs(ids []uint64) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	result := make([]uint64, len(ids))
	copy(result, ids)
	return result
}

// Utility functions for working with slices efficiently

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
