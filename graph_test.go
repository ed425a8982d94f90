package pumped

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sortIDs() cmp.Option {
	return cmpopts.SortSlices(func(a, b uint64) bool { return a < b })
}

func TestReactiveGraph_AddDependency(t *testing.T) {
	g := NewReactiveGraph()
	g.AddNode(1, "a")
	g.AddNode(2, "b")
	g.AddNode(3, "c")

	g.AddDependency(2, 1)
	g.AddDependency(3, 2)
	g.AddDependency(3, 2)

	if diff := cmp.Diff([]uint64{2}, g.GetDirectDependents(1)); diff != "" {
		t.Errorf("direct dependents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{2}, g.GetDependencies(3)); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{2, 3}, g.FindDependents(1), sortIDs()); diff != "" {
		t.Errorf("transitive dependents mismatch (-want +got):\n%s", diff)
	}
}

func TestReactiveGraph_RemoveNode(t *testing.T) {
	g := NewReactiveGraph()
	g.AddNode(1, "a")
	g.AddNode(2, "b")
	g.AddNode(3, "c")
	g.AddDependency(2, 1)
	g.AddDependency(3, 2)

	g.RemoveNode(2)

	if got := g.GetDirectDependents(1); len(got) != 0 {
		t.Errorf("expected no dependents of 1, got %v", got)
	}
	if got := g.GetDependencies(3); len(got) != 0 {
		t.Errorf("expected no dependencies of 3, got %v", got)
	}
	if _, ok := g.Label(2); ok {
		t.Error("expected label of removed node to be gone")
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.Len())
	}
}

func TestReactiveGraph_Export(t *testing.T) {
	g := NewReactiveGraph()
	g.AddDependency(2, 1)
	g.AddDependency(3, 1)

	exported := g.Export()
	exported[1] = append(exported[1], 99)

	want := map[uint64][]uint64{1: {2, 3}}
	if diff := cmp.Diff(want, g.Export()); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestScope_GraphLabels(t *testing.T) {
	scope := NewScope()
	a := NewVar(scope, 1, WithName("counter"))
	d := Map[int, int](a, func(v int) int { return v + 1 })

	if label, _ := scope.Graph().Label(a.ID()); label != "counter" {
		t.Errorf("expected label 'counter', got %q", label)
	}
	if want := fmt.Sprintf("derived#%d", d.ID()); Label(d) != want {
		t.Errorf("expected generated label %q, got %q", want, Label(d))
	}

	SignalName().Set(d, "next")
	if label, _ := scope.Graph().Label(d.ID()); label != "next" {
		t.Errorf("expected relabel to 'next', got %q", label)
	}
	if diff := cmp.Diff([]uint64{d.ID()}, scope.Dependents(a)); diff != "" {
		t.Errorf("dependents mismatch (-want +got):\n%s", diff)
	}
}
