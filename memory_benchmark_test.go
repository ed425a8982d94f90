package pumped

import (
	"fmt"
	"runtime"
	"testing"
)

// MemoryAllocationMetrics captures memory statistics for benchmarking
type MemoryAllocationMetrics struct {
	Allocs        uint64
	TotalAlloc    uint64
	Sys           uint64
	NumGC         uint32
	GCCPUFraction float64
}

// getMemoryMetrics captures current memory statistics
func getMemoryMetrics() MemoryAllocationMetrics {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryAllocationMetrics{
		Allocs:        m.Mallocs,
		TotalAlloc:    m.TotalAlloc,
		Sys:           m.Sys,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
	}
}

// createTrackedChain creates a chain of tracked signals, each reading the previous
func createTrackedChain(scope *Scope, depth int) (*Var[int], Signal[int]) {
	root := NewVar(scope, 1)
	var last Signal[int] = root

	for i := 1; i < depth; i++ {
		prev := last
		last = Track(scope, func() int {
			return Read(prev) + 1
		})
	}

	return root, last
}

func BenchmarkTrack_Construction(b *testing.B) {
	for _, width := range []int{1, 5, 20} {
		b.Run(fmt.Sprintf("deps-%d", width), func(b *testing.B) {
			scope := NewScope()
			vars := make([]*Var[int], width)
			for i := range vars {
				vars[i] = NewVar(scope, i)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				Track(scope, func() int {
					sum := 0
					for _, v := range vars {
						sum += Read(v)
					}
					return sum
				})
			}
		})
	}
}

func BenchmarkTrack_Propagation(b *testing.B) {
	for _, depth := range []int{1, 10, 50} {
		b.Run(fmt.Sprintf("depth-%d", depth), func(b *testing.B) {
			scope := NewScope()
			root, last := createTrackedChain(scope, depth)

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				root.Set(i)
			}

			b.StopTimer()
			if last.Now() != b.N-1+depth-1 {
				b.Fatalf("expected %d, got %d", b.N-1+depth-1, last.Now())
			}
		})
	}
}

func BenchmarkRead_Untracked(b *testing.B) {
	scope := NewScope()
	v := NewVar(scope, 1)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = Read[int](v)
	}
}

func BenchmarkWrapperCache_Hit(b *testing.B) {
	cache := NewWrapperCache(func(e *plainThing) *thingWrapper {
		return &thingWrapper{entity: e}
	})
	e := &plainThing{name: "m"}
	w := cache.Wrap(e)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cache.Wrap(e)
	}

	runtime.KeepAlive(w)
}

func BenchmarkToSignal_Notify(b *testing.B) {
	scope := NewScope()
	entity := &fakeEntity{}
	sig := ToSignal(scope, func() int { return entity.value }, Observe(entity))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		entity.set(i)
	}

	b.StopTimer()
	if sig.Now() != b.N-1 {
		b.Fatalf("expected %d, got %d", b.N-1, sig.Now())
	}
}

// TestMemoryUsage_TrackedGraph reports memory growth of a wide tracked graph
func TestMemoryUsage_TrackedGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping memory measurement in short mode")
	}

	before := getMemoryMetrics()

	scope := NewScope()
	root, last := createTrackedChain(scope, 200)
	for i := 0; i < 100; i++ {
		root.Set(i)
	}

	after := getMemoryMetrics()

	if last.Now() != 99+199 {
		t.Fatalf("expected %d, got %d", 99+199, last.Now())
	}
	if scope.Graph().Len() < 200 {
		t.Errorf("expected at least 200 live graph nodes, got %d", scope.Graph().Len())
	}

	t.Logf("allocs: %d, total alloc: %d bytes, gc cycles: %d",
		after.Allocs-before.Allocs,
		after.TotalAlloc-before.TotalAlloc,
		after.NumGC-before.NumGC,
	)
	// the chain is reachable only through root's subscribers
	runtime.KeepAlive(root)
	runtime.KeepAlive(last)
}
