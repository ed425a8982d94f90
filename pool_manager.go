package pumped

import (
	"sync"
	"sync/atomic"
)

// PoolManager recycles dependency logs between tracked evaluations
type PoolManager struct {
	depLogPool sync.Pool

	// Metrics for pool efficiency
	metrics PoolMetrics
}

// PoolMetrics tracks pool usage statistics
type PoolMetrics struct {
	acquired atomic.Uint64
	misses   atomic.Uint64
	released atomic.Uint64
}

// PoolStats is a snapshot of PoolMetrics
type PoolStats struct {
	Acquired uint64
	Misses   uint64
	Released uint64
}

// HitRate returns the fraction of acquisitions served from the pool
func (p PoolStats) HitRate() float64 {
	if p.Acquired == 0 {
		return 0
	}
	return float64(p.Acquired-p.Misses) / float64(p.Acquired)
}

// NewPoolManager creates a new pool manager with initialized pools
func NewPoolManager() *PoolManager {
	pm := &PoolManager{}
	pm.depLogPool.New = func() any {
		pm.metrics.misses.Add(1)
		return &depLog{
			reads: make([]AnySignal, 0, 8), // Pre-allocate capacity
		}
	}
	return pm
}

func (pm *PoolManager) acquireDepLog() *depLog {
	pm.metrics.acquired.Add(1)
	return pm.depLogPool.Get().(*depLog)
}

func (pm *PoolManager) releaseDepLog(l *depLog) {
	l.reset()
	pm.metrics.released.Add(1)
	pm.depLogPool.Put(l)
}

// Stats returns the current pool metrics
func (pm *PoolManager) Stats() PoolStats {
	return PoolStats{
		Acquired: pm.metrics.acquired.Load(),
		Misses:   pm.metrics.misses.Load(),
		Released: pm.metrics.released.Load(),
	}
}
