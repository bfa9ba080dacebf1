package build

import (
	"sync"
	"time"

	"github.com/conneroisu/sfcloader/internal/errors"
)

// MetricsSnapshot is a point-in-time copy of the pipeline counters.
type MetricsSnapshot struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	// FailedBuilds counts builds with a fatal error or an error diagnostic.
	FailedBuilds   int64
	CacheHits      int64
	ModulesWritten int64
	Errors         int64
	Warnings       int64

	AverageDuration time.Duration
	TotalDuration   time.Duration
	LastBuild       time.Time
}

// SuccessRate is the percentage of builds without errors.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.TotalBuilds == 0 {
		return 0
	}
	return float64(s.SuccessfulBuilds) / float64(s.TotalBuilds) * 100
}

// CacheHitRate is the percentage of builds served from a cached descriptor.
func (s MetricsSnapshot) CacheHitRate() float64 {
	if s.TotalBuilds == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.TotalBuilds) * 100
}

// BuildMetrics accumulates build results. It is safe for concurrent use.
type BuildMetrics struct {
	mu   sync.RWMutex
	snap MetricsSnapshot
}

// NewBuildMetrics creates an empty metrics tracker.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordBuild adds one component build.
func (bm *BuildMetrics) RecordBuild(result BuildResult) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	s := &bm.snap
	s.TotalBuilds++
	s.TotalDuration += result.Duration
	s.AverageDuration = s.TotalDuration / time.Duration(s.TotalBuilds)
	s.ModulesWritten += int64(len(result.Modules))
	s.LastBuild = time.Now()

	for _, d := range result.Diagnostics {
		if d.Severity >= errors.ErrorSeverityError {
			s.Errors++
		} else if d.Severity == errors.ErrorSeverityWarning {
			s.Warnings++
		}
	}

	if result.CacheHit {
		s.CacheHits++
	}
	if result.HasErrors() {
		s.FailedBuilds++
	} else {
		s.SuccessfulBuilds++
	}
}

// GetSnapshot returns a copy of the current counters.
func (bm *BuildMetrics) GetSnapshot() MetricsSnapshot {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.snap
}

// Reset zeroes every counter.
func (bm *BuildMetrics) Reset() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.snap = MetricsSnapshot{}
}
