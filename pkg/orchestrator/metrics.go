package orchestrator

import (
	"context"
	"sync/atomic"
	"time"
)

// MetricsSink receives pipeline counters after each terminal transition. It
// is injected rather than global so tests can observe counts and production
// can export them.
type MetricsSink interface {
	RecordRequest(ctx context.Context, queryType, status string, duration time.Duration)
	RecordAgentCall(ctx context.Context, agentID, capability string, success bool, duration time.Duration)
	RecordPermissionDenied(ctx context.Context, agentID, capability string)
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) RecordRequest(context.Context, string, string, time.Duration) {}

func (NopSink) RecordAgentCall(context.Context, string, string, bool, time.Duration) {}

func (NopSink) RecordPermissionDenied(context.Context, string, string) {}

// Stats is a point-in-time snapshot of the atomic sink.
type Stats struct {
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	AverageResponseTime time.Duration
	AgentCalls          int64
	AgentFailures       int64
	PermissionDenials   int64
}

// AtomicSink keeps process-wide counters with atomic-increment discipline.
// Many requests mutate it concurrently; reads go through Snapshot.
type AtomicSink struct {
	total         atomic.Int64
	succeeded     atomic.Int64
	failed        atomic.Int64
	totalDuration atomic.Int64 // nanoseconds

	agentCalls    atomic.Int64
	agentFailures atomic.Int64
	denials       atomic.Int64
}

// NewAtomicSink creates a zeroed sink.
func NewAtomicSink() *AtomicSink {
	return &AtomicSink{}
}

func (s *AtomicSink) RecordRequest(_ context.Context, _, status string, duration time.Duration) {
	s.total.Add(1)
	s.totalDuration.Add(int64(duration))
	if status == "success" {
		s.succeeded.Add(1)
	} else {
		s.failed.Add(1)
	}
}

func (s *AtomicSink) RecordAgentCall(_ context.Context, _, _ string, success bool, _ time.Duration) {
	s.agentCalls.Add(1)
	if !success {
		s.agentFailures.Add(1)
	}
}

func (s *AtomicSink) RecordPermissionDenied(context.Context, string, string) {
	s.denials.Add(1)
}

// Snapshot returns the current counters. The average is computed over all
// recorded requests, successful or not.
func (s *AtomicSink) Snapshot() Stats {
	stats := Stats{
		TotalRequests:      s.total.Load(),
		SuccessfulRequests: s.succeeded.Load(),
		FailedRequests:     s.failed.Load(),
		AgentCalls:         s.agentCalls.Load(),
		AgentFailures:      s.agentFailures.Load(),
		PermissionDenials:  s.denials.Load(),
	}
	if stats.TotalRequests > 0 {
		stats.AverageResponseTime = time.Duration(s.totalDuration.Load() / stats.TotalRequests)
	}
	return stats
}
