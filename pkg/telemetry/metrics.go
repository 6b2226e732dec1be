// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/courtside/courtside/pkg/errors"
)

// PipelineMetrics tracks request throughput, agent call outcomes, and error
// rates for production monitoring.
type PipelineMetrics struct {
	// requestCounter tracks handled requests by query type and status
	requestCounter metric.Int64Counter

	// requestDuration tracks end-to-end request latency
	requestDuration metric.Float64Histogram

	// agentCounter tracks agent actions by agent, capability, and outcome
	agentCounter metric.Int64Counter

	// agentDuration tracks per-action latency
	agentDuration metric.Float64Histogram

	// deniedCounter tracks permission denials by agent and capability
	deniedCounter metric.Int64Counter

	// errorCounter tracks errors by code and component
	errorCounter metric.Int64Counter
}

// NewPipelineMetrics creates a pipeline metrics tracker with OTEL meters.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("courtside/pipeline")

	requestCounter, err := meter.Int64Counter(
		"courtside.requests.total",
		metric.WithDescription("Handled analytics requests by query type and status"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"courtside.requests.duration_ms",
		metric.WithDescription("End-to-end request latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	agentCounter, err := meter.Int64Counter(
		"courtside.agent.calls",
		metric.WithDescription("Agent actions by agent, capability, and outcome"),
	)
	if err != nil {
		return nil, err
	}

	agentDuration, err := meter.Float64Histogram(
		"courtside.agent.duration_ms",
		metric.WithDescription("Agent action latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	deniedCounter, err := meter.Int64Counter(
		"courtside.permission.denied",
		metric.WithDescription("Capability checks denied by the governance layer"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"courtside.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		agentCounter:    agentCounter,
		agentDuration:   agentDuration,
		deniedCounter:   deniedCounter,
		errorCounter:    errorCounter,
	}, nil
}

// RecordRequest records one completed request.
func (pm *PipelineMetrics) RecordRequest(ctx context.Context, queryType, status string, duration time.Duration) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("query_type", queryType),
		attribute.String("status", status),
	)
	pm.requestCounter.Add(ctx, 1, attrs)
	pm.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordAgentCall records one agent action and its outcome.
func (pm *PipelineMetrics) RecordAgentCall(ctx context.Context, agentID, capability string, success bool, duration time.Duration) {
	if pm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("agent_id", agentID),
		attribute.String("capability", capability),
		attribute.Bool("success", success),
	)
	pm.agentCounter.Add(ctx, 1, attrs)
	pm.agentDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordPermissionDenied records one denied capability check.
func (pm *PipelineMetrics) RecordPermissionDenied(ctx context.Context, agentID, capability string) {
	if pm == nil {
		return
	}
	pm.deniedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("agent_id", agentID),
			attribute.String("capability", capability),
		),
	)
}

// RecordError increments the error counter for the given error and component.
func (pm *PipelineMetrics) RecordError(ctx context.Context, err error, component string) {
	if pm == nil || err == nil {
		return
	}

	if ce, ok := err.(*errors.CourtsideError); ok {
		pm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", string(ce.Code)),
				attribute.String("component", component),
				attribute.String("recoverable", ce.RecoverableString()),
			),
		)
		return
	}
	pm.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", "UNKNOWN"),
			attribute.String("component", component),
			attribute.String("recoverable", "unknown"),
		),
	)
}
