// Copyright 2026 © The Courtside Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich attributes
// for analytics-pipeline observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Courtside telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Request attributes
	AttrRequestID   = "courtside.request.id"
	AttrRequestUser = "courtside.request.user"
	AttrQueryType   = "courtside.request.query_type"
	AttrUserRole    = "courtside.request.role"

	// Agent attributes
	AttrAgentID         = "courtside.agent.id"
	AttrAgentCapability = "courtside.agent.capability"
	AttrAgentSuccess    = "courtside.agent.success"
	AttrAgentDurationMs = "courtside.agent.duration_ms"

	// Permission attributes
	AttrPermissionLevel   = "courtside.permission.level"
	AttrPermissionAllowed = "courtside.permission.allowed"
	AttrPermissionReason  = "courtside.permission.reason"

	// Model attributes
	AttrModelID        = "courtside.model.id"
	AttrModelTask      = "courtside.model.task"
	AttrEnsembleModels = "courtside.ensemble.models"
	AttrEnsembleSize   = "courtside.ensemble.size"

	// Pipeline attributes
	AttrPipelineState = "courtside.pipeline.state"
)

// RequestAttributes returns common attributes for request-scoped spans.
func RequestAttributes(requestID, userID, queryType, role string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrQueryType, queryType),
	}
	if userID != "" {
		attrs = append(attrs, attribute.String(AttrRequestUser, userID))
	}
	if role != "" {
		attrs = append(attrs, attribute.String(AttrUserRole, role))
	}
	return attrs
}

// AgentCallAttributes returns attributes for one agent action span.
func AgentCallAttributes(agentID, capability string, durationMs float64, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrAgentCapability, capability),
		attribute.Float64(AttrAgentDurationMs, durationMs),
		attribute.Bool(AttrAgentSuccess, success),
	}
}

// PermissionAttributes returns attributes for a capability check.
func PermissionAttributes(level string, allowed bool, reason string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrPermissionLevel, level),
		attribute.Bool(AttrPermissionAllowed, allowed),
	}
	if reason != "" {
		attrs = append(attrs, attribute.String(AttrPermissionReason, reason))
	}
	return attrs
}

// EnsembleAttributes returns attributes for an ensemble inference span.
func EnsembleAttributes(models []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrEnsembleSize, len(models)),
	}
	if len(models) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrEnsembleModels, models))
	}
	return attrs
}
