// Copyright 2026 © The Courtside Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestRequestAttributes(t *testing.T) {
	attrs := RequestAttributes("req-123", "user-7", "game_prediction", "data_scientist")

	expected := map[string]any{
		AttrRequestID:   "req-123",
		AttrRequestUser: "user-7",
		AttrQueryType:   "game_prediction",
		AttrUserRole:    "data_scientist",
	}

	assertAttributes(t, attrs, expected)
}

func TestRequestAttributesOmitsEmpty(t *testing.T) {
	attrs := RequestAttributes("req-123", "", "team_stats", "")
	for _, attr := range attrs {
		if string(attr.Key) == AttrRequestUser || string(attr.Key) == AttrUserRole {
			t.Errorf("empty attribute %s should be omitted", attr.Key)
		}
	}
}

func TestAgentCallAttributes(t *testing.T) {
	attrs := AgentCallAttributes("predictor", "predict_game", 82.5, true)

	expected := map[string]any{
		AttrAgentID:         "predictor",
		AttrAgentCapability: "predict_game",
		AttrAgentDurationMs: 82.5,
		AttrAgentSuccess:    true,
	}

	assertAttributes(t, attrs, expected)
}

func TestPermissionAttributes(t *testing.T) {
	attrs := PermissionAttributes("READ_ONLY", false, "capability requires READ_EXECUTE_WRITE")

	expected := map[string]any{
		AttrPermissionLevel:   "READ_ONLY",
		AttrPermissionAllowed: false,
		AttrPermissionReason:  "capability requires READ_EXECUTE_WRITE",
	}

	assertAttributes(t, attrs, expected)
}

func TestEnsembleAttributes(t *testing.T) {
	attrs := EnsembleAttributes([]string{"ridge_v1", "xgb_v2"})

	expected := map[string]any{
		AttrEnsembleSize: 2,
	}

	assertAttributes(t, attrs, expected)
}

// assertAttributes checks that expected key-value pairs exist in attrs
func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	found := make(map[string]attribute.KeyValue)
	for _, attr := range attrs {
		found[string(attr.Key)] = attr
	}

	for key, expectedVal := range expected {
		attr, ok := found[key]
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}

		var actualVal any
		switch attr.Value.Type() {
		case attribute.STRING:
			actualVal = attr.Value.AsString()
		case attribute.INT64:
			actualVal = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			actualVal = attr.Value.AsFloat64()
		case attribute.BOOL:
			actualVal = attr.Value.AsBool()
		}

		if actualVal != expectedVal {
			t.Errorf("attribute %s: got %v, want %v", key, actualVal, expectedVal)
		}
	}
}
