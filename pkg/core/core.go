// Package core defines the shared contracts of the Courtside runtime: the
// request/response shapes, the permission model, and the Agent interface.
package core

import (
	"context"
	"time"
)

// AnalyticsRequest is the sole inbound shape. It is created per call and
// discarded when the response is returned; nothing mutates it.
type AnalyticsRequest struct {
	ID           string
	UserID       string
	Query        string
	QueryType    string
	Parameters   map[string]any
	ContextHints map[string]any
}

// ResponseStatus is the overall outcome of an analytics request.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)

// AnalyticsResponse is the sole outbound shape. Results are keyed by agent
// ID; an individual agent's failure is preserved in its own slot and the
// status is error only when every selected agent failed.
type AnalyticsResponse struct {
	Status        ResponseStatus
	Results       map[string]ActionResult
	Insights      []string
	ExecutionTime time.Duration
	ErrorMessage  string
}

// ActionResult is the tagged outcome of a single capability invocation.
// Business failures are carried in Err; they are returned, never panicked.
type ActionResult struct {
	AgentID    string
	Capability string
	Success    bool
	Payload    any
	Err        error
	Duration   time.Duration
}

// Agent is a long-lived capability provider. Instances are created once by
// the factory and reused across requests; they own configuration and lazy
// model references only, never per-request mutable state.
type Agent interface {
	ID() string
	Ceiling() Level
	Capabilities() []Capability
	Execute(ctx context.Context, action string, params map[string]any) ActionResult
}
