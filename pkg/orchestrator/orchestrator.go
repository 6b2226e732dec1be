// Package orchestrator drives an analytics request through the pipeline
// state machine: role detection, routing, permission-checked parallel agent
// fan-out, and response synthesis.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtside/courtside/pkg/audit"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
	"github.com/courtside/courtside/pkg/governance"
	"github.com/courtside/courtside/pkg/profile"
	"github.com/courtside/courtside/pkg/resilience"
	"github.com/courtside/courtside/pkg/telemetry"
)

// State names a pipeline phase. Requests move strictly forward.
type State string

const (
	StateReceived       State = "received"
	StateRoleDetected   State = "role_detected"
	StateAgentsSelected State = "agents_selected"
	StateExecuting      State = "executing"
	StateSynthesizing   State = "synthesizing"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// LevelResolver maps a request to the caller's granted permission level.
type LevelResolver func(req core.AnalyticsRequest) core.Level

// HintLevelResolver resolves the level from the "access_level" context hint,
// falling back to the given level when the hint is absent. A malformed hint
// parses to READ_ONLY, so a bad hint can only narrow access.
func HintLevelResolver(fallback core.Level) LevelResolver {
	return func(req core.AnalyticsRequest) core.Level {
		v, ok := req.ContextHints["access_level"]
		if !ok {
			return fallback
		}
		s, ok := v.(string)
		if !ok {
			return core.LevelReadOnly
		}
		level, _ := core.ParseLevel(s)
		return level
	}
}

// Orchestrator owns the registered agents, the routing table, and the
// permission checker. It is safe for concurrent use.
type Orchestrator struct {
	checker  *governance.Checker
	table    Table
	timeout  time.Duration
	resolver LevelResolver
	sink     MetricsSink
	trail    audit.Store
	logger   *slog.Logger
	tracer   trace.Tracer

	mu     sync.RWMutex
	agents map[string]core.Agent
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTable replaces the routing table.
func WithTable(table Table) Option {
	return func(o *Orchestrator) { o.table = table }
}

// WithAgentTimeout bounds each agent invocation during fan-out. Zero means
// unbounded.
func WithAgentTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLevelResolver replaces the caller-level resolver.
func WithLevelResolver(r LevelResolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithMetricsSink injects the metrics sink.
func WithMetricsSink(sink MetricsSink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithAuditStore records every capability invocation in the given store.
// Recording is best-effort: a failing store is logged, never propagated.
func WithAuditStore(store audit.Store) Option {
	return func(o *Orchestrator) { o.trail = store }
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator with the default routing table, a 10 second
// agent timeout, hint-based level resolution falling back to READ_EXECUTE,
// and a no-op metrics sink.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checker:  governance.NewChecker(),
		table:    DefaultTable(),
		timeout:  10 * time.Second,
		resolver: HintLevelResolver(core.LevelReadExecute),
		sink:     NopSink{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("courtside/orchestrator"),
		agents:   make(map[string]core.Agent),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register adds an agent to the pipeline. The governance checker validates
// the agent's capability declarations; non-conforming agents are rejected
// here, not at call time.
func (o *Orchestrator) Register(agent core.Agent) error {
	if agent == nil {
		return errors.New(errors.CodeInvalidInput, "agent is nil", nil)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.agents[agent.ID()]; exists {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("agent %q is already registered", agent.ID()), nil)
	}
	if err := o.checker.RegisterAgent(agent); err != nil {
		return err
	}
	o.agents[agent.ID()] = agent
	return nil
}

func (o *Orchestrator) agent(id string) (core.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.agents[id]
	return a, ok
}

// HandleRequest runs one request through the full state machine and always
// returns a response; pipeline failures surface as status error, never as a
// panic.
func (o *Orchestrator) HandleRequest(ctx context.Context, req core.AnalyticsRequest) core.AnalyticsResponse {
	start := time.Now()
	ctx, requestID := core.EnsureRequestID(ctx)
	if req.ID == "" {
		req.ID = requestID
	}

	ctx, span := o.tracer.Start(ctx, "Orchestrator.HandleRequest")
	defer span.End()

	// Received → RoleDetected
	built := profile.BuildContext(req)
	caller := o.resolver(req)
	ctx = core.WithCallerLevel(ctx, caller)

	span.SetAttributes(telemetry.RequestAttributes(req.ID, req.UserID, req.QueryType, string(built.Profile.Role))...)
	o.logger.InfoContext(ctx, "orchestrator.request.start",
		slog.String("request_id", req.ID),
		slog.String("query_type", req.QueryType),
		slog.String("role", string(built.Profile.Role)),
		slog.String("caller_level", caller.String()),
	)
	span.SetAttributes(attribute.String(telemetry.AttrPipelineState, string(StateRoleDetected)))

	// RoleDetected → AgentsSelected
	routes, err := o.table.Routes(req.QueryType)
	if err != nil {
		return o.fail(ctx, req, start, err)
	}
	span.SetAttributes(attribute.String(telemetry.AttrPipelineState, string(StateAgentsSelected)))

	// AgentsSelected → Executing: parallel fan-out, one result slot per
	// candidate, no shared state between agents.
	results := o.execute(ctx, req, routes, caller)
	span.SetAttributes(attribute.String(telemetry.AttrPipelineState, string(StateSynthesizing)))

	// Executing → Synthesizing → Completed|Failed
	response := o.synthesize(ctx, built, results)
	response.ExecutionTime = time.Since(start)

	o.sink.RecordRequest(ctx, req.QueryType, string(response.Status), response.ExecutionTime)
	o.logger.InfoContext(ctx, "orchestrator.request.complete",
		slog.String("request_id", req.ID),
		slog.String("status", string(response.Status)),
		slog.Duration("execution_time", response.ExecutionTime),
	)
	return response
}

// fail terminates the pipeline before any agent ran.
func (o *Orchestrator) fail(ctx context.Context, req core.AnalyticsRequest, start time.Time, err error) core.AnalyticsResponse {
	response := core.AnalyticsResponse{
		Status:        core.StatusError,
		Results:       map[string]core.ActionResult{},
		ErrorMessage:  err.Error(),
		ExecutionTime: time.Since(start),
	}
	o.sink.RecordRequest(ctx, req.QueryType, string(core.StatusError), response.ExecutionTime)
	o.logger.WarnContext(ctx, "orchestrator.request.rejected",
		slog.String("request_id", req.ID),
		slog.String("query_type", req.QueryType),
		slog.String("error", err.Error()),
	)
	return response
}

func (o *Orchestrator) execute(ctx context.Context, req core.AnalyticsRequest, routes []Route, caller core.Level) map[string]core.ActionResult {
	var (
		mu      sync.Mutex
		results = make(map[string]core.ActionResult, len(routes))
		wg      sync.WaitGroup
	)
	for _, route := range routes {
		wg.Add(1)
		go func(route Route) {
			defer wg.Done()
			callStart := time.Now()
			result := o.invoke(ctx, req, route, caller)
			o.record(ctx, req, route, result, callStart)
			mu.Lock()
			results[route.AgentID] = result
			mu.Unlock()
		}(route)
	}
	wg.Wait()
	return results
}

// invoke runs one permission-checked capability call. Every failure mode is
// folded into the result slot so one agent can never abort the others.
func (o *Orchestrator) invoke(ctx context.Context, req core.AnalyticsRequest, route Route, caller core.Level) core.ActionResult {
	callStart := time.Now()

	agent, ok := o.agent(route.AgentID)
	if !ok {
		return core.ActionResult{
			AgentID:    route.AgentID,
			Capability: route.Capability,
			Err: errors.New(errors.CodeCapabilityNotFound,
				fmt.Sprintf("agent %q is not registered", route.AgentID), nil).
				WithRecoverable(true),
			Duration: time.Since(callStart),
		}
	}

	decision := o.checker.Check(ctx, route.AgentID, route.Capability, caller)
	if !decision.Allowed {
		o.sink.RecordPermissionDenied(ctx, route.AgentID, route.Capability)
		o.logger.WarnContext(ctx, "orchestrator.permission.denied",
			slog.String("agent_id", route.AgentID),
			slog.String("capability", route.Capability),
			slog.String("caller_level", caller.String()),
			slog.String("reason", decision.Reason),
		)
		return core.ActionResult{
			AgentID:    route.AgentID,
			Capability: route.Capability,
			Err:        decision.Err(),
			Duration:   time.Since(callStart),
		}
	}

	result, err := resilience.WithTimeoutResult(ctx,
		resilience.TimeoutConfig{Duration: o.timeout},
		func(ctx context.Context) (core.ActionResult, error) {
			return agent.Execute(ctx, route.Capability, req.Parameters), nil
		})
	if err != nil {
		// Timed out: the slot records the timeout like any other failure.
		result = core.ActionResult{
			AgentID:    route.AgentID,
			Capability: route.Capability,
			Err:        err,
			Duration:   time.Since(callStart),
		}
	}

	o.sink.RecordAgentCall(ctx, route.AgentID, route.Capability, result.Success, result.Duration)
	if !result.Success {
		o.logger.WarnContext(ctx, "orchestrator.agent.failed",
			slog.String("agent_id", route.AgentID),
			slog.String("capability", route.Capability),
			slog.String("error", errString(result.Err)),
		)
	}
	return result
}

// record writes one audit event for a finished invocation.
func (o *Orchestrator) record(ctx context.Context, req core.AnalyticsRequest, route Route, result core.ActionResult, callStart time.Time) {
	if o.trail == nil {
		return
	}
	status := "success"
	switch errors.CodeOf(result.Err) {
	case "":
	case errors.CodePermissionDenied, errors.CodeCapabilityNotFound:
		status = "denied"
	case errors.CodeTimeout:
		status = "timeout"
	default:
		status = "error"
	}
	event := audit.Event{
		RequestID:  req.ID,
		UserID:     req.UserID,
		QueryType:  req.QueryType,
		AgentID:    route.AgentID,
		Capability: route.Capability,
		Status:     status,
		Error:      errString(result.Err),
		Payload:    result.Payload,
		StartedAt:  callStart,
		FinishedAt: callStart.Add(result.Duration),
	}
	if err := o.trail.Record(ctx, event); err != nil {
		o.logger.WarnContext(ctx, "orchestrator.audit.failed",
			slog.String("agent_id", route.AgentID),
			slog.String("error", err.Error()),
		)
	}
}

// synthesize merges the result slots into the response. Status is error only
// when every selected agent failed; individual failures stay visible in
// their own slot.
func (o *Orchestrator) synthesize(_ context.Context, built profile.Built, results map[string]core.ActionResult) core.AnalyticsResponse {
	response := core.AnalyticsResponse{
		Results: results,
	}

	// Zero slots means routing selected no agents, so there is no failure
	// to report. NewTable rejects empty route lists, so this arises only
	// with a hand-built table.
	if len(results) == 0 {
		response.Status = core.StatusSuccess
		return response
	}

	anySucceeded := false
	for _, result := range results {
		if result.Success {
			anySucceeded = true
			break
		}
	}
	if anySucceeded {
		response.Status = core.StatusSuccess
	} else {
		response.Status = core.StatusError
		response.ErrorMessage = "all selected agents failed"
	}

	response.Insights = synthesizeInsights(built, results)
	return response
}

// synthesizeInsights renders successful payloads as human-readable insight
// strings, in deterministic agent order.
func synthesizeInsights(built profile.Built, results map[string]core.ActionResult) []string {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var insights []string
	for _, id := range ids {
		result := results[id]
		if !result.Success {
			continue
		}
		if insight := describePayload(result); insight != "" {
			insights = append(insights, insight)
		}
	}
	if len(insights) > 0 {
		insights = append(insights,
			fmt.Sprintf("analysis prepared for %s role", built.Profile.Role))
	}
	return insights
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
