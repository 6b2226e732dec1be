// Package model is the execution engine for already-trained prediction
// models: a manifest-driven registry with lazy single-flight loading, feature
// validation, and single or ensemble inference.
package model

import "math"

// Task names the prediction target a model serves.
type Task string

const (
	TaskMargin         Task = "margin"
	TaskWinProbability Task = "win_probability"
)

// marginOutputSpan is the known output range of margin models in points.
// Disagreement between models is normalized against it.
const marginOutputSpan = 120.0

// OutputSpan returns the width of the task's known output range.
func (t Task) OutputSpan() float64 {
	switch t {
	case TaskWinProbability:
		return 1.0
	default:
		return marginOutputSpan
	}
}

// Valid reports whether the task is one the engine knows how to combine.
func (t Task) Valid() bool {
	return t == TaskMargin || t == TaskWinProbability
}

// ModelInfo describes one registered model as listed in the manifest.
type ModelInfo struct {
	ID                 string   `yaml:"id"`
	Task               Task     `yaml:"task"`
	Algorithm          string   `yaml:"algorithm"`
	Path               string   `yaml:"path"`
	RequiredFeatures   []string `yaml:"required_features"`
	HistoricalAccuracy float64  `yaml:"historical_accuracy"`
	// AccuracyWindowDays is the recency window the accuracy was computed
	// over. Zero means the registry default applies.
	AccuracyWindowDays int `yaml:"accuracy_window_days,omitempty"`
}

// PredictionResult is a single model's output. Exactly one of Margin or
// WinProbability is set, according to the model's task.
type PredictionResult struct {
	ModelID        string
	Task           Task
	Margin         *float64
	WinProbability *float64
	Confidence     float64
}

// Value returns the raw output regardless of task.
func (r PredictionResult) Value() float64 {
	if r.Margin != nil {
		return *r.Margin
	}
	if r.WinProbability != nil {
		return *r.WinProbability
	}
	return math.NaN()
}

// EnsembleResult combines per-model outputs by normalized weight.
type EnsembleResult struct {
	Models         []string
	Weights        map[string]float64
	Margin         *float64
	WinProbability *float64
	Confidence     float64
	PerModel       []PredictionResult
}

func float64Ptr(v float64) *float64 { return &v }

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
