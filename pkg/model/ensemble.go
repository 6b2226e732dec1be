package model

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtside/courtside/pkg/errors"
)

// weightTolerance is the allowed deviation of the normalized weight sum
// from 1.0.
const weightTolerance = 1e-6

// PredictEnsemble runs each named model and combines per-task outputs by
// normalized weight. When weights is nil the default weighting is the
// models' historical accuracies normalized to sum to 1.0. Margin outputs
// combine by weighted mean of point margins; win-probability outputs by
// weighted mean of probabilities clamped to [0.01, 0.99]. Confidence is
// 1 − normalized disagreement, where disagreement is the variance of raw
// outputs scaled into [0,1] by the task's known output range.
func (r *Registry) PredictEnsemble(ctx context.Context, features map[string]float64, modelIDs []string, weights map[string]float64) (EnsembleResult, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.PredictEnsemble", trace.WithAttributes(
		attribute.Int("ensemble.models", len(modelIDs)),
	))
	defer span.End()

	if len(modelIDs) == 0 {
		return EnsembleResult{}, errors.New(errors.CodeInvalidInput,
			"ensemble requires at least one model", nil).WithRecoverable(true)
	}

	infos := make([]ModelInfo, 0, len(modelIDs))
	for _, id := range modelIDs {
		info, ok := r.Info(id)
		if !ok {
			return EnsembleResult{}, errors.New(errors.CodeModelNotFound,
				fmt.Sprintf("model %q is not registered", id), nil).
				WithRecoverable(true)
		}
		infos = append(infos, info)
	}

	normalized, err := normalizeWeights(infos, weights)
	if err != nil {
		return EnsembleResult{}, err
	}

	results := make([]PredictionResult, 0, len(infos))
	for _, info := range infos {
		result, err := r.Predict(ctx, info.ID, features)
		if err != nil {
			return EnsembleResult{}, err
		}
		results = append(results, result)
	}

	ensemble := EnsembleResult{
		Models:   append([]string(nil), modelIDs...),
		Weights:  normalized,
		PerModel: results,
	}
	combine(&ensemble, results, normalized)
	return ensemble, nil
}

// normalizeWeights produces weights summing to 1.0 within tolerance. With no
// explicit weights, historical accuracy drives the distribution.
func normalizeWeights(infos []ModelInfo, explicit map[string]float64) (map[string]float64, error) {
	raw := make(map[string]float64, len(infos))
	total := 0.0
	for _, info := range infos {
		w := info.HistoricalAccuracy
		if explicit != nil {
			v, ok := explicit[info.ID]
			if !ok {
				return nil, errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("no weight supplied for model %q", info.ID), nil).
					WithRecoverable(true)
			}
			w = v
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("invalid weight %v for model %q", w, info.ID), nil).
				WithRecoverable(true)
		}
		raw[info.ID] = w
		total += w
	}
	if total <= 0 {
		// All-zero weights degrade to a uniform distribution.
		uniform := 1.0 / float64(len(infos))
		for id := range raw {
			raw[id] = uniform
		}
		return raw, nil
	}
	for id := range raw {
		raw[id] /= total
	}
	return raw, nil
}

// combine fills the per-task combined outputs and the overall confidence.
func combine(ensemble *EnsembleResult, results []PredictionResult, weights map[string]float64) {
	disagreement := 0.0
	for _, task := range []Task{TaskMargin, TaskWinProbability} {
		var subset []PredictionResult
		for _, result := range results {
			if result.Task == task {
				subset = append(subset, result)
			}
		}
		if len(subset) == 0 {
			continue
		}
		mean := taskWeightedMean(subset, weights)
		switch task {
		case TaskWinProbability:
			ensemble.WinProbability = float64Ptr(clamp(mean, 0.01, 0.99))
		default:
			ensemble.Margin = float64Ptr(mean)
		}
		if d := normalizedDisagreement(subset, task); d > disagreement {
			disagreement = d
		}
	}
	ensemble.Confidence = clamp(1.0-disagreement, 0, 1)
}

// taskWeightedMean renormalizes the task subset's weights so each task's
// combination is a proper weighted mean even in mixed-task ensembles.
func taskWeightedMean(subset []PredictionResult, weights map[string]float64) float64 {
	total := 0.0
	for _, result := range subset {
		total += weights[result.ModelID]
	}
	if total <= 0 {
		total = float64(len(subset))
		sum := 0.0
		for _, result := range subset {
			sum += result.Value()
		}
		return sum / total
	}
	sum := 0.0
	for _, result := range subset {
		sum += weights[result.ModelID] / total * result.Value()
	}
	return sum
}

// normalizedDisagreement is the population variance of raw outputs scaled
// into [0,1] by the worst case for the task's output range: all mass split
// across the two extremes.
func normalizedDisagreement(subset []PredictionResult, task Task) float64 {
	if len(subset) < 2 {
		return 0
	}
	mean := 0.0
	for _, result := range subset {
		mean += result.Value()
	}
	mean /= float64(len(subset))
	variance := 0.0
	for _, result := range subset {
		d := result.Value() - mean
		variance += d * d
	}
	variance /= float64(len(subset))

	half := task.OutputSpan() / 2
	worst := half * half
	if worst <= 0 {
		return 0
	}
	return clamp(variance/worst, 0, 1)
}
