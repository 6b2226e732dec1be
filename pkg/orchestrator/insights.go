package orchestrator

import (
	"fmt"

	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/model"
)

// describePayload turns one successful result into an insight line. Unknown
// payload shapes fall back to a generic completion line rather than being
// dropped.
func describePayload(result core.ActionResult) string {
	switch payload := result.Payload.(type) {
	case model.PredictionResult:
		return describePrediction(payload)
	case model.EnsembleResult:
		return describeEnsemble(payload)
	case []model.ModelInfo:
		return fmt.Sprintf("%d models available for inference", len(payload))
	case map[string]float64:
		return fmt.Sprintf("%s returned %d features", result.AgentID, len(payload))
	default:
		return fmt.Sprintf("%s completed %s", result.AgentID, result.Capability)
	}
}

func describePrediction(p model.PredictionResult) string {
	switch {
	case p.Margin != nil:
		return fmt.Sprintf("%s predicts a margin of %+.1f points (confidence %.2f)",
			p.ModelID, *p.Margin, p.Confidence)
	case p.WinProbability != nil:
		return fmt.Sprintf("%s puts the win probability at %.0f%% (confidence %.2f)",
			p.ModelID, *p.WinProbability*100, p.Confidence)
	default:
		return fmt.Sprintf("%s produced no output", p.ModelID)
	}
}

func describeEnsemble(e model.EnsembleResult) string {
	switch {
	case e.Margin != nil && e.WinProbability != nil:
		return fmt.Sprintf("ensemble of %d models predicts a %+.1f point margin and %.0f%% win probability (confidence %.2f)",
			len(e.Models), *e.Margin, *e.WinProbability*100, e.Confidence)
	case e.Margin != nil:
		return fmt.Sprintf("ensemble of %d models predicts a %+.1f point margin (confidence %.2f)",
			len(e.Models), *e.Margin, e.Confidence)
	case e.WinProbability != nil:
		return fmt.Sprintf("ensemble of %d models puts the win probability at %.0f%% (confidence %.2f)",
			len(e.Models), *e.WinProbability*100, e.Confidence)
	default:
		return fmt.Sprintf("ensemble of %d models produced no output", len(e.Models))
	}
}
