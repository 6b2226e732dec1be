// Package agents provides the stock Courtside agents: the predictor over the
// model registry, the read-only statistician over the feature store, and the
// admin-level curator that manages the model manifest.
package agents

import (
	"fmt"

	"github.com/courtside/courtside/pkg/errors"
)

func paramString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("parameter %q is required", key), nil).WithRecoverable(true)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("parameter %q must be a non-empty string", key), nil).WithRecoverable(true)
	}
	return s, nil
}

func paramStringSlice(params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("parameter %q is required", key), nil).WithRecoverable(true)
	}
	switch values := v.(type) {
	case []string:
		return values, nil
	case []any:
		out := make([]string, 0, len(values))
		for _, item := range values {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("parameter %q must contain only strings", key), nil).WithRecoverable(true)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("parameter %q must be a string list", key), nil).WithRecoverable(true)
	}
}

// paramFloatMap accepts either a typed float map or the loosely typed map a
// decoded JSON document yields.
func paramFloatMap(params map[string]any, key string) (map[string]float64, bool, error) {
	v, ok := params[key]
	if !ok {
		return nil, false, nil
	}
	switch values := v.(type) {
	case map[string]float64:
		out := make(map[string]float64, len(values))
		for name, value := range values {
			out[name] = value
		}
		return out, true, nil
	case map[string]any:
		out := make(map[string]float64, len(values))
		for name, item := range values {
			switch number := item.(type) {
			case float64:
				out[name] = number
			case int:
				out[name] = float64(number)
			default:
				return nil, false, errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("parameter %q must map feature names to numbers", key), nil).
					WithRecoverable(true)
			}
		}
		return out, true, nil
	default:
		return nil, false, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("parameter %q must be a feature map", key), nil).WithRecoverable(true)
	}
}
