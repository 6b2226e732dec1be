package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := stderrors.New("file missing")
	err := New(CodeModelLoadFailure, "loading ridge_v1", cause)

	if !strings.Contains(err.Error(), "MODEL_LOAD_FAILURE") {
		t.Fatalf("code missing from message: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "file missing") {
		t.Fatalf("cause missing from message: %s", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestErrorChaining(t *testing.T) {
	err := New(CodeFeatureMismatch, "missing features", nil).
		WithContext("model_id", "xgb_v2").
		WithContext("missing", []string{"pace"}).
		WithRecoverable(true)

	if !err.Recoverable {
		t.Fatal("expected recoverable")
	}
	if err.Context["model_id"] != "xgb_v2" {
		t.Fatalf("context not retained: %v", err.Context)
	}
}

func TestAsCourtsideError(t *testing.T) {
	plain := stderrors.New("boom")
	ce := AsCourtsideError(plain)
	if ce.Code != CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %s", ce.Code)
	}

	typed := New(CodeTimeout, "agent timed out", nil)
	if AsCourtsideError(typed) != typed {
		t.Fatal("expected identity for typed errors")
	}
	if AsCourtsideError(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodePermissionDenied, "nope", nil)); got != CodePermissionDenied {
		t.Fatalf("unexpected code: %s", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeInternal {
		t.Fatalf("unexpected code for plain error: %s", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("unexpected code for nil: %s", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeModelNotFound, "no such model", nil).WithContext("model_id", "xgb_v2")
	raw, merr := json.Marshal(err)
	if merr != nil {
		t.Fatalf("marshal failed: %v", merr)
	}
	var decoded map[string]any
	if uerr := json.Unmarshal(raw, &decoded); uerr != nil {
		t.Fatalf("unmarshal failed: %v", uerr)
	}
	if decoded["code"] != "MODEL_NOT_FOUND" {
		t.Fatalf("unexpected code in JSON: %v", decoded["code"])
	}
}
