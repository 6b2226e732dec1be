package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	shutdown, err := Init("courtside-test", "v0.0.1")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Shutdown function should not be nil")
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitWithConfigDefaultsServiceName(t *testing.T) {
	shutdown, err := InitWithConfig("", "v0.0.1", Config{Exporter: "stdout"})
	if err != nil {
		t.Fatalf("InitWithConfig with empty service name failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInitWithConfigRejectsUnknownExporter(t *testing.T) {
	_, err := InitWithConfig("courtside-test", "v0.0.1", Config{Exporter: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitWithConfigRequiresOTLPEndpoint(t *testing.T) {
	_, err := InitWithConfig("courtside-test", "v0.0.1", Config{Exporter: "otlp"})
	if err == nil {
		t.Fatal("expected error for missing otlp endpoint")
	}
}

func TestConfigureSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")
	defer slog.SetDefault(slog.Default())

	logger.Info("request.completed", slog.String("query_type", "game_prediction"))
	out := buf.String()
	if !strings.Contains(out, `"msg":"request.completed"`) {
		t.Errorf("json output missing message: %s", out)
	}
	if !strings.Contains(out, `"query_type":"game_prediction"`) {
		t.Errorf("json output missing attribute: %s", out)
	}
}

func TestConfigureSlogLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "text")
	defer slog.SetDefault(slog.Default())

	logger.Info("suppressed")
	logger.Warn("emitted")
	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("info record leaked past warn level: %s", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn record missing: %s", out)
	}
}
