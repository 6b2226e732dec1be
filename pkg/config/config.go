package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log          LogConfig          `koanf:"log"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Models       ModelsConfig       `koanf:"models"`
	Features     FeaturesConfig     `koanf:"features"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type OrchestratorConfig struct {
	// AgentTimeout bounds each agent action during fan-out.
	AgentTimeout time.Duration `koanf:"agent_timeout"`
	// DefaultAccessLevel is the permission level assumed for requests that
	// carry no access hint.
	DefaultAccessLevel string `koanf:"default_access_level"`
}

type ModelsConfig struct {
	ManifestPath string `koanf:"manifest_path"`
	ArtifactDir  string `koanf:"artifact_dir"`
	// AccuracyWindowDays is the recency window manifest accuracies are
	// assumed to cover when an entry does not declare its own.
	AccuracyWindowDays int `koanf:"accuracy_window_days"`
}

type FeaturesConfig struct {
	Backend    string `koanf:"backend"` // sqlite, inmemory
	SQLitePath string `koanf:"sqlite_path"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "stdout")

	k.Set("orchestrator.agent_timeout", "10s")
	k.Set("orchestrator.default_access_level", "READ_EXECUTE")

	k.Set("models.manifest_path", "models.yaml")
	k.Set("models.artifact_dir", "artifacts")
	k.Set("models.accuracy_window_days", 365)

	k.Set("features.backend", "inmemory")
	k.Set("features.sqlite_path", "features.db")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (COURTSIDE_LOG_LEVEL -> log.level)
	if err := k.Load(env.Provider("COURTSIDE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "COURTSIDE_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
