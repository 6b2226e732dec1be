package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/courtside/courtside/pkg/errors"
)

// Artifact is a deserialized model blob. The engine has no opinion on the
// serialization format; it sees only this surface.
type Artifact interface {
	Predict(features map[string]float64) (float64, error)
}

// ArtifactStore loads opaque versioned model blobs by manifest entry.
type ArtifactStore interface {
	Load(ctx context.Context, info ModelInfo) (Artifact, error)
}

// FileStore loads artifacts from a directory of YAML-encoded linear models.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Load reads and decodes the artifact for the given manifest entry.
func (s *FileStore) Load(_ context.Context, info ModelInfo) (Artifact, error) {
	path := filepath.Join(s.dir, info.Path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeModelLoadFailure,
			fmt.Sprintf("reading artifact for %q", info.ID), err).
			WithContext("path", path)
	}
	var artifact linearArtifact
	if err := yaml.Unmarshal(raw, &artifact); err != nil {
		return nil, errors.New(errors.CodeModelLoadFailure,
			fmt.Sprintf("decoding artifact for %q", info.ID), err).
			WithContext("path", path)
	}
	if len(artifact.Weights) == 0 {
		return nil, errors.New(errors.CodeModelLoadFailure,
			fmt.Sprintf("artifact for %q has no weights", info.ID), nil).
			WithContext("path", path)
	}
	return &artifact, nil
}

// linearArtifact is the on-disk shape of a trained linear model: a weight
// per feature, an intercept, and a link function.
type linearArtifact struct {
	Version   string             `yaml:"version"`
	Weights   map[string]float64 `yaml:"weights"`
	Intercept float64            `yaml:"intercept"`
	Link      string             `yaml:"link"` // identity or logistic
}

// Predict computes the linear combination of the provided features.
// Missing feature validation happens upstream in the registry; here a
// missing key contributes zero only because the registry guarantees it
// cannot happen for required features.
func (a *linearArtifact) Predict(features map[string]float64) (float64, error) {
	z := a.Intercept
	for name, weight := range a.Weights {
		z += weight * features[name]
	}
	switch a.Link {
	case "", "identity":
		return z, nil
	case "logistic":
		return 1.0 / (1.0 + math.Exp(-z)), nil
	default:
		return 0, fmt.Errorf("unknown link function %q", a.Link)
	}
}

// Manifest is the YAML document listing served models.
type Manifest struct {
	Models []ModelInfo `yaml:"models"`
}

// LoadManifest reads a model manifest from disk.
func LoadManifest(path string) ([]ModelInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "reading model manifest", err).
			WithContext("path", path)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, errors.New(errors.CodeInvalidInput, "decoding model manifest", err).
			WithContext("path", path)
	}
	for _, info := range manifest.Models {
		if info.ID == "" {
			return nil, errors.New(errors.CodeInvalidInput, "manifest entry missing id", nil)
		}
		if !info.Task.Valid() {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("model %q has unknown task %q", info.ID, info.Task), nil)
		}
	}
	return manifest.Models, nil
}
