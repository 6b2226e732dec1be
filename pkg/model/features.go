package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/courtside/courtside/pkg/errors"
)

// FeatureStore looks up the named-feature row for a game. The only contract
// is lookup by key: a hit returns the feature map, a miss is NOT_FOUND.
type FeatureStore interface {
	Lookup(ctx context.Context, gameID string) (map[string]float64, error)
}

// ErrGameNotFound builds the typed miss for a feature lookup.
func ErrGameNotFound(gameID string) error {
	return errors.New(errors.CodeNotFound,
		fmt.Sprintf("no feature row for game %q", gameID), nil).
		WithRecoverable(true)
}

// InMemoryFeatures is a map-backed feature store.
type InMemoryFeatures struct {
	mu   sync.RWMutex
	rows map[string]map[string]float64
}

// NewInMemoryFeatures creates an empty in-memory store.
func NewInMemoryFeatures() *InMemoryFeatures {
	return &InMemoryFeatures{rows: make(map[string]map[string]float64)}
}

// Put stores a feature row for a game, replacing any existing row.
func (s *InMemoryFeatures) Put(gameID string, features map[string]float64) {
	row := make(map[string]float64, len(features))
	for k, v := range features {
		row[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[gameID] = row
}

// Lookup returns a copy of the feature row for a game.
func (s *InMemoryFeatures) Lookup(_ context.Context, gameID string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[gameID]
	if !ok {
		return nil, ErrGameNotFound(gameID)
	}
	out := make(map[string]float64, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}
