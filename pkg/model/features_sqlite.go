package model

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/courtside/courtside/pkg/errors"
)

// SQLiteFeatures persists game feature rows in SQLite, one row per
// (game, feature) pair.
type SQLiteFeatures struct {
	db *sql.DB
}

// NewSQLiteFeatures creates a SQLite-backed feature store and ensures schema.
func NewSQLiteFeatures(db *sql.DB) (*SQLiteFeatures, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureFeatureSchema(db); err != nil {
		return nil, errors.New(errors.CodeInternal, "ensuring feature schema", err)
	}
	return &SQLiteFeatures{db: db}, nil
}

// Put upserts the feature row for a game.
func (s *SQLiteFeatures) Put(ctx context.Context, gameID string, features map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM game_features WHERE game_id = ?`, gameID); err != nil {
		return err
	}
	for name, value := range features {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO game_features (game_id, feature, value) VALUES (?, ?, ?)
		`, gameID, name, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Lookup returns the named-feature map for a game, or NOT_FOUND.
func (s *SQLiteFeatures) Lookup(ctx context.Context, gameID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT feature, value FROM game_features WHERE game_id = ?
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	features := make(map[string]float64)
	for rows.Next() {
		var (
			name  string
			value float64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		features[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, ErrGameNotFound(gameID)
	}
	return features, nil
}

func ensureFeatureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS game_features (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			feature TEXT NOT NULL,
			value REAL NOT NULL,
			UNIQUE (game_id, feature)
		);
		CREATE INDEX IF NOT EXISTS idx_game_features_game ON game_features(game_id);
	`)
	return err
}
