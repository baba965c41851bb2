package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/model"
)

// UpsertMirrorProduct stores l in the mirror table keyed by its ID. A listing
// without an ID gets a fresh one; an invalid listing is rejected with a
// ValidationError. The queries run on both SQLite and MySQL.
func UpsertMirrorProduct(ctx context.Context, db *sql.DB, l model.Listing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := l.Validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encoding mirror product: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM mirror_products WHERE backend_id = ?`, l.ID,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO mirror_products (backend_id, data) VALUES (?, ?)`,
			l.ID, string(data),
		)
		if err != nil {
			return "", fmt.Errorf("inserting mirror product: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("looking up mirror product: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE mirror_products SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(data), id,
		)
		if err != nil {
			return "", fmt.Errorf("updating mirror product: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing mirror product: %w", err)
	}
	return l.ID, nil
}

// ListMirrorProducts returns every mirrored listing, newest row first. Rows
// that no longer decode are skipped.
func ListMirrorProducts(ctx context.Context, db *sql.DB) ([]model.Listing, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT backend_id, data FROM mirror_products ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing mirror products: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var backendID, data string
		if err := rows.Scan(&backendID, &data); err != nil {
			return nil, fmt.Errorf("scanning mirror product: %w", err)
		}
		var l model.Listing
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			slog.Warn("skipping malformed mirror product", "backend_id", backendID, "error", err)
			continue
		}
		l.ID = backendID
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
