package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/erazemk/trznica/internal/model"
)

// CollectionVersion is the envelope version written by Save.
const CollectionVersion = 1

// GetCollection returns the raw JSON stored under key, or "" if unset.
func GetCollection(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM collections WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting collection %s: %w", key, err)
	}
	return value, nil
}

// PutCollection overwrites the raw JSON stored under key.
func PutCollection(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("putting collection %s: %w", key, err)
	}
	return nil
}

type envelope[T any] struct {
	Version int `json:"version"`
	Records []T `json:"records"`
}

// Collection is a typed, ordered list of records persisted as one JSON
// document. Documents are written as {"version":1,"records":[...]}; a bare
// array is the version 0 format and is decoded record by record with Legacy.
type Collection[T any] struct {
	Key    string
	Legacy func(gjson.Result) (T, bool)
}

// Load reads the collection. Malformed documents read as empty and are
// logged; only database failures are returned.
func (c Collection[T]) Load(ctx context.Context, db *sql.DB) ([]T, error) {
	raw, err := GetCollection(ctx, db, c.Key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	records, err := c.Decode(raw)
	if err != nil {
		slog.Warn("discarding unreadable collection", "key", c.Key, "error", err)
		return nil, nil
	}
	return records, nil
}

// Save overwrites the collection with records.
func (c Collection[T]) Save(ctx context.Context, db *sql.DB, records []T) error {
	data, err := c.Encode(records)
	if err != nil {
		return err
	}
	return PutCollection(ctx, db, c.Key, string(data))
}

// Encode returns the current envelope encoding of records.
func (c Collection[T]) Encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(envelope[T]{Version: CollectionVersion, Records: records})
	if err != nil {
		return nil, fmt.Errorf("encoding collection %s: %w", c.Key, err)
	}
	return data, nil
}

// Decode parses a stored document. Whole-document problems return a
// StorageReadError; individual malformed records are skipped.
func (c Collection[T]) Decode(raw string) ([]T, error) {
	if !gjson.Valid(raw) {
		return nil, &model.StorageReadError{Key: c.Key, Err: errors.New("invalid json")}
	}

	doc := gjson.Parse(raw)
	var records gjson.Result
	legacy := false

	switch {
	case doc.IsArray():
		records = doc
		legacy = true
	case doc.IsObject():
		version := doc.Get("version").Int()
		if version < 1 {
			return nil, &model.StorageReadError{Key: c.Key, Err: errors.New("missing version")}
		}
		if version > CollectionVersion {
			return nil, &model.StorageReadError{Key: c.Key, Err: fmt.Errorf("unsupported version %d", version)}
		}
		records = doc.Get("records")
		if !records.IsArray() {
			return nil, &model.StorageReadError{Key: c.Key, Err: errors.New("records is not an array")}
		}
	default:
		return nil, &model.StorageReadError{Key: c.Key, Err: errors.New("not an array")}
	}

	out := []T{}
	index := 0
	records.ForEach(func(_, rec gjson.Result) bool {
		if item, ok := c.decodeRecord(rec, legacy); ok {
			out = append(out, item)
		} else {
			slog.Warn("skipping malformed record", "key", c.Key, "index", index)
		}
		index++
		return true
	})
	return out, nil
}

func (c Collection[T]) decodeRecord(rec gjson.Result, legacy bool) (T, bool) {
	var item T
	if !rec.IsObject() {
		return item, false
	}
	if legacy && c.Legacy != nil {
		return c.Legacy(rec)
	}
	if err := json.Unmarshal([]byte(rec.Raw), &item); err != nil {
		return item, false
	}
	return item, true
}
