package model

import (
	"encoding/json"
	"time"
)

// ServerTimeLayout is the timestamp layout written by the PHP mirror.
const ServerTimeLayout = "2006-01-02 15:04:05"

// Timestamp is a creation time that may be missing. Unparseable values decode
// to the zero Timestamp instead of failing the whole record.
type Timestamp struct {
	time.Time
}

// TimestampOf wraps t, truncated to whole seconds.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// Valid reports whether the timestamp is present.
func (ts Timestamp) Valid() bool {
	return !ts.IsZero()
}

// ParseTimestamp parses RFC 3339 (with or without fractional seconds) or the
// server layout, the latter in loc.
func ParseTimestamp(s string, loc *time.Location) (Timestamp, bool) {
	if s == "" {
		return Timestamp{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, true
	}
	if t, err := time.ParseInLocation(ServerTimeLayout, s, loc); err == nil {
		return Timestamp{Time: t}, true
	}
	return Timestamp{}, false
}

// MarshalJSON writes RFC 3339, or null when missing.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339))
}

// UnmarshalJSON accepts null, strings in either accepted layout, and anything
// else as missing.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = Timestamp{}
		return nil
	}
	*ts, _ = ParseTimestamp(s, time.Local)
	return nil
}
