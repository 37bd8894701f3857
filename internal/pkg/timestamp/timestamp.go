// Package timestamp normalizes the date shapes found in exported and
// client-submitted documents into UTC time.Time values.
//
// Accepted shapes:
//   - {"seconds": 1699999999, "nanoseconds": 0} (also "_seconds"/"_nanoseconds")
//   - RFC 3339 / ISO-8601 strings, with or without a zone, or a bare date
//   - numbers, read as milliseconds since the Unix epoch
package timestamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNull      = errors.New("timestamp is null")
	ErrMalformed = errors.New("malformed timestamp")
)

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type firestoreTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

// Parse decodes raw into a UTC time. A JSON null (or empty input) returns
// ErrNull; anything unrecognised returns an error wrapping ErrMalformed.
func Parse(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, ErrNull
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return ParseString(s)
	case '{':
		var ts firestoreTimestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch {
		case ts.Seconds != nil:
			return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), nil
		case ts.USeconds != nil:
			return time.Unix(*ts.USeconds, ts.UNanoseconds).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("%w: object without seconds", ErrMalformed)
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMalformed, raw)
		}
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrMalformed, raw)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}

// ParseString parses the string forms accepted by Parse. Strings without a
// zone are read as UTC.
func ParseString(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrNull
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformed, s)
}

// OrNow parses raw and returns now when it is null or malformed.
func OrNow(raw json.RawMessage, now time.Time) time.Time {
	t, err := Parse(raw)
	if err != nil {
		return now.UTC()
	}
	return t
}

// Flexible is a nullable time that accepts every shape Parse does when
// decoded from JSON and always encodes as RFC 3339.
type Flexible struct {
	Time  time.Time
	Valid bool
}

// Ptr returns nil for a null value.
func (f Flexible) Ptr() *time.Time {
	if !f.Valid {
		return nil
	}
	t := f.Time
	return &t
}

func (f *Flexible) UnmarshalJSON(data []byte) error {
	t, err := Parse(data)
	if errors.Is(err, ErrNull) {
		*f = Flexible{}
		return nil
	}
	if err != nil {
		return err
	}
	*f = Flexible{Time: t, Valid: true}
	return nil
}

func (f Flexible) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time.UTC().Format(time.RFC3339))
}
