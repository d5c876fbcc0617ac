package domain

import (
	"encoding/json"
	"time"
)

// Time is a JSON-tolerant timestamp. Snapshots loaded from client storage may
// carry empty or malformed createdAt strings; those must degrade to the
// "unknown creation time" zero value instead of failing the whole snapshot
// decode. A zero Time marshals as "" to stay compatible with stored data.
type Time struct {
	time.Time
}

// NewTime wraps a time.Time.
func NewTime(t time.Time) Time { return Time{Time: t} }

// MarshalJSON encodes the timestamp as RFC 3339, or "" when unknown.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 strings, epoch milliseconds, and anything
// else (which becomes the zero value). It never returns an error for
// malformed content.
func (t *Time) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z0700"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return nil
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil && ms > 0 {
		t.Time = time.UnixMilli(ms).UTC()
	}
	return nil
}

// OptBool is a tri-state boolean for fields whose absence means true, such as
// a catalog entry's availability flag. Stored snapshots predating the flag
// omit it entirely; those entries must stay available.
type OptBool struct {
	Set   bool
	Value bool
}

// TrueIfUnset resolves the flag, treating "not present" as true.
func (b OptBool) TrueIfUnset() bool {
	if !b.Set {
		return true
	}
	return b.Value
}

// SetBool returns an explicitly assigned OptBool.
func SetBool(v bool) OptBool { return OptBool{Set: true, Value: v} }

// MarshalJSON always encodes a concrete boolean, resolving the default.
func (b OptBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.TrueIfUnset())
}

// UnmarshalJSON records that the field was present. Non-boolean content is
// ignored and leaves the flag unset.
func (b *OptBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		b.Set = true
		b.Value = v
	}
	return nil
}
