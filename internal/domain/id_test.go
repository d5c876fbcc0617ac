package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewIDAt_Shape(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id := NewIDAt(IDPrefixBooking, at)
	if !strings.HasPrefix(id, "bk-1700000000000-") {
		t.Fatalf("unexpected id shape: %q", id)
	}
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || len(parts[2]) != 6 {
		t.Fatalf("expected 6-char random suffix, got %q", id)
	}
}

func TestTimestampFromMessageID(t *testing.T) {
	at := time.UnixMilli(1700000000000).UTC()
	id := NewIDAt(IDPrefixMessage, at)
	if got := TimestampFromMessageID(id); !got.Equal(at) {
		t.Errorf("TimestampFromMessageID(%q) = %v; want %v", id, got, at)
	}

	for _, bad := range []string{"", "msg-", "msg-abc-xyz", "bk-1700000000000-abcdef", "msg-0-abcdef"} {
		if got := TimestampFromMessageID(bad); !got.IsZero() {
			t.Errorf("TimestampFromMessageID(%q) = %v; want zero", bad, got)
		}
	}
}

func TestNormalizeMessageCreatedAt(t *testing.T) {
	stored := NewTime(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	if got := NormalizeMessageCreatedAt(stored, "msg-1700000000000-abcdef"); !got.Equal(stored.Time) {
		t.Errorf("stored createdAt must win, got %v", got)
	}

	fromID := NormalizeMessageCreatedAt(Time{}, "msg-1700000000000-abcdef")
	if !fromID.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("expected recovery from id, got %v", fromID)
	}

	if got := NormalizeMessageCreatedAt(Time{}, "not-a-generated-id"); !got.IsZero() {
		t.Errorf("expected zero sentinel, got %v", got)
	}
}

func TestVerificationIDForProvider(t *testing.T) {
	if got := VerificationIDForProvider("ann@x.com", "pq-1"); got != "ver-provider-ann@x.com" {
		t.Errorf("got %q", got)
	}
	if got := VerificationIDForProvider("", "pq-1"); got != "ver-provider-pq-1" {
		t.Errorf("fallback to id failed, got %q", got)
	}

	email, ok := ProviderEmailFromVerificationID("ver-provider-ann@x.com")
	if !ok || email != "ann@x.com" {
		t.Errorf("ProviderEmailFromVerificationID = %q, %v", email, ok)
	}
	if _, ok := ProviderEmailFromVerificationID("ver-123"); ok {
		t.Error("non-provider id must not resolve")
	}
}

func TestTimeJSONTolerance(t *testing.T) {
	var ts Time
	for _, raw := range []string{`""`, `"not a date"`, `null`, `{}`, `-5`} {
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", raw, err)
		}
		if !ts.IsZero() {
			t.Errorf("Unmarshal(%s) = %v; want zero", raw, ts)
		}
	}

	if err := json.Unmarshal([]byte(`"2024-03-01T10:00:00Z"`), &ts); err != nil || ts.IsZero() {
		t.Fatalf("valid RFC3339 rejected: %v %v", ts, err)
	}
	if err := json.Unmarshal([]byte(`1700000000000`), &ts); err != nil || !ts.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("epoch millis rejected: %v %v", ts, err)
	}

	out, err := json.Marshal(Time{})
	if err != nil || string(out) != `""` {
		t.Fatalf("zero Time marshals as %s (err %v); want \"\"", out, err)
	}
}

func TestOptBool(t *testing.T) {
	var b OptBool
	if !b.TrueIfUnset() {
		t.Error("unset OptBool must resolve true")
	}
	if err := json.Unmarshal([]byte(`false`), &b); err != nil {
		t.Fatal(err)
	}
	if b.TrueIfUnset() {
		t.Error("explicit false must resolve false")
	}
	out, _ := json.Marshal(OptBool{})
	if string(out) != "true" {
		t.Errorf("unset OptBool marshals as %s; want true", out)
	}
}
