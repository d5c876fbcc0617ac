package domain

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

// Entity id prefixes. Ids follow the pattern "<prefix>-<epochMillis>-<rand>";
// the embedded timestamp exists so that message creation times lost by older
// snapshot versions can be recovered (see TimestampFromMessageID).
const (
	IDPrefixProvider     = "pq"
	IDPrefixVerification = "ver"
	IDPrefixService      = "svc"
	IDPrefixBooking      = "bk"
	IDPrefixMessage      = "msg"
	IDPrefixDispute      = "dsp"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var messageIDPattern = regexp.MustCompile(`^msg-(\d+)-`)

// NewID generates a prefixed identifier with an embedded epoch-millisecond
// timestamp and a short random suffix.
func NewID(prefix string) string {
	return NewIDAt(prefix, time.Now())
}

// NewIDAt is NewID with an explicit creation time, for deterministic tests.
func NewIDAt(prefix string, at time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return fmt.Sprintf("%s-%d-%s", prefix, at.UnixMilli(), suffix)
}

// NewMessageID generates an id for chat messages.
func NewMessageID() string { return NewID(IDPrefixMessage) }

// VerificationIDForProvider derives the deterministic verification-queue id
// for a provider. The provider's normalized email is the stable key; the raw
// provider id is the fallback for entries that never carried an email.
func VerificationIDForProvider(email, providerID string) string {
	key := email
	if key == "" {
		key = providerID
	}
	return "ver-provider-" + key
}

// ProviderEmailFromVerificationID extracts the provider email embedded in a
// provider-derived verification id, or "" when the id is not provider-derived.
func ProviderEmailFromVerificationID(id string) (string, bool) {
	const prefix = "ver-provider-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return "", false
	}
	return id[len(prefix):], true
}

// TimestampFromMessageID recovers the epoch-millisecond timestamp embedded in
// a generated message id. It returns the zero time when the id does not match
// the generated pattern. This is a migration path for messages stored without
// a createdAt, not a contract on id format.
func TimestampFromMessageID(id string) time.Time {
	match := messageIDPattern.FindStringSubmatch(id)
	if match == nil {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// NormalizeMessageCreatedAt resolves a message's creation time: a valid stored
// timestamp wins, then the timestamp recovered from the message id, then the
// unknown (zero) sentinel.
func NormalizeMessageCreatedAt(createdAt Time, messageID string) Time {
	if !createdAt.IsZero() {
		return NewTime(createdAt.UTC())
	}
	if fromID := TimestampFromMessageID(messageID); !fromID.IsZero() {
		return NewTime(fromID)
	}
	return Time{}
}
