package domain

import "strings"

// ProviderStatus is the canonical approval state of a provider.
type ProviderStatus string

// Provider approval states.
const (
	ProviderPending  ProviderStatus = "PENDING"
	ProviderOnHold   ProviderStatus = "ON_HOLD"
	ProviderApproved ProviderStatus = "APPROVED"
)

// BookingStatus is the canonical lifecycle state of a booking.
type BookingStatus string

// Booking lifecycle states. REJECTED and CANCELLED are terminal.
const (
	BookingPending   BookingStatus = "PENDING"
	BookingAccepted  BookingStatus = "ACCEPTED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Terminal reports whether the booking status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCancelled
}

// Display tones used by the UI for status badges.
const (
	ToneOK    = "ok"
	ToneWarn  = "warn"
	ToneAlert = "alert"
)

// NormalizeProviderStatus maps free-form status text onto a canonical
// ProviderStatus. The substring heuristics are a deliberate compatibility
// behavior for data written by older snapshot versions.
func NormalizeProviderStatus(value string) ProviderStatus {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return ProviderPending
	}
	if strings.Contains(normalized, "APPROVED") || strings.Contains(normalized, "VERIFIED") {
		return ProviderApproved
	}
	if strings.Contains(normalized, "HOLD") {
		return ProviderOnHold
	}
	return ProviderPending
}

// StatusLabelToProviderStatus maps an admin-facing verification label (such as
// "Verified" or "Under Review") back onto the canonical ProviderStatus.
func StatusLabelToProviderStatus(value string) ProviderStatus {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return ProviderPending
	}
	switch {
	case normalized == "VERIFIED" || strings.Contains(normalized, "APPROVED"):
		return ProviderApproved
	case strings.Contains(normalized, "UNDER REVIEW") || strings.Contains(normalized, "HOLD"):
		return ProviderOnHold
	case strings.Contains(normalized, "PENDING"):
		return ProviderPending
	}
	return NormalizeProviderStatus(normalized)
}

// ProviderDocsLabel returns the document-review label shown in the admin
// provider queue.
func ProviderDocsLabel(status ProviderStatus) string {
	switch status {
	case ProviderApproved:
		return "Approved"
	case ProviderOnHold:
		return "On hold"
	default:
		return "Pending review"
	}
}

// ProviderTone returns the badge tone for a provider status.
func ProviderTone(status ProviderStatus) string {
	if status == ProviderApproved {
		return ToneOK
	}
	return ToneWarn
}

// VerificationLabel returns the verification-queue label for a provider
// status.
func VerificationLabel(status ProviderStatus) string {
	switch status {
	case ProviderApproved:
		return "Verified"
	case ProviderOnHold:
		return "Under Review"
	default:
		return "Pending"
	}
}

// NormalizeBookingStatus maps free-form booking status text onto a canonical
// BookingStatus, again via compatibility substring matching.
func NormalizeBookingStatus(value string) BookingStatus {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return BookingPending
	}
	if strings.Contains(normalized, "CANCEL") {
		return BookingCancelled
	}
	if strings.Contains(normalized, "REJECT") || strings.Contains(normalized, "DECLIN") {
		return BookingRejected
	}
	if strings.Contains(normalized, "ACCEPT") ||
		strings.Contains(normalized, "APPROV") ||
		strings.Contains(normalized, "COMPLETE") {
		return BookingAccepted
	}
	return BookingPending
}

// BookingTone returns the badge tone for a booking status.
func BookingTone(status BookingStatus) string {
	switch status {
	case BookingAccepted:
		return ToneOK
	case BookingPending:
		return ToneWarn
	default:
		return ToneAlert
	}
}

// BookingStatusLabel returns the customer-facing label for a booking status.
func BookingStatusLabel(status BookingStatus) string {
	switch status {
	case BookingAccepted:
		return "Accepted"
	case BookingRejected:
		return "Rejected"
	case BookingCancelled:
		return "Cancelled"
	default:
		return "Pending"
	}
}
