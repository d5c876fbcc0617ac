package store

import "errors"

// Mutation failures callers are expected to branch on. Every mutation either
// applies fully or leaves the snapshot untouched and returns one of these.
var (
	// ErrEmailRequired indicates an operation that needs a provider email
	// received none.
	ErrEmailRequired = errors.New("provider email is required")

	// ErrProviderNotFound indicates no provider matched the given reference.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrProviderNotApproved indicates the provider exists but is not
	// approved for bookings.
	ErrProviderNotApproved = errors.New("provider is not approved")

	// ErrCustomerEmailRequired indicates a booking request without any
	// resolvable customer email.
	ErrCustomerEmailRequired = errors.New("customer email is required")

	// ErrDuplicatePendingBooking indicates an identical pending booking
	// already exists for the same customer, provider, and service.
	ErrDuplicatePendingBooking = errors.New("duplicate pending booking")

	// ErrBookingNotFound indicates no booking matched the given id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrBookingNotAccepted indicates chat was attempted on a booking that is
	// not in the accepted state.
	ErrBookingNotAccepted = errors.New("booking is not accepted")

	// ErrBookingFinal indicates a status change was attempted on a rejected
	// or cancelled booking, which admit no further transitions.
	ErrBookingFinal = errors.New("booking is in a final state")

	// ErrBookingOwnership indicates the acting provider does not own the
	// booking it tried to change.
	ErrBookingOwnership = errors.New("booking belongs to another provider")

	// ErrEmptyMessage indicates a chat message with no text after trimming.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrVerificationNotFound indicates no verification entry matched the
	// given id.
	ErrVerificationNotFound = errors.New("verification entry not found")

	// ErrDisputeNotFound indicates no dispute matched the given id.
	ErrDisputeNotFound = errors.New("dispute not found")
)
