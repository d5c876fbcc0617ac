package store

import (
	"context"
	"strings"
	"time"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// AcceptedSeedMessage is the system message seeded into a booking's thread
// the first time it is accepted.
const AcceptedSeedMessage = "Booking accepted. Chat is now enabled for this booking."

// BookingRequest is the input to CreateBookingRequest. Empty category falls
// back to the provider's service type; empty customer identity falls back to
// the snapshot's customer profile.
type BookingRequest struct {
	ProviderEmail    string
	Category         string
	Subcategory      string
	Price            int
	SelectedSlot     string
	CustomerName     string
	CustomerEmail    string
	CustomerLocation string
}

// CreateBookingRequest files a booking against an approved provider. A
// pending booking for the same customer, provider, category, and subcategory
// already in the queue is a duplicate and is rejected without changing state.
// New bookings go to the head of the list.
func (s *Store) CreateBookingRequest(ctx context.Context, req BookingRequest) (string, error) {
	var bookingID string
	err := s.mutate(ctx, "booking.create", func(snap *domain.Snapshot) error {
		email := identity.NormalizeEmail(req.ProviderEmail)
		var provider *domain.Provider
		for i := range snap.ProviderQueue {
			if snap.ProviderQueue[i].Email == email {
				provider = &snap.ProviderQueue[i]
				break
			}
		}
		if provider == nil {
			return ErrProviderNotFound
		}
		if provider.Status != domain.ProviderApproved {
			return ErrProviderNotApproved
		}

		customerEmail := identity.NormalizeEmail(firstNonEmpty(req.CustomerEmail, snap.CustomerProfile.Email))
		if customerEmail == "" {
			return ErrCustomerEmailRequired
		}

		category := domain.NormalizeServiceCategory(firstNonEmpty(req.Category, provider.ServiceType))
		subcategory := domain.NormalizeServiceSubcategory(category, req.Subcategory)

		for _, b := range snap.Bookings {
			if b.Status == domain.BookingPending &&
				b.CustomerEmail == customerEmail &&
				b.ProviderEmail == email &&
				b.Category == category &&
				b.Subcategory == subcategory {
				return ErrDuplicatePendingBooking
			}
		}

		booking := domain.Booking{
			ID:               domain.NewIDAt(domain.IDPrefixBooking, s.now()),
			CustomerName:     firstNonEmpty(req.CustomerName, snap.CustomerProfile.Name),
			CustomerEmail:    customerEmail,
			CustomerLocation: firstNonEmpty(req.CustomerLocation, snap.CustomerProfile.Location),
			ProviderName:     provider.Name,
			ProviderEmail:    email,
			Category:         category,
			Subcategory:      subcategory,
			Price:            req.Price,
			SelectedSlot:     strings.TrimSpace(req.SelectedSlot),
			Status:           domain.BookingPending,
			CreatedAt:        domain.NewTime(s.now()),
		}
		bookingID = booking.ID
		snap.Bookings = append([]domain.Booking{booking}, snap.Bookings...)
		return nil
	})
	return bookingID, err
}

// UpdateBookingStatus transitions a booking. Rejected and cancelled bookings
// are final and refuse every transition; setting the current status again is
// a no-op. When actorEmail is non-empty it must match the booking's provider,
// which lets provider-facing handlers enforce ownership while admin handlers
// pass "". The first transition into ACCEPTED seeds the chat thread with a
// system message so both sides see that chat is open.
func (s *Store) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, actorEmail string) error {
	next := domain.NormalizeBookingStatus(string(status))
	actor := identity.NormalizeEmail(actorEmail)

	return s.mutate(ctx, "booking.status", func(snap *domain.Snapshot) error {
		at := -1
		for i, b := range snap.Bookings {
			if b.ID == bookingID {
				at = i
				break
			}
		}
		if at < 0 {
			return ErrBookingNotFound
		}
		booking := snap.Bookings[at]

		if actor != "" && booking.ProviderEmail != actor {
			return ErrBookingOwnership
		}
		if booking.Status == next {
			return nil
		}
		if booking.Status.Terminal() {
			return ErrBookingFinal
		}

		booking.Status = next
		booking.UpdatedAt = domain.NewTime(s.now())
		snap.Bookings[at] = booking

		if next == domain.BookingAccepted && len(snap.BookingMessages[bookingID]) == 0 {
			if snap.BookingMessages == nil {
				snap.BookingMessages = map[string][]domain.BookingMessage{}
			}
			snap.BookingMessages[bookingID] = []domain.BookingMessage{s.systemMessage(AcceptedSeedMessage)}
		}
		return nil
	})
}

// AddBookingMessage appends a chat message to an accepted booking's thread.
func (s *Store) AddBookingMessage(ctx context.Context, bookingID string, msg domain.BookingMessage) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ErrEmptyMessage
	}
	return s.mutate(ctx, "booking.message", func(snap *domain.Snapshot) error {
		var booking *domain.Booking
		for i := range snap.Bookings {
			if snap.Bookings[i].ID == bookingID {
				booking = &snap.Bookings[i]
				break
			}
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		if booking.Status != domain.BookingAccepted {
			return ErrBookingNotAccepted
		}

		now := s.now()
		if snap.BookingMessages == nil {
			snap.BookingMessages = map[string][]domain.BookingMessage{}
		}
		snap.BookingMessages[bookingID] = append(snap.BookingMessages[bookingID], domain.BookingMessage{
			ID:          domain.NewIDAt(domain.IDPrefixMessage, now),
			From:        firstNonEmpty(msg.From, "System"),
			Text:        text,
			Timestamp:   displayTime(now),
			SenderRole:  msg.SenderRole,
			SenderEmail: identity.NormalizeEmail(msg.SenderEmail),
			CreatedAt:   domain.NewTime(now),
		})
		return nil
	})
}

// AddBooking files a booking through the legacy customer shape, resolving the
// provider by display name.
func (s *Store) AddBooking(ctx context.Context, legacy domain.LegacyBooking) (string, error) {
	var providerEmail string
	s.mu.RLock()
	lowered := strings.ToLower(strings.TrimSpace(legacy.Partner))
	for _, p := range s.snap.ProviderQueue {
		if strings.ToLower(strings.TrimSpace(p.Name)) == lowered {
			providerEmail = p.Email
			break
		}
	}
	s.mu.RUnlock()
	if providerEmail == "" {
		return "", ErrProviderNotFound
	}

	return s.CreateBookingRequest(ctx, BookingRequest{
		ProviderEmail: providerEmail,
		Subcategory:   legacy.Title,
	})
}

// systemMessage builds a system-authored chat message stamped with the
// store's clock.
func (s *Store) systemMessage(text string) domain.BookingMessage {
	now := s.now()
	return domain.BookingMessage{
		ID:         domain.NewIDAt(domain.IDPrefixMessage, now),
		From:       "System",
		Text:       text,
		Timestamp:  displayTime(now),
		SenderRole: "system",
		CreatedAt:  domain.NewTime(now),
	}
}

// displayTime renders the human-readable timestamp shown next to chat
// messages.
func displayTime(t time.Time) string {
	return t.Format("3:04 PM")
}
