package derive

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// Hydrate reconstructs the working snapshot from a stored payload and the set
// of registered provider accounts. The account list is authoritative for who
// may appear in the provider queue: stored entries without a matching account
// are dropped, and accounts missing from the stored queue are backfilled as
// pending submissions. A nil or unparseable payload hydrates to the derived
// empty snapshot.
func Hydrate(payload []byte, providerAccounts []domain.Account) domain.Snapshot {
	return hydrateAt(payload, providerAccounts, time.Now())
}

func hydrateAt(payload []byte, providerAccounts []domain.Account, now time.Time) domain.Snapshot {
	var parsed domain.Snapshot
	if len(payload) > 0 {
		// Field-level tolerance lives in the domain types; a payload that is
		// not a JSON object at all degrades to the empty snapshot.
		if err := json.Unmarshal(payload, &parsed); err != nil {
			parsed = domain.Snapshot{}
		}
	}

	accounts := make(map[string]domain.Account, len(providerAccounts))
	for _, acct := range providerAccounts {
		email := identity.NormalizeEmail(acct.Email)
		if email == "" {
			continue
		}
		accounts[email] = acct
	}

	// Keep only queue entries backed by a registered provider account, and
	// re-anchor each entry's setting on the account identity so a stale
	// stored setting cannot rename a provider.
	queue := make([]domain.Provider, 0, len(parsed.ProviderQueue))
	settings := make(map[string]domain.ProviderSetting, len(accounts))
	inQueue := make(map[string]bool, len(accounts))
	for _, p := range parsed.ProviderQueue {
		email := identity.NormalizeEmail(p.Email)
		if _, registered := accounts[email]; !registered {
			continue
		}
		p.Email = email
		queue = append(queue, p)
		inQueue[email] = true

		stored := parsed.ProviderSettings[email]
		slots := stored.SelectedSlots
		if slots == nil {
			slots = p.SelectedSlots
		}
		if slots == nil {
			slots = parsed.ProviderSelectedSlots
		}
		settings[email] = domain.ProviderSetting{
			DisplayName:   p.Name,
			Category:      firstNonEmpty(stored.Category, p.ServiceType),
			Radius:        stored.Radius,
			Availability:  stored.Availability,
			SelectedSlots: slots,
			Online:        stored.Online,
			Location:      firstNonEmpty(stripPlaceholder(p.Area), p.Address),
		}
	}

	// Backfill registered providers the stored queue lost: they re-enter as
	// pending submissions built from their account profile.
	for _, acct := range providerAccounts {
		email := identity.NormalizeEmail(acct.Email)
		if email == "" || inQueue[email] {
			continue
		}
		queue = append(queue, providerFromAccount(acct, email, now))
	}

	parsed.ProviderQueue = queue
	parsed.ProviderSettings = settings
	parsed.Bookings = migrateLegacyBookings(parsed, now)

	return deriveAt(parsed, now)
}

// providerFromAccount builds the pending queue entry for a registered
// provider account absent from the stored queue.
func providerFromAccount(acct domain.Account, email string, now time.Time) domain.Provider {
	name := strings.TrimSpace(acct.Name)
	if name == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
	}
	return domain.Provider{
		Name:                name,
		Email:               email,
		Phone:               acct.Phone,
		Area:                firstNonEmpty(acct.Address, placeholderArea),
		Address:             firstNonEmpty(acct.Address, placeholderArea),
		ServiceType:         firstNonEmpty(acct.ServiceType, domain.DefaultCategory),
		IDProofType:         firstNonEmpty(acct.IDProofType, placeholderProof),
		IDProofDocumentName: firstNonEmpty(acct.IDProofDocumentName, placeholderProof),
		SubmittedAt:         domain.NewTime(now),
		Status:              domain.ProviderPending,
	}
}

// migrateLegacyBookings upgrades snapshots from before structured bookings
// existed: when the bookings list is empty, legacy customer rows that still
// resolve to a provider by display name become real bookings. Customer
// identity comes from the singleton customer profile.
func migrateLegacyBookings(parsed domain.Snapshot, now time.Time) []domain.Booking {
	if len(parsed.Bookings) > 0 || len(parsed.CustomerBookings) == 0 {
		return parsed.Bookings
	}

	byName := make(map[string]domain.Provider, len(parsed.ProviderQueue))
	for _, p := range parsed.ProviderQueue {
		byName[strings.ToLower(strings.TrimSpace(p.Name))] = p
	}

	bookings := make([]domain.Booking, 0, len(parsed.CustomerBookings))
	for _, legacy := range parsed.CustomerBookings {
		provider, found := byName[strings.ToLower(strings.TrimSpace(legacy.Partner))]
		if !found {
			continue
		}
		bookings = append(bookings, domain.Booking{
			CustomerName:     parsed.CustomerProfile.Name,
			CustomerEmail:    parsed.CustomerProfile.Email,
			CustomerLocation: parsed.CustomerProfile.Location,
			ProviderName:     provider.Name,
			ProviderEmail:    provider.Email,
			Category:         provider.ServiceType,
			Subcategory:      legacy.Title,
			Status:           domain.NormalizeBookingStatus(legacy.Status),
			CreatedAt:        domain.NewTime(now),
		})
	}
	return bookings
}
