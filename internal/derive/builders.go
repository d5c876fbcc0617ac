// Package derive implements the derived-store engine: a pure, idempotent
// function that turns any raw portal snapshot into a fully normalized one.
// Every mutation re-runs the whole snapshot through Derive instead of
// patching in place, so cross-entity invariants (no dangling references,
// identity dedup, status/label lockstep) are re-established on every write.
package derive

import (
	"strings"
	"time"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// Placeholder values written for absent provider fields. They are treated as
// empty when re-normalizing so a second pass yields the same output.
const (
	placeholderArea  = "Not specified"
	placeholderProof = "Not provided"
	unnamedProvider  = "Unnamed Provider"
	defaultSettingDisplayName = "Service Provider"
)

// dedupeBy deduplicates a slice by key, keeping the position of the first
// occurrence and the value of the last. Items with an empty key are dropped.
func dedupeBy[T any](items []T, key func(T) string) []T {
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if at, seen := index[k]; seen {
			out[at] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

// firstNonEmpty returns the first string that is non-blank after trimming.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// providerIdentityKey is the dedup key for providers: normalized email,
// falling back to the lower-cased display name.
func providerIdentityKey(p domain.Provider) string {
	if email := identity.NormalizeEmail(p.Email); email != "" {
		return email
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// stripPlaceholder treats the "Not specified" placeholder as absent.
func stripPlaceholder(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == placeholderArea {
		return ""
	}
	return trimmed
}

// buildProvider normalizes one provider queue entry: identity fields trimmed,
// status coerced (the legacy docs label is accepted as a status source),
// slots sanitized, and the status-derived docs/tone recomputed.
func buildProvider(p domain.Provider, now time.Time) domain.Provider {
	statusSource := string(p.Status)
	if strings.TrimSpace(statusSource) == "" {
		statusSource = p.Docs
	}
	status := domain.NormalizeProviderStatus(statusSource)

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = unnamedProvider
	}

	area := firstNonEmpty(stripPlaceholder(p.Area), stripPlaceholder(p.Address))

	id := p.ID
	if id == "" {
		id = domain.NewIDAt(domain.IDPrefixProvider, now)
	}

	submittedAt := p.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = domain.NewTime(now)
	}

	displayArea := area
	if displayArea == "" {
		displayArea = placeholderArea
	}

	return domain.Provider{
		ID:                  id,
		Name:                name,
		Email:               identity.NormalizeEmail(p.Email),
		Phone:               strings.TrimSpace(p.Phone),
		Area:                displayArea,
		Address:             area,
		ServiceType:         domain.NormalizeServiceCategory(p.ServiceType),
		IDProofType:         firstNonEmpty(p.IDProofType, placeholderProof),
		IDProofDocumentName: firstNonEmpty(p.IDProofDocumentName, placeholderProof),
		SelectedSlots:       domain.SanitizeSlots(p.SelectedSlots),
		SubmittedAt:         submittedAt,
		Status:              status,
		Docs:                domain.ProviderDocsLabel(status),
		Tone:                domain.ProviderTone(status),
	}
}

// buildSetting fills a provider setting with defaults: every field blank in
// the input gets its documented default.
func buildSetting(values domain.ProviderSetting) domain.ProviderSetting {
	return domain.ProviderSetting{
		DisplayName:   strings.TrimSpace(firstNonEmpty(values.DisplayName, defaultSettingDisplayName)),
		Category:      domain.NormalizeServiceCategory(values.Category),
		Radius:        firstNonEmpty(values.Radius, domain.DefaultRadius),
		Availability:  firstNonEmpty(values.Availability, domain.DefaultAvailability),
		SelectedSlots: domain.SanitizeSlots(values.SelectedSlots),
		Online:        values.Online,
		Location:      strings.TrimSpace(values.Location),
	}
}

// BuildService normalizes one catalog entry against its owning provider.
// The provider argument supplies fallback identity fields; pass the zero
// value when building free-standing input.
func BuildService(svc domain.ProviderService, provider domain.Provider, now time.Time) domain.ProviderService {
	email := identity.NormalizeEmail(firstNonEmpty(svc.ProviderEmail, provider.Email))
	category := domain.NormalizeServiceCategory(firstNonEmpty(svc.Category, provider.ServiceType))
	subcategory := domain.NormalizeServiceSubcategory(category, svc.Subcategory)

	price := svc.Price
	if price < 0 {
		price = 0
	}

	id := svc.ID
	if id == "" {
		id = domain.NewIDAt(domain.IDPrefixService, now)
	}

	createdAt := svc.CreatedAt
	if createdAt.IsZero() {
		createdAt = domain.NewTime(now)
	}
	updatedAt := svc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	return domain.ProviderService{
		ID:               id,
		ProviderEmail:    email,
		ProviderName:     strings.TrimSpace(firstNonEmpty(svc.ProviderName, provider.Name)),
		ProviderLocation: strings.TrimSpace(firstNonEmpty(svc.ProviderLocation, provider.Area, provider.Address)),
		Category:         category,
		Subcategory:      subcategory,
		Price:            price,
		Available:        domain.SetBool(svc.Available.TrueIfUnset()),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

// ServiceKey is the catalog dedup key: at most one row may exist per
// (providerEmail, category, subcategory).
func ServiceKey(svc domain.ProviderService) string {
	return svc.ProviderEmail + "|" + svc.Category + "|" + svc.Subcategory
}

// BuildBooking normalizes one booking: taxonomy coercion, status coercion,
// tone derivation, timestamp defaults.
func BuildBooking(b domain.Booking, now time.Time) domain.Booking {
	status := domain.NormalizeBookingStatus(string(b.Status))
	category := domain.NormalizeServiceCategory(b.Category)
	subcategory := domain.NormalizeServiceSubcategory(category, b.Subcategory)

	price := b.Price
	if price < 0 {
		price = 0
	}

	id := b.ID
	if id == "" {
		id = domain.NewIDAt(domain.IDPrefixBooking, now)
	}

	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = domain.NewTime(now)
	}
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	customerName := strings.TrimSpace(b.CustomerName)
	if customerName == "" {
		customerName = "Customer"
	}

	return domain.Booking{
		ID:               id,
		CustomerName:     customerName,
		CustomerEmail:    identity.NormalizeEmail(b.CustomerEmail),
		CustomerLocation: strings.TrimSpace(b.CustomerLocation),
		ProviderName:     strings.TrimSpace(b.ProviderName),
		ProviderEmail:    identity.NormalizeEmail(b.ProviderEmail),
		ProviderLocation: strings.TrimSpace(b.ProviderLocation),
		Category:         category,
		Subcategory:      subcategory,
		Price:            price,
		SelectedSlot:     strings.TrimSpace(b.SelectedSlot),
		Status:           status,
		Tone:             domain.BookingTone(status),
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

// verificationEntryForProvider regenerates the provider-derived verification
// row. These rows are never trusted from stored input.
func verificationEntryForProvider(p domain.Provider) domain.VerificationEntry {
	return domain.VerificationEntry{
		ID:       domain.VerificationIDForProvider(p.Email, p.ID),
		Name:     p.Name,
		Role:     "Provider",
		Document: p.IDProofType + " | " + p.IDProofDocumentName,
		Status:   domain.VerificationLabel(p.Status),
		Tone:     domain.ProviderTone(p.Status),
	}
}

// normalizeChatLog normalizes a flat chat log: blank texts dropped, ids and
// creation times filled.
func normalizeChatLog(log []domain.ChatMessage, now time.Time) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(log))
	for _, msg := range log {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		id := msg.ID
		if id == "" {
			id = domain.NewIDAt(domain.IDPrefixMessage, now)
		}
		out = append(out, domain.ChatMessage{
			ID:        id,
			From:      firstNonEmpty(msg.From, "System"),
			Text:      text,
			Timestamp: msg.Timestamp,
			CreatedAt: domain.NormalizeMessageCreatedAt(msg.CreatedAt, id),
		})
	}
	return out
}
