package derive

import (
	"strings"
	"time"

	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// Derive turns any raw snapshot into a fully normalized one. It is pure
// except for filling absent ids and timestamps, which makes it idempotent:
// deriving an already-derived snapshot changes nothing. Malformed or
// unresolvable records are dropped, never propagated, and no input shape
// can make it panic.
func Derive(raw domain.Snapshot) domain.Snapshot {
	return deriveAt(raw, time.Now())
}

// DeriveAt is Derive with an explicit clock, so callers that thread their own
// clock through mutations stay deterministic under test.
func DeriveAt(raw domain.Snapshot, now time.Time) domain.Snapshot {
	return deriveAt(raw, now)
}

func deriveAt(raw domain.Snapshot, now time.Time) domain.Snapshot {
	out := raw

	// Providers: normalize, then dedupe by identity key.
	queue := make([]domain.Provider, 0, len(raw.ProviderQueue))
	for _, p := range raw.ProviderQueue {
		queue = append(queue, buildProvider(p, now))
	}
	queue = dedupeBy(queue, providerIdentityKey)

	// Settings: one per provider, reconciling stored overrides with the
	// provider's identity fields. Overrides win; the provider's own name,
	// category, and location act only as fallback seeds.
	settings := make(map[string]domain.ProviderSetting, len(queue))
	for _, p := range queue {
		stored, hasStored := raw.ProviderSettings[p.Email]
		merged := stored
		merged.DisplayName = firstNonEmpty(stored.DisplayName, p.Name)
		merged.Category = firstNonEmpty(stored.Category, p.ServiceType)
		merged.Location = firstNonEmpty(stored.Location, stripPlaceholder(p.Area), p.Address)
		if !hasStored || stored.SelectedSlots == nil {
			merged.SelectedSlots = p.SelectedSlots
		}
		settings[p.Email] = buildSetting(merged)
	}

	// Re-normalize the queue with setting overrides applied, so a saved
	// display name or relocation is reflected everywhere.
	for i, p := range queue {
		setting := settings[p.Email]
		p.Name = firstNonEmpty(setting.DisplayName, p.Name)
		p.ServiceType = firstNonEmpty(setting.Category, p.ServiceType)
		p.Area = firstNonEmpty(setting.Location, stripPlaceholder(p.Area))
		p.Address = firstNonEmpty(setting.Location, p.Address)
		if setting.SelectedSlots != nil {
			p.SelectedSlots = setting.SelectedSlots
		}
		queue[i] = buildProvider(p, now)
	}

	byEmail := make(map[string]domain.Provider, len(queue))
	nameToEmail := make(map[string]string, len(queue))
	for _, p := range queue {
		byEmail[p.Email] = p
		nameToEmail[strings.ToLower(strings.TrimSpace(p.Name))] = p.Email
	}

	// Service catalog: drop rows with no owning provider, dedupe by
	// (provider, category, subcategory), then guarantee at least one row per
	// provider.
	catalog := make([]domain.ProviderService, 0, len(raw.ProviderServiceCatalog))
	for _, svc := range raw.ProviderServiceCatalog {
		email := identity.NormalizeEmail(svc.ProviderEmail)
		provider, found := byEmail[email]
		if !found {
			continue
		}
		svc.ProviderEmail = email
		svc.ProviderName = provider.Name
		svc.ProviderLocation = firstNonEmpty(stripPlaceholder(provider.Area), provider.Address)
		catalog = append(catalog, BuildService(svc, provider, now))
	}
	catalog = dedupeBy(catalog, ServiceKey)

	covered := make(map[string]bool, len(queue))
	for _, svc := range catalog {
		covered[svc.ProviderEmail] = true
	}
	for _, p := range queue {
		if covered[p.Email] {
			continue
		}
		catalog = append(catalog, defaultServiceFor(p, now))
	}

	// Profiles: one per provider, stats preserved from input, verification
	// label and tone resynced from the provider status unconditionally.
	profileOrder := make([]string, 0, len(queue))
	profiles := make(map[string]domain.ProviderProfile, len(queue))
	for _, profile := range raw.ProviderProfiles {
		email := identity.NormalizeEmail(profile.ProviderEmail)
		if email == "" {
			email = nameToEmail[strings.ToLower(strings.TrimSpace(profile.Name))]
		}
		provider, found := byEmail[email]
		if !found {
			continue
		}
		if _, seen := profiles[email]; !seen {
			profileOrder = append(profileOrder, email)
		}
		profiles[email] = syncProfile(profile, provider, email)
	}
	for _, p := range queue {
		if _, seen := profiles[p.Email]; seen {
			continue
		}
		profileOrder = append(profileOrder, p.Email)
		profiles[p.Email] = syncProfile(domain.ProviderProfile{}, p, p.Email)
	}
	profileList := make([]domain.ProviderProfile, 0, len(profileOrder))
	for _, email := range profileOrder {
		profileList = append(profileList, profiles[email])
	}

	// Verification queue: provider rows regenerated, free-standing rows pass
	// through with defaults, provider rows ordered first.
	verification := make([]domain.VerificationEntry, 0, len(queue)+len(raw.UserVerificationQueue))
	verSeen := make(map[string]bool, len(queue))
	for _, p := range queue {
		entry := verificationEntryForProvider(p)
		if verSeen[entry.ID] {
			continue
		}
		verSeen[entry.ID] = true
		verification = append(verification, entry)
	}
	for _, entry := range raw.UserVerificationQueue {
		if strings.EqualFold(strings.TrimSpace(entry.Role), "provider") {
			continue
		}
		id := firstNonEmpty(entry.ID, domain.NewIDAt(domain.IDPrefixVerification, now))
		if verSeen[id] {
			continue
		}
		verSeen[id] = true
		verification = append(verification, domain.VerificationEntry{
			ID:       id,
			Name:     firstNonEmpty(entry.Name, "User"),
			Role:     firstNonEmpty(entry.Role, "Customer"),
			Document: firstNonEmpty(entry.Document, placeholderProof),
			Status:   firstNonEmpty(entry.Status, "Pending"),
			Tone:     firstNonEmpty(entry.Tone, domain.ToneWarn),
		})
	}

	// Bookings: resolve the provider by email, then by display name; drop
	// what no longer resolves; dedupe by id, last write wins.
	bookings := make([]domain.Booking, 0, len(raw.Bookings))
	for _, b := range raw.Bookings {
		email := identity.NormalizeEmail(b.ProviderEmail)
		if email == "" {
			email = nameToEmail[strings.ToLower(strings.TrimSpace(b.ProviderName))]
		}
		provider, found := byEmail[email]
		if !found {
			continue
		}
		b.ProviderEmail = email
		b.ProviderName = provider.Name
		b.ProviderLocation = firstNonEmpty(stripPlaceholder(provider.Area), provider.Address)
		bookings = append(bookings, BuildBooking(b, now))
	}
	bookings = dedupeBy(bookings, func(b domain.Booking) string { return b.ID })

	// Message threads: drop threads for vanished bookings; inside a thread
	// drop blank messages and resolve creation times.
	bookingIDs := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		bookingIDs[b.ID] = true
	}
	threads := make(map[string][]domain.BookingMessage, len(raw.BookingMessages))
	for bookingID, thread := range raw.BookingMessages {
		if !bookingIDs[bookingID] {
			continue
		}
		normalized := make([]domain.BookingMessage, 0, len(thread))
		for _, msg := range thread {
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				continue
			}
			id := msg.ID
			if id == "" {
				id = domain.NewIDAt(domain.IDPrefixMessage, now)
			}
			normalized = append(normalized, domain.BookingMessage{
				ID:          id,
				From:        firstNonEmpty(msg.From, "System"),
				Text:        text,
				Timestamp:   msg.Timestamp,
				SenderRole:  msg.SenderRole,
				SenderEmail: identity.NormalizeEmail(msg.SenderEmail),
				CreatedAt:   domain.NormalizeMessageCreatedAt(msg.CreatedAt, id),
			})
		}
		threads[bookingID] = normalized
	}

	// Slot options fall back to the fixed default list.
	slotOptions := domain.SanitizeSlots(raw.ProviderSlotOptions)
	if len(slotOptions) == 0 {
		slotOptions = append([]string(nil), domain.SlotOptions...)
	}

	// Legacy single-provider mirror: reflect the first provider's setting,
	// or the stored summary fields when no provider exists yet.
	var primary domain.ProviderSetting
	if len(queue) > 0 {
		primary = settings[queue[0].Email]
	} else {
		primary = buildSetting(domain.ProviderSetting{
			DisplayName:   raw.ProviderSummary.DisplayName,
			Category:      raw.ProviderSummary.Category,
			Radius:        raw.ProviderSummary.Radius,
			Availability:  raw.ProviderSummary.Availability,
			SelectedSlots: raw.ProviderSelectedSlots,
			Online:        raw.ProviderOnline,
		})
	}

	// Disputes pass through with per-field defaults; referential integrity
	// against providers/bookings is deliberately not enforced here.
	disputes := make([]domain.Dispute, 0, len(raw.DisputeQueue))
	for _, d := range raw.DisputeQueue {
		disputes = append(disputes, domain.Dispute{
			ID:       firstNonEmpty(d.ID, domain.NewIDAt(domain.IDPrefixDispute, now)),
			Ticket:   firstNonEmpty(d.Ticket, "DSP-0000"),
			Customer: firstNonEmpty(d.Customer, "Customer"),
			Provider: firstNonEmpty(d.Provider, "Provider"),
			Issue:    firstNonEmpty(d.Issue, placeholderArea),
			Status:   firstNonEmpty(d.Status, "Open"),
			Tone:     firstNonEmpty(d.Tone, domain.ToneWarn),
		})
	}

	out.CustomerProfile = raw.CustomerProfile
	out.AdminSettings = mergeAdminSettings(raw.AdminSettings)
	out.ProviderQueue = queue
	out.ProviderSettings = settings
	out.ProviderProfiles = profileList
	out.ProviderServiceCatalog = catalog
	out.UserVerificationQueue = verification
	out.Bookings = bookings
	out.BookingMessages = threads
	out.CustomerBookings = legacyBookings(bookings)
	out.ProviderSlotOptions = slotOptions
	out.ProviderSummary = domain.ProviderSummary{
		DisplayName:  primary.DisplayName,
		Category:     primary.Category,
		Radius:       primary.Radius,
		Availability: primary.Availability,
	}
	out.ProviderSelectedSlots = primary.SelectedSlots
	out.ProviderOnline = primary.Online
	out.DisputeQueue = disputes
	out.AdminProviderChat = normalizeChatLog(raw.AdminProviderChat, now)
	out.CustomerProviderChat = normalizeChatLog(raw.CustomerProviderChat, now)
	return out
}

// defaultServiceFor synthesizes the placeholder catalog row every provider
// gets until it saves real services.
func defaultServiceFor(p domain.Provider, now time.Time) domain.ProviderService {
	category := domain.NormalizeServiceCategory(p.ServiceType)
	return BuildService(domain.ProviderService{
		ProviderEmail: p.Email,
		Category:      category,
		Subcategory:   domain.NormalizeServiceSubcategory(category, ""),
		Price:         domain.DefaultServicePrice,
		Available:     domain.SetBool(true),
	}, p, now)
}

// syncProfile rebuilds a provider profile against its owning provider: stats
// kept from input, everything status-derived recomputed.
func syncProfile(profile domain.ProviderProfile, provider domain.Provider, email string) domain.ProviderProfile {
	rating := profile.Rating
	if rating < 0 || rating > 5 {
		rating = 0
	}
	reviews := profile.Reviews
	if reviews < 0 {
		reviews = 0
	}
	jobs := profile.CompletedJobs
	if jobs < 0 {
		jobs = 0
	}

	id := profile.ID
	if id == "" {
		key := email
		if key == "" {
			key = provider.ID
		}
		id = "prv-" + key
	}

	return domain.ProviderProfile{
		ID:            id,
		ProviderEmail: email,
		Name:          firstNonEmpty(profile.Name, provider.Name),
		Service:       domain.NormalizeServiceCategory(firstNonEmpty(profile.Service, provider.ServiceType)),
		Rating:        rating,
		Reviews:       reviews,
		CompletedJobs: jobs,
		Verification:  domain.VerificationLabel(provider.Status),
		Tone:          domain.ProviderTone(provider.Status),
		Location:      firstNonEmpty(stripPlaceholder(provider.Area), provider.Address),
	}
}

// legacyBookings computes the simplified display view older customer screens
// read.
func legacyBookings(bookings []domain.Booking) []domain.LegacyBooking {
	out := make([]domain.LegacyBooking, 0, len(bookings))
	for _, b := range bookings {
		title := b.Subcategory
		if title == "" {
			title = b.Category
		}
		out = append(out, domain.LegacyBooking{
			Title:   title,
			Partner: b.ProviderName,
			Status:  domain.BookingStatusLabel(b.Status),
			Tone:    domain.BookingTone(b.Status),
		})
	}
	return out
}

// mergeAdminSettings shallow-merges stored admin settings over the defaults.
func mergeAdminSettings(in domain.AdminSettings) domain.AdminSettings {
	defaults := domain.DefaultAdminSettings()
	return domain.AdminSettings{
		AutoApproveCustomers: firstNonEmpty(in.AutoApproveCustomers, defaults.AutoApproveCustomers),
		VerificationSLA:      firstNonEmpty(in.VerificationSLA, defaults.VerificationSLA),
		DisputeSLA:           firstNonEmpty(in.DisputeSLA, defaults.DisputeSLA),
		IncidentEmail:        firstNonEmpty(in.IncidentEmail, defaults.IncidentEmail),
	}
}
