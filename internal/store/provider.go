package store

import (
	"context"
	"strings"

	"github.com/fixitnow/portal-backend/internal/derive"
	"github.com/fixitnow/portal-backend/internal/domain"
	"github.com/fixitnow/portal-backend/internal/identity"
)

// SubmitProviderVerification records a provider's onboarding submission. The
// entry always (re-)enters the queue as PENDING: resubmitting after an
// approval or hold intentionally resets the review. An existing entry is
// matched by email first, then by display name, and keeps its id; a new entry
// is placed at the head of the queue.
func (s *Store) SubmitProviderVerification(ctx context.Context, in domain.Provider) error {
	email := identity.NormalizeEmail(in.Email)
	if email == "" {
		return ErrEmailRequired
	}
	return s.mutate(ctx, "provider.submit", func(snap *domain.Snapshot) error {
		in.Email = email
		in.Status = domain.ProviderPending
		in.SubmittedAt = domain.NewTime(s.now())

		at := -1
		for i, p := range snap.ProviderQueue {
			if p.Email == email {
				at = i
				break
			}
		}
		if at < 0 {
			lowered := strings.ToLower(strings.TrimSpace(in.Name))
			for i, p := range snap.ProviderQueue {
				if strings.ToLower(strings.TrimSpace(p.Name)) == lowered {
					at = i
					break
				}
			}
		}

		if at >= 0 {
			in.ID = snap.ProviderQueue[at].ID
			snap.ProviderQueue[at] = in
		} else {
			snap.ProviderQueue = append([]domain.Provider{in}, snap.ProviderQueue...)
		}

		// The submission is authoritative for the provider's own settings.
		if snap.ProviderSettings == nil {
			snap.ProviderSettings = map[string]domain.ProviderSetting{}
		}
		setting := snap.ProviderSettings[email]
		setting.DisplayName = in.Name
		setting.Category = in.ServiceType
		setting.Location = firstNonEmpty(in.Area, in.Address)
		if in.SelectedSlots != nil {
			setting.SelectedSlots = in.SelectedSlots
		}
		snap.ProviderSettings[email] = setting
		return nil
	})
}

// ApproveProvider marks a provider approved. The reference may be an id, an
// exact name, or an email.
func (s *Store) ApproveProvider(ctx context.Context, ref string) error {
	return s.setProviderStatus(ctx, "provider.approve", ref, domain.ProviderApproved)
}

// HoldProvider puts a provider's verification on hold.
func (s *Store) HoldProvider(ctx context.Context, ref string) error {
	return s.setProviderStatus(ctx, "provider.hold", ref, domain.ProviderOnHold)
}

func (s *Store) setProviderStatus(ctx context.Context, op, ref string, status domain.ProviderStatus) error {
	return s.mutate(ctx, op, func(snap *domain.Snapshot) error {
		at, found := findProviderByRef(snap, ref)
		if !found {
			return ErrProviderNotFound
		}
		snap.ProviderQueue[at].Status = status
		return nil
	})
}

// ProviderAccessStatus reports a provider's approval state for login gating.
// The second return is false when no provider matches the email.
func (s *Store) ProviderAccessStatus(email string) (domain.ProviderStatus, bool) {
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.snap.ProviderQueue {
		if p.Email == normalized {
			return p.Status, true
		}
	}
	return "", false
}

// UpdateVerificationStatus applies an admin decision to one verification
// entry. Provider-derived entries translate the label into a provider status
// change; free-standing entries are patched directly.
func (s *Store) UpdateVerificationStatus(ctx context.Context, entryID, label string) error {
	return s.mutate(ctx, "verification.update", func(snap *domain.Snapshot) error {
		if email, ok := domain.ProviderEmailFromVerificationID(entryID); ok {
			status := domain.StatusLabelToProviderStatus(label)
			at, found := findProviderByRef(snap, email)
			if !found {
				return ErrVerificationNotFound
			}
			snap.ProviderQueue[at].Status = status
			return nil
		}

		for i, entry := range snap.UserVerificationQueue {
			if entry.ID != entryID {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(entry.Role), "provider") {
				// Provider rows without the derived id are matched back to the
				// provider by display name.
				status := domain.StatusLabelToProviderStatus(label)
				at, found := findProviderByRef(snap, entry.Name)
				if !found {
					return ErrVerificationNotFound
				}
				snap.ProviderQueue[at].Status = status
				return nil
			}
			snap.UserVerificationQueue[i].Status = label
			snap.UserVerificationQueue[i].Tone = verificationLabelTone(label)
			return nil
		}
		return ErrVerificationNotFound
	})
}

// verificationLabelTone picks the badge tone for a free-standing verification
// label.
func verificationLabelTone(label string) string {
	if strings.EqualFold(strings.TrimSpace(label), "verified") {
		return domain.ToneOK
	}
	return domain.ToneWarn
}

// SaveProviderSettings merges the non-empty fields of a settings form into a
// provider's stored setting. An empty email targets the first provider.
func (s *Store) SaveProviderSettings(ctx context.Context, email string, in domain.ProviderSetting) error {
	return s.mutate(ctx, "provider.settings", func(snap *domain.Snapshot) error {
		target, found := resolveProviderEmail(snap, email)
		if !found {
			return ErrProviderNotFound
		}
		setting := snap.ProviderSettings[target]
		setting.DisplayName = firstNonEmpty(in.DisplayName, setting.DisplayName)
		setting.Category = firstNonEmpty(in.Category, setting.Category)
		setting.Radius = firstNonEmpty(in.Radius, setting.Radius)
		setting.Availability = firstNonEmpty(in.Availability, setting.Availability)
		setting.Location = firstNonEmpty(in.Location, setting.Location)
		snap.ProviderSettings[target] = setting
		return nil
	})
}

// SetProviderOnline flips a provider's availability toggle.
func (s *Store) SetProviderOnline(ctx context.Context, email string, online bool) error {
	return s.mutate(ctx, "provider.online", func(snap *domain.Snapshot) error {
		target, found := resolveProviderEmail(snap, email)
		if !found {
			return ErrProviderNotFound
		}
		setting := snap.ProviderSettings[target]
		setting.Online = online
		snap.ProviderSettings[target] = setting
		return nil
	})
}

// SaveProviderSelectedSlots replaces a provider's bookable slot selection.
// An empty (non-nil) selection is a valid "no slots" override.
func (s *Store) SaveProviderSelectedSlots(ctx context.Context, email string, slots []string) error {
	return s.mutate(ctx, "provider.slots", func(snap *domain.Snapshot) error {
		target, found := resolveProviderEmail(snap, email)
		if !found {
			return ErrProviderNotFound
		}
		if slots == nil {
			slots = []string{}
		}
		setting := snap.ProviderSettings[target]
		setting.SelectedSlots = domain.SanitizeSlots(slots)
		snap.ProviderSettings[target] = setting
		return nil
	})
}

// SaveProviderServices replaces a provider's whole service catalog. The
// provider's setting category follows the first service so its queue entry
// stays in sync. An empty list removes everything, after which derivation
// seeds the default placeholder row back.
func (s *Store) SaveProviderServices(ctx context.Context, email string, services []domain.ProviderService) error {
	return s.mutate(ctx, "provider.services", func(snap *domain.Snapshot) error {
		target, found := resolveProviderEmail(snap, email)
		if !found {
			return ErrProviderNotFound
		}

		kept := make([]domain.ProviderService, 0, len(snap.ProviderServiceCatalog)+len(services))
		for _, svc := range snap.ProviderServiceCatalog {
			if svc.ProviderEmail != target {
				kept = append(kept, svc)
			}
		}
		for _, svc := range services {
			svc.ProviderEmail = target
			svc.UpdatedAt = domain.NewTime(s.now())
			kept = append(kept, svc)
		}
		snap.ProviderServiceCatalog = kept

		if len(services) > 0 {
			setting := snap.ProviderSettings[target]
			setting.Category = services[0].Category
			snap.ProviderSettings[target] = setting
		}
		return nil
	})
}

// UpsertProviderService adds or replaces one catalog row, keyed by category
// and subcategory.
func (s *Store) UpsertProviderService(ctx context.Context, email string, svc domain.ProviderService) error {
	return s.mutate(ctx, "provider.service", func(snap *domain.Snapshot) error {
		target, found := resolveProviderEmail(snap, email)
		if !found {
			return ErrProviderNotFound
		}
		svc.ProviderEmail = target
		svc.UpdatedAt = domain.NewTime(s.now())

		var provider domain.Provider
		for _, p := range snap.ProviderQueue {
			if p.Email == target {
				provider = p
				break
			}
		}
		next := derive.BuildService(svc, provider, s.now())

		kept := make([]domain.ProviderService, 0, len(snap.ProviderServiceCatalog)+1)
		for _, existing := range snap.ProviderServiceCatalog {
			if derive.ServiceKey(existing) == derive.ServiceKey(next) {
				continue
			}
			kept = append(kept, existing)
		}
		snap.ProviderServiceCatalog = append(kept, next)
		return nil
	})
}

// firstNonEmpty returns the first non-blank string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
