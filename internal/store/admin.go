package store

import (
	"context"
	"strings"

	"github.com/fixitnow/portal-backend/internal/domain"
)

// SaveCustomerProfile merges the non-empty fields of a profile form into the
// singleton customer profile.
func (s *Store) SaveCustomerProfile(ctx context.Context, in domain.CustomerProfile) error {
	return s.mutate(ctx, "customer.profile", func(snap *domain.Snapshot) error {
		snap.CustomerProfile = domain.CustomerProfile{
			Name:     firstNonEmpty(in.Name, snap.CustomerProfile.Name),
			Email:    firstNonEmpty(in.Email, snap.CustomerProfile.Email),
			Phone:    firstNonEmpty(in.Phone, snap.CustomerProfile.Phone),
			Location: firstNonEmpty(in.Location, snap.CustomerProfile.Location),
		}
		return nil
	})
}

// ResetCustomerProfile clears the singleton customer profile.
func (s *Store) ResetCustomerProfile(ctx context.Context) error {
	return s.mutate(ctx, "customer.reset", func(snap *domain.Snapshot) error {
		snap.CustomerProfile = domain.CustomerProfile{}
		return nil
	})
}

// SaveAdminSettings merges the non-empty fields of an admin settings form
// into the singleton record.
func (s *Store) SaveAdminSettings(ctx context.Context, in domain.AdminSettings) error {
	return s.mutate(ctx, "admin.settings", func(snap *domain.Snapshot) error {
		snap.AdminSettings = domain.AdminSettings{
			AutoApproveCustomers: firstNonEmpty(in.AutoApproveCustomers, snap.AdminSettings.AutoApproveCustomers),
			VerificationSLA:      firstNonEmpty(in.VerificationSLA, snap.AdminSettings.VerificationSLA),
			DisputeSLA:           firstNonEmpty(in.DisputeSLA, snap.AdminSettings.DisputeSLA),
			IncidentEmail:        firstNonEmpty(in.IncidentEmail, snap.AdminSettings.IncidentEmail),
		}
		return nil
	})
}

// UpdateDisputeStatus patches one dispute's status and recomputes its tone.
func (s *Store) UpdateDisputeStatus(ctx context.Context, disputeID, status string) error {
	return s.mutate(ctx, "dispute.update", func(snap *domain.Snapshot) error {
		for i, d := range snap.DisputeQueue {
			if d.ID != disputeID {
				continue
			}
			snap.DisputeQueue[i].Status = status
			snap.DisputeQueue[i].Tone = disputeTone(status)
			return nil
		}
		return ErrDisputeNotFound
	})
}

// disputeTone maps a dispute status onto its badge tone.
func disputeTone(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "RESOLVED", "CLOSED":
		return domain.ToneOK
	case "ESCALATED":
		return domain.ToneAlert
	default:
		return domain.ToneWarn
	}
}

// AddAdminProviderMessage appends one message to the flat admin-provider
// chat log.
func (s *Store) AddAdminProviderMessage(ctx context.Context, from, text string) error {
	return s.addChatMessage(ctx, "chat.admin", from, text, func(snap *domain.Snapshot, msg domain.ChatMessage) {
		snap.AdminProviderChat = append(snap.AdminProviderChat, msg)
	})
}

// AddCustomerProviderMessage appends one message to the flat
// customer-provider chat log.
func (s *Store) AddCustomerProviderMessage(ctx context.Context, from, text string) error {
	return s.addChatMessage(ctx, "chat.customer", from, text, func(snap *domain.Snapshot, msg domain.ChatMessage) {
		snap.CustomerProviderChat = append(snap.CustomerProviderChat, msg)
	})
}

func (s *Store) addChatMessage(ctx context.Context, op, from, text string, appendTo func(*domain.Snapshot, domain.ChatMessage)) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	return s.mutate(ctx, op, func(snap *domain.Snapshot) error {
		now := s.now()
		appendTo(snap, domain.ChatMessage{
			ID:        domain.NewIDAt(domain.IDPrefixMessage, now),
			From:      firstNonEmpty(from, "System"),
			Text:      trimmed,
			Timestamp: displayTime(now),
			CreatedAt: domain.NewTime(now),
		})
		return nil
	})
}
