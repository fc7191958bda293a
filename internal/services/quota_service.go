package services

import (
	"github.com/google/uuid"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
)

// SubscriptionStore resolves an organization's billing state. Checkout and
// renewals live elsewhere; this is a read-only collaborator.
type SubscriptionStore interface {
	// LatestActiveByOrg returns nil when the organization has no active
	// subscription.
	LatestActiveByOrg(orgID uuid.UUID) (*models.Subscription, error)
}

// QuotaService maps an organization to its current plan. The admission
// decision itself (count-and-insert) runs inside the message store's
// transaction so two concurrent deliveries cannot both squeeze past the
// limit; this service only supplies the limit.
type QuotaService struct {
	subs SubscriptionStore
}

// NewQuotaService constructs a QuotaService.
func NewQuotaService(subs SubscriptionStore) *QuotaService {
	return &QuotaService{subs: subs}
}

// PlanFor resolves the organization's current plan. No active subscription
// means the free tier.
func (s *QuotaService) PlanFor(orgID uuid.UUID) (models.Plan, error) {
	sub, err := s.subs.LatestActiveByOrg(orgID)
	if err != nil {
		return models.Plan{}, err
	}
	if sub == nil {
		return models.PlanByTier(models.PlanFree), nil
	}
	return models.PlanByTier(sub.Plan), nil
}
