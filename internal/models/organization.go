package models

import "github.com/google/uuid"

// Plan tiers and their monthly message allowances.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanGrowth  = "growth"
	PlanScale   = "scale"

	// PlanUnlimited marks a plan with no monthly message cap.
	PlanUnlimited = -1
)

// Plan describes what a subscription tier allows.
type Plan struct {
	Tier             string `json:"tier"`
	MessagesPerMonth int    `json:"messages_per_month"`
}

// PlanByTier maps a tier name to its allowances. Unknown tiers fall back to free.
func PlanByTier(tier string) Plan {
	switch tier {
	case PlanStarter:
		return Plan{Tier: PlanStarter, MessagesPerMonth: 5000}
	case PlanGrowth:
		return Plan{Tier: PlanGrowth, MessagesPerMonth: 20000}
	case PlanScale:
		return Plan{Tier: PlanScale, MessagesPerMonth: PlanUnlimited}
	default:
		return Plan{Tier: PlanFree, MessagesPerMonth: 1000}
	}
}

// Unlimited reports whether the plan has no monthly cap.
func (p Plan) Unlimited() bool {
	return p.MessagesPerMonth == PlanUnlimited
}

// Organization is the billing group a site belongs to.
type Organization struct {
	BaseModel
	Name     string `json:"name"`
	PlanTier string `gorm:"default:'free'" json:"plan_tier"`
	Sites    []Site `json:"sites,omitempty"`
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Subscription records an organization's billing state. Checkout and renewal
// live in the billing system; this table is only read to resolve the plan.
type Subscription struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	Plan           string    `json:"plan"`
	Status         string    `gorm:"default:'active'" json:"status"`
}
