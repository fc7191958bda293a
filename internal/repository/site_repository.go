package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
)

// SiteRepository backs services.SiteStore with Postgres.
type SiteRepository struct {
	db *gorm.DB
}

// NewSiteRepository constructs a SiteRepository.
func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetByID loads one site.
func (r *SiteRepository) GetByID(id uuid.UUID) (*models.Site, error) {
	var site models.Site
	if err := r.db.First(&site, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// SubscriptionRepository backs services.SubscriptionStore with Postgres.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository constructs a SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// LatestActiveByOrg returns the organization's newest active subscription,
// or nil when it has none.
func (r *SubscriptionRepository) LatestActiveByOrg(orgID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("organization_id = ? AND status = ?", orgID, models.SubscriptionActive).
		Order("created_at desc").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
