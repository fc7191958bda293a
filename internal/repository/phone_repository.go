package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
)

// PhoneRepository backs services.PhoneStore with Postgres.
type PhoneRepository struct {
	db *gorm.DB
}

// NewPhoneRepository constructs a PhoneRepository.
func NewPhoneRepository(db *gorm.DB) *PhoneRepository {
	return &PhoneRepository{db: db}
}

// GetByID loads one phone record.
func (r *PhoneRepository) GetByID(id uuid.UUID) (*models.PhoneNumber, error) {
	var phone models.PhoneNumber
	if err := r.db.First(&phone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &phone, nil
}

// Upsert finds or creates the (site, phone) binding without touching its
// verification state.
func (r *PhoneRepository) Upsert(siteID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	var record models.PhoneNumber
	err := r.db.Where("site_id = ? AND phone = ?", siteID, phone).
		FirstOrCreate(&record, models.PhoneNumber{SiteID: siteID, Phone: phone}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a concurrent-create race; the row exists now.
		err = r.db.Where("site_id = ? AND phone = ?", siteID, phone).First(&record).Error
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CountVerified counts verified phones bound to the site.
func (r *PhoneRepository) CountVerified(siteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.PhoneNumber{}).
		Where("site_id = ? AND verified = ?", siteID, true).
		Count(&count).Error
	return count, err
}

// FindVerifiedByPhone resolves an inbound sender. Only verified bindings
// count; nil means the sender may not post.
func (r *PhoneRepository) FindVerifiedByPhone(phone string) (*models.PhoneNumber, error) {
	var record models.PhoneNumber
	err := r.db.Where("phone = ? AND verified = ?", phone, true).
		Order("created_at asc").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SetPending stores a fresh pending secret, overwriting whatever attempt was
// outstanding for the row.
func (r *PhoneRepository) SetPending(id uuid.UUID, method, secret string, expiresAt *time.Time, invitedBy *uuid.UUID) error {
	return r.db.Model(&models.PhoneNumber{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_method": method,
			"verification_secret": secret,
			"secret_expires_at":   expiresAt,
			"invited_by":          invitedBy,
		}).Error
}

// CompareAndVerify flips the row to verified and clears the secret in one
// conditional update: the WHERE clause requires the stored secret to still
// equal the one the caller just validated, so of two concurrent redemptions
// exactly one sees RowsAffected == 1. The partial unique owner index arbitrates
// concurrent owner claims; the loser keeps its verification but not the flag.
func (r *PhoneRepository) CompareAndVerify(id uuid.UUID, expectedSecret string, claimOwner bool) (bool, error) {
	updates := map[string]interface{}{
		"verified":            true,
		"verification_secret": "",
		"secret_expires_at":   nil,
	}
	if claimOwner {
		updates["is_owner"] = true
	}

	result := r.db.Model(&models.PhoneNumber{}).
		Where("id = ? AND verified = ? AND verification_secret = ?", id, false, expectedSecret).
		Updates(updates)
	if result.Error != nil {
		if claimOwner && errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return r.CompareAndVerify(id, expectedSecret, false)
		}
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
