package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/utils"
)

var errQuotaFull = errors.New("quota full")

// MessageRepository backs services.MessageStore with Postgres.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateUnderLimit counts the organization's current-month messages and
// inserts the new one in a single transaction holding a row lock on the
// organization. Concurrent deliveries for one org serialize on that lock,
// so the count can never overshoot the limit. A negative limit skips the
// count entirely. A gateway redelivery trips the unique message-SID index
// and surfaces as gorm.ErrDuplicatedKey.
func (r *MessageRepository) CreateUnderLimit(orgID uuid.UUID, msg *models.Message, limit int) (bool, error) {
	if limit < 0 {
		if err := r.db.Create(msg).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&org, "id = ?", orgID).Error; err != nil {
			return err
		}

		count, err := countInWindow(tx, orgID, time.Now())
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return errQuotaFull
		}

		return tx.Create(msg).Error
	})
	if errors.Is(err, errQuotaFull) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountInWindow reports the organization's message count for the calendar
// month containing now.
func (r *MessageRepository) CountInWindow(orgID uuid.UUID, now time.Time) (int64, error) {
	return countInWindow(r.db, orgID, now)
}

func countInWindow(tx *gorm.DB, orgID uuid.UUID, now time.Time) (int64, error) {
	start, end := utils.MonthWindow(now)

	var count int64
	err := tx.Model(&models.Message{}).
		Joins("JOIN sites ON sites.id = messages.site_id").
		Where("sites.organization_id = ? AND messages.created_at >= ? AND messages.created_at < ?", orgID, start, end).
		Count(&count).Error
	return count, err
}

// LatestBySite returns the newest message for the site, or nil when none
// exists yet.
func (r *MessageRepository) LatestBySite(siteID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.Where("site_id = ?", siteID).
		Order("created_at desc").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
