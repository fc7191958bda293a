package models

import (
	"time"

	"github.com/google/uuid"
)

// Verification methods.
const (
	MethodOTP    = "otp"
	MethodPIN    = "pin"
	MethodInvite = "invite"
)

// PhoneNumber binds a sender phone to a site. Only verified numbers may post
// messages. The first phone verified for a site (always via OTP) becomes the
// owner; every later phone must come in through an invite.
type PhoneNumber struct {
	BaseModel
	SiteID uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_phone_site;index:uq_site_owner,unique,where:is_owner" json:"site_id"`
	Phone  string    `gorm:"uniqueIndex:uq_phone_site" json:"phone"`

	Verified bool `gorm:"default:false" json:"verified"`
	IsOwner  bool `gorm:"default:false" json:"is_owner"`

	// VerificationMethod says how the pending secret must be redeemed.
	VerificationMethod string `json:"verification_method,omitempty"`

	// VerificationSecret holds a bcrypt hash of the invite token or PIN, or
	// the gateway's opaque verification session SID for the OTP method.
	// Cleared on successful verification.
	VerificationSecret string     `json:"-"`
	SecretExpiresAt    *time.Time `json:"secret_expires_at,omitempty"`

	InvitedBy *uuid.UUID `gorm:"type:uuid" json:"invited_by,omitempty"`
}

// Pending reports whether a verification attempt is outstanding.
func (p *PhoneNumber) Pending() bool {
	return !p.Verified && p.VerificationSecret != ""
}
