package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/utils"
)

// Secret lifetimes.
const (
	InviteTTL = 7 * 24 * time.Hour
	PinTTL    = 10 * time.Minute
)

// PhoneStore is the persistence surface the verification flows and the
// inbound router need. CompareAndVerify must be an atomic compare-and-clear:
// it flips a row to verified only while the stored secret still equals the
// one that was just validated, so a concurrently consumed secret loses.
type PhoneStore interface {
	GetByID(id uuid.UUID) (*models.PhoneNumber, error)
	Upsert(siteID uuid.UUID, phone string) (*models.PhoneNumber, error)
	CountVerified(siteID uuid.UUID) (int64, error)
	FindVerifiedByPhone(phone string) (*models.PhoneNumber, error)
	SetPending(id uuid.UUID, method, secret string, expiresAt *time.Time, invitedBy *uuid.UUID) error
	CompareAndVerify(id uuid.UUID, expectedSecret string, claimOwner bool) (bool, error)
}

// VerificationService runs the phone verification state machine: OTP for the
// first (owner) phone of a site, invites for every phone after that, and the
// legacy PIN path for rows that still carry one.
type VerificationService struct {
	phones  PhoneStore
	gateway SMSGateway
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(phones PhoneStore, gateway SMSGateway) *VerificationService {
	return &VerificationService{phones: phones, gateway: gateway}
}

// RegisterOrUpdate upserts the (site, phone) binding without touching its
// verified state.
func (s *VerificationService) RegisterOrUpdate(siteID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return s.phones.Upsert(siteID, normalized)
}

// Initiate starts verification for a phone. The method is derived from site
// state, never chosen by the caller: a site with no verified phone gets the
// OTP flow, anything after that must come in through an invite.
func (s *VerificationService) Initiate(siteID uuid.UUID, phone string) (*models.PhoneNumber, string, error) {
	verified, err := s.phones.CountVerified(siteID)
	if err != nil {
		return nil, "", err
	}
	if verified > 0 {
		return nil, "", ErrRequiresInvite
	}

	record, err := s.RegisterOrUpdate(siteID, phone)
	if err != nil {
		return nil, "", err
	}

	sessionSID, err := s.gateway.StartVerification(record.Phone)
	if err != nil {
		return nil, "", err
	}

	// The gateway owns code issuance and expiry; we only keep its SID.
	if err := s.phones.SetPending(record.ID, models.MethodOTP, sessionSID, nil, nil); err != nil {
		return nil, "", err
	}

	return record, models.MethodOTP, nil
}

// ConfirmOtp submits the user's code to the gateway and, on approval, marks
// the phone verified and claims the site owner slot.
func (s *VerificationService) ConfirmOtp(phoneID uuid.UUID, code string) error {
	record, err := s.phones.GetByID(phoneID)
	if err != nil {
		return err
	}
	if record.Verified || record.VerificationMethod != models.MethodOTP {
		return ErrInvalidVerificationMethod
	}

	approved, err := s.gateway.CheckVerification(record.Phone, code)
	if err != nil {
		return err
	}
	if !approved {
		return ErrVerificationMismatch
	}

	ok, err := s.phones.CompareAndVerify(record.ID, record.VerificationSecret, true)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationMismatch
	}
	return nil
}

// GenerateInvite creates a single-use invite secret for an additional phone,
// overwriting any prior pending secret for the same (site, phone). The
// plaintext token is returned exactly once; only its hash is stored.
func (s *VerificationService) GenerateInvite(siteID uuid.UUID, phone string, invitedBy uuid.UUID) (*models.PhoneNumber, string, time.Time, error) {
	record, err := s.RegisterOrUpdate(siteID, phone)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if record.Verified {
		return nil, "", time.Time{}, ErrInvalidVerificationMethod
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, "", time.Time{}, err
	}
	token := hex.EncodeToString(tokenBytes)

	hash, err := utils.HashSecret(token)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	expiresAt := time.Now().Add(InviteTTL)
	if err := s.phones.SetPending(record.ID, models.MethodInvite, hash, &expiresAt, &invitedBy); err != nil {
		return nil, "", time.Time{}, err
	}

	return record, token, expiresAt, nil
}

// RedeemInvite validates an invite token and marks the phone verified. The
// secret is cleared in the same conditional update that flips verified, so a
// token can be consumed at most once even under concurrent redemptions.
func (s *VerificationService) RedeemInvite(phoneID uuid.UUID, token string) error {
	return s.confirmSecret(phoneID, token, models.MethodInvite)
}

// GeneratePin issues a legacy 6-digit PIN with a short TTL and texts it to
// the phone directly (no Verify session).
func (s *VerificationService) GeneratePin(siteID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	record, err := s.RegisterOrUpdate(siteID, phone)
	if err != nil {
		return nil, err
	}
	if record.Verified {
		return nil, ErrInvalidVerificationMethod
	}

	pin, err := generatePinCode()
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashSecret(pin)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(PinTTL)
	if err := s.phones.SetPending(record.ID, models.MethodPIN, hash, &expiresAt, nil); err != nil {
		return nil, err
	}

	if err := s.gateway.SendSMS(record.Phone, fmt.Sprintf("Your verification PIN is %s. It expires in 10 minutes.", pin)); err != nil {
		return nil, err
	}

	return record, nil
}

// ConfirmPin validates a legacy PIN, with the same clear-on-success behavior
// as invites.
func (s *VerificationService) ConfirmPin(phoneID uuid.UUID, code string) error {
	return s.confirmSecret(phoneID, code, models.MethodPIN)
}

func (s *VerificationService) confirmSecret(phoneID uuid.UUID, secret, wantMethod string) error {
	record, err := s.phones.GetByID(phoneID)
	if err != nil {
		return err
	}

	// A consumed secret leaves the row verified with no secret; a repeat
	// attempt reads as a mismatch, not a second success.
	if record.Verified || record.VerificationSecret == "" {
		return ErrVerificationMismatch
	}
	if record.VerificationMethod != wantMethod {
		return ErrInvalidVerificationMethod
	}
	if record.SecretExpiresAt == nil || time.Now().After(*record.SecretExpiresAt) {
		return ErrVerificationExpired
	}
	if !utils.CheckSecret(record.VerificationSecret, secret) {
		return ErrVerificationMismatch
	}

	ok, err := s.phones.CompareAndVerify(record.ID, record.VerificationSecret, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationMismatch
	}
	return nil
}

func generatePinCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
