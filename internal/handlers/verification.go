package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/config"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/services"
)

// VerificationHandler exposes the phone verification flows.
type VerificationHandler struct {
	verification *services.VerificationService
	cfg          *config.Config
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verification *services.VerificationService, cfg *config.Config) *VerificationHandler {
	return &VerificationHandler{verification: verification, cfg: cfg}
}

type initiateRequest struct {
	SiteID string `json:"site_id"`
	Phone  string `json:"phone"`
}

// Initiate starts verification for a phone. The method comes back in the
// response; a site that already has a verified phone gets a requires_invite
// rejection instead.
func (h *VerificationHandler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	siteID, err := uuid.Parse(req.SiteID)
	if err != nil || req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "site_id and phone are required")
	}

	record, method, err := h.verification.Initiate(siteID, req.Phone)
	if err != nil {
		return verificationError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"phone_number_id":     record.ID,
		"verification_method": method,
	})
}

type confirmRequest struct {
	PhoneNumberID string `json:"phone_number_id"`
	Code          string `json:"code"`
}

// Confirm validates the code the phone holder received. OTP rows go through
// the gateway's check API, legacy PIN rows through the local secret.
func (h *VerificationHandler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phoneID, err := uuid.Parse(req.PhoneNumberID)
	if err != nil || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone_number_id and code are required")
	}

	if err := h.verification.ConfirmOtp(phoneID, req.Code); err != nil {
		// Legacy rows carry a PIN instead of a Verify session.
		if errors.Is(err, services.ErrInvalidVerificationMethod) {
			err = h.verification.ConfirmPin(phoneID, req.Code)
		}
		if err != nil {
			return verificationError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
	})
}

type inviteRequest struct {
	SiteID    string `json:"site_id"`
	Phone     string `json:"phone"`
	InvitedBy string `json:"invited_by"`
}

// GenerateInvite creates a single-use invite link for an additional phone.
func (h *VerificationHandler) GenerateInvite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	siteID, err := uuid.Parse(req.SiteID)
	if err != nil || req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "site_id and phone are required")
	}

	invitedBy, err := uuid.Parse(req.InvitedBy)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invited_by is required")
	}

	record, token, expiresAt, err := h.verification.GenerateInvite(siteID, req.Phone, invitedBy)
	if err != nil {
		return verificationError(c, err)
	}

	link := fmt.Sprintf("%s/invite?phone_number_id=%s&token=%s", h.cfg.PublicBaseURL, record.ID, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"phone_number_id": record.ID,
		"invite_link":     link,
		"expires_at":      expiresAt,
	})
}

type redeemRequest struct {
	PhoneNumberID string `json:"phone_number_id"`
	Token         string `json:"token"`
}

// RedeemInvite consumes an invite token and verifies the phone.
func (h *VerificationHandler) RedeemInvite(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	phoneID, err := uuid.Parse(req.PhoneNumberID)
	if err != nil || req.Token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone_number_id and token are required")
	}

	if err := h.verification.RedeemInvite(phoneID, req.Token); err != nil {
		return verificationError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
	})
}

// verificationError maps service sentinels onto typed HTTP responses.
func verificationError(c *fiber.Ctx, err error) error {
	var status int
	var code string

	switch {
	case errors.Is(err, services.ErrRequiresInvite):
		status, code = fiber.StatusConflict, "requires_invite"
	case errors.Is(err, services.ErrVerificationMismatch):
		status, code = fiber.StatusBadRequest, "verification_mismatch"
	case errors.Is(err, services.ErrVerificationExpired):
		status, code = fiber.StatusBadRequest, "verification_expired"
	case errors.Is(err, services.ErrInvalidVerificationMethod):
		status, code = fiber.StatusBadRequest, "invalid_verification_method"
	case errors.Is(err, services.ErrMalformedPayload):
		status, code = fiber.StatusBadRequest, "malformed_payload"
	case errors.Is(err, services.ErrUpstreamGateway):
		status, code = fiber.StatusBadGateway, "upstream_gateway_error"
	case errors.Is(err, gorm.ErrRecordNotFound):
		status, code = fiber.StatusNotFound, "phone_number_not_found"
	default:
		return err
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   code,
		"message": err.Error(),
	})
}
