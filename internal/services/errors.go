package services

import "errors"

// Typed failures surfaced to handlers. Handlers map these onto HTTP statuses;
// nothing here retries automatically.
var (
	ErrMalformedPayload          = errors.New("malformed payload")
	ErrUnknownSender             = errors.New("unknown or unverified sender")
	ErrVerificationMismatch      = errors.New("verification code or token mismatch")
	ErrVerificationExpired       = errors.New("verification code or token expired")
	ErrInvalidVerificationMethod = errors.New("invalid verification method for this phone")
	ErrRequiresInvite            = errors.New("site already has a verified phone; new phones need an invite")
	ErrUpstreamGateway           = errors.New("sms gateway error")
)
