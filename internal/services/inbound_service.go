package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/utils"
)

// popupPrefix routes a text to the popup display type. Case-sensitive on
// purpose: it mirrors what senders are told to type.
const popupPrefix = "popup:"

// SiteStore loads sites for sender resolution and the widget endpoint.
type SiteStore interface {
	GetByID(id uuid.UUID) (*models.Site, error)
}

// MessageStore persists and reads messages. CreateUnderLimit must count the
// organization's current-month messages and insert atomically; a negative
// limit means unlimited.
type MessageStore interface {
	CreateUnderLimit(orgID uuid.UUID, msg *models.Message, limit int) (bool, error)
	// LatestBySite returns nil when the site has no messages yet.
	LatestBySite(siteID uuid.UUID) (*models.Message, error)
}

// Delivery is one validated inbound webhook payload.
type Delivery struct {
	From       string
	Body       string
	MessageSID string
}

// InboundOutcome says what the router decided.
type InboundOutcome int

const (
	OutcomeAccepted InboundOutcome = iota + 1
	OutcomeQuotaExceeded
	OutcomeDuplicate
)

// InboundResult carries the decision plus the reply text the gateway should
// render back to the sender.
type InboundResult struct {
	Outcome   InboundOutcome
	ReplyText string
	Message   *models.Message
}

// InboundService is the webhook pipeline: resolve the sender, classify the
// body, check admission, persist, and confirm.
type InboundService struct {
	phones   PhoneStore
	sites    SiteStore
	quota    *QuotaService
	messages MessageStore
	notifier *Notifier
}

// NewInboundService constructs an InboundService.
func NewInboundService(phones PhoneStore, sites SiteStore, quota *QuotaService, messages MessageStore, notifier *Notifier) *InboundService {
	return &InboundService{phones: phones, sites: sites, quota: quota, messages: messages, notifier: notifier}
}

// Classify splits a raw body into display type and content. A body starting
// with the literal "popup:" prefix becomes a popup with the prefix stripped;
// everything else is a banner, content untouched.
func Classify(body string) (string, string) {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, popupPrefix) {
		return models.DisplayPopup, strings.TrimSpace(strings.TrimPrefix(trimmed, popupPrefix))
	}
	return models.DisplayBanner, body
}

// Handle processes one delivery. It returns ErrMalformedPayload before any
// side effect and ErrUnknownSender for phones without a verified binding;
// quota rejections and duplicate redeliveries are results, not errors,
// because the gateway must still see a success.
func (s *InboundService) Handle(d Delivery) (*InboundResult, error) {
	if d.From == "" || d.Body == "" {
		return nil, ErrMalformedPayload
	}
	sender, err := utils.NormalizePhone(d.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// Unverified and unregistered numbers can never post, however plausible
	// the payload looks.
	phone, err := s.phones.FindVerifiedByPhone(sender)
	if err != nil {
		return nil, err
	}
	if phone == nil {
		return nil, ErrUnknownSender
	}

	site, err := s.sites.GetByID(phone.SiteID)
	if err != nil {
		return nil, err
	}

	plan, err := s.quota.PlanFor(site.OrganizationID)
	if err != nil {
		return nil, err
	}

	msgType, content := Classify(d.Body)
	msg := &models.Message{SiteID: site.ID, Content: content, Type: msgType}
	if d.MessageSID != "" {
		msg.GatewayMessageSID = &d.MessageSID
	}

	created, err := s.messages.CreateUnderLimit(site.OrganizationID, msg, plan.MessagesPerMonth)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Gateway redelivery of a message we already hold: acknowledge
		// again, insert nothing, text nothing.
		return &InboundResult{Outcome: OutcomeDuplicate, ReplyText: confirmationText(content)}, nil
	}
	if err != nil {
		return nil, err
	}

	if !created {
		text := fmt.Sprintf("Your site wasn't updated: the %s plan's monthly message limit is used up. Upgrade your plan to keep posting.", plan.Tier)
		s.notifier.Notify(sender, text)
		return &InboundResult{Outcome: OutcomeQuotaExceeded, ReplyText: text}, nil
	}

	text := confirmationText(content)
	s.notifier.Notify(sender, text)
	return &InboundResult{Outcome: OutcomeAccepted, ReplyText: text, Message: msg}, nil
}

func confirmationText(content string) string {
	const max = 80
	if runes := []rune(content); len(runes) > max {
		content = string(runes[:max]) + "..."
	}
	return fmt.Sprintf("Update received. Your site now shows: %q", content)
}
