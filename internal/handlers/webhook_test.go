package handlers

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/services"
)

// Minimal in-memory stores; the service-level tests cover the store
// semantics, these only need enough to drive the HTTP surface.

type phoneStoreStub struct {
	verified map[string]*models.PhoneNumber
}

func (s *phoneStoreStub) GetByID(id uuid.UUID) (*models.PhoneNumber, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *phoneStoreStub) Upsert(siteID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *phoneStoreStub) CountVerified(siteID uuid.UUID) (int64, error) { return 0, nil }
func (s *phoneStoreStub) FindVerifiedByPhone(phone string) (*models.PhoneNumber, error) {
	return s.verified[phone], nil
}
func (s *phoneStoreStub) SetPending(id uuid.UUID, method, secret string, expiresAt *time.Time, invitedBy *uuid.UUID) error {
	return nil
}
func (s *phoneStoreStub) CompareAndVerify(id uuid.UUID, expectedSecret string, claimOwner bool) (bool, error) {
	return false, nil
}

type siteStoreStub struct {
	sites map[uuid.UUID]*models.Site
}

func (s *siteStoreStub) GetByID(id uuid.UUID) (*models.Site, error) {
	site, ok := s.sites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return site, nil
}

type messageStoreStub struct {
	mu       sync.Mutex
	limitHit bool
	created  []*models.Message
	latest   *models.Message
}

func (s *messageStoreStub) CreateUnderLimit(orgID uuid.UUID, msg *models.Message, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limitHit {
		return false, nil
	}
	msg.CreatedAt = time.Now()
	s.created = append(s.created, msg)
	return true, nil
}

func (s *messageStoreStub) LatestBySite(siteID uuid.UUID) (*models.Message, error) {
	return s.latest, nil
}

type subscriptionStoreStub struct{}

func (subscriptionStoreStub) LatestActiveByOrg(orgID uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

type gatewayStub struct {
	mu   sync.Mutex
	sent []string
}

func (g *gatewayStub) SendSMS(to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, to+"|"+body)
	return nil
}
func (g *gatewayStub) StartVerification(to string) (string, error)       { return "VE1", nil }
func (g *gatewayStub) CheckVerification(to, code string) (bool, error)   { return false, nil }

func newWebhookApp(messages *messageStoreStub) (*fiber.App, *gatewayStub) {
	site := &models.Site{OrganizationID: uuid.New(), Pinned: true, DisplayType: models.DisplayBanner}
	site.ID = uuid.New()

	phones := &phoneStoreStub{verified: map[string]*models.PhoneNumber{
		"+15551234567": {SiteID: site.ID, Phone: "+15551234567", Verified: true},
	}}
	sites := &siteStoreStub{sites: map[uuid.UUID]*models.Site{site.ID: site}}
	gateway := &gatewayStub{}

	inbound := services.NewInboundService(
		phones, sites,
		services.NewQuotaService(subscriptionStoreStub{}),
		messages,
		services.NewNotifier(gateway),
	)

	app := fiber.New()
	app.Post("/api/webhooks/sms", NewWebhookHandler(inbound).Receive)
	return app, gateway
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp.Header.Get("Content-Type")
}

func TestWebhookAcceptedReturnsTwiML(t *testing.T) {
	messages := &messageStoreStub{}
	app, gateway := newWebhookApp(messages)

	status, body, contentType := postForm(t, app, "/api/webhooks/sms", url.Values{
		"From":       {"+15551234567"},
		"Body":       {"We're open until 9pm"},
		"MessageSid": {"SM100"},
	})

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(contentType, "text/xml") {
		t.Fatalf("content type = %q, want text/xml", contentType)
	}
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "9pm") {
		t.Fatalf("unexpected TwiML: %q", body)
	}
	if len(messages.created) != 1 {
		t.Fatalf("want 1 message, got %d", len(messages.created))
	}
	if len(gateway.sent) != 1 {
		t.Fatalf("want 1 confirmation SMS, got %d", len(gateway.sent))
	}
}

func TestWebhookUnknownSenderReturns404(t *testing.T) {
	messages := &messageStoreStub{}
	app, gateway := newWebhookApp(messages)

	status, body, _ := postForm(t, app, "/api/webhooks/sms", url.Values{
		"From": {"+15550000000"},
		"Body": {"nice try"},
	})

	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if strings.Contains(body, "<Message>") {
		t.Fatalf("unknown sender must get an empty reply, got %q", body)
	}
	if len(messages.created) != 0 || len(gateway.sent) != 0 {
		t.Fatal("unknown sender must cause no side effects")
	}
}

func TestWebhookMalformedPayloadReturns400(t *testing.T) {
	messages := &messageStoreStub{}
	app, _ := newWebhookApp(messages)

	status, _, _ := postForm(t, app, "/api/webhooks/sms", url.Values{
		"Body": {"no sender"},
	})

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if len(messages.created) != 0 {
		t.Fatal("malformed payload must not persist")
	}
}

func TestWebhookQuotaExceededStillReturns200(t *testing.T) {
	messages := &messageStoreStub{limitHit: true}
	app, gateway := newWebhookApp(messages)

	status, body, _ := postForm(t, app, "/api/webhooks/sms", url.Values{
		"From": {"+15551234567"},
		"Body": {"one too many"},
	})

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 so the gateway does not retry", status)
	}
	if !strings.Contains(body, "limit") {
		t.Fatalf("reply should mention the limit: %q", body)
	}
	if len(messages.created) != 0 {
		t.Fatal("quota rejection must not persist")
	}
	if len(gateway.sent) != 1 {
		t.Fatalf("quota notification not attempted, sent %d", len(gateway.sent))
	}
}
