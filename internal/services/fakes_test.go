package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/models"
)

type memPhoneStore struct {
	mu     sync.Mutex
	phones map[uuid.UUID]*models.PhoneNumber
	owners map[uuid.UUID]bool // siteID -> owner already claimed
}

func newMemPhoneStore() *memPhoneStore {
	return &memPhoneStore{
		phones: map[uuid.UUID]*models.PhoneNumber{},
		owners: map[uuid.UUID]bool{},
	}
}

func (s *memPhoneStore) add(p *models.PhoneNumber) *models.PhoneNumber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.phones[p.ID] = p
	if p.IsOwner {
		s.owners[p.SiteID] = true
	}
	return p
}

func (s *memPhoneStore) GetByID(id uuid.UUID) (*models.PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPhoneStore) Upsert(siteID uuid.UUID, phone string) (*models.PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.phones {
		if p.SiteID == siteID && p.Phone == phone {
			cp := *p
			return &cp, nil
		}
	}
	p := &models.PhoneNumber{SiteID: siteID, Phone: phone}
	p.ID = uuid.New()
	s.phones[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *memPhoneStore) CountVerified(siteID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.phones {
		if p.SiteID == siteID && p.Verified {
			n++
		}
	}
	return n, nil
}

func (s *memPhoneStore) FindVerifiedByPhone(phone string) (*models.PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.phones {
		if p.Phone == phone && p.Verified {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memPhoneStore) SetPending(id uuid.UUID, method, secret string, expiresAt *time.Time, invitedBy *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.VerificationMethod = method
	p.VerificationSecret = secret
	p.SecretExpiresAt = expiresAt
	p.InvitedBy = invitedBy
	return nil
}

func (s *memPhoneStore) CompareAndVerify(id uuid.UUID, expectedSecret string, claimOwner bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phones[id]
	if !ok || p.Verified || p.VerificationSecret != expectedSecret {
		return false, nil
	}
	p.Verified = true
	p.VerificationSecret = ""
	p.SecretExpiresAt = nil
	if claimOwner && !s.owners[p.SiteID] {
		p.IsOwner = true
		s.owners[p.SiteID] = true
	}
	return true, nil
}

type memSiteStore struct {
	mu    sync.Mutex
	sites map[uuid.UUID]*models.Site
}

func newMemSiteStore(sites ...*models.Site) *memSiteStore {
	s := &memSiteStore{sites: map[uuid.UUID]*models.Site{}}
	for _, site := range sites {
		if site.ID == uuid.Nil {
			site.ID = uuid.New()
		}
		s.sites[site.ID] = site
	}
	return s
}

func (s *memSiteStore) GetByID(id uuid.UUID) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *site
	return &cp, nil
}

// memMessageStore mimics the repository's transactional semantics: the count
// check and the insert happen under one lock, and SID collisions surface as
// gorm.ErrDuplicatedKey.
type memMessageStore struct {
	mu       sync.Mutex
	siteOrg  map[uuid.UUID]uuid.UUID
	messages []*models.Message
	sids     map[string]bool
}

func newMemMessageStore(siteOrg map[uuid.UUID]uuid.UUID) *memMessageStore {
	return &memMessageStore{siteOrg: siteOrg, sids: map[string]bool{}}
}

func (s *memMessageStore) countByOrg(orgID uuid.UUID) int {
	n := 0
	for _, m := range s.messages {
		if s.siteOrg[m.SiteID] == orgID {
			n++
		}
	}
	return n
}

func (s *memMessageStore) CreateUnderLimit(orgID uuid.UUID, msg *models.Message, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.GatewayMessageSID != nil {
		if s.sids[*msg.GatewayMessageSID] {
			return false, gorm.ErrDuplicatedKey
		}
	}
	if limit >= 0 && s.countByOrg(orgID) >= limit {
		return false, nil
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, msg)
	if msg.GatewayMessageSID != nil {
		s.sids[*msg.GatewayMessageSID] = true
	}
	return true, nil
}

func (s *memMessageStore) LatestBySite(siteID uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Message
	for _, m := range s.messages {
		if m.SiteID != siteID {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

type memSubscriptionStore struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*models.Subscription
}

func newMemSubscriptionStore() *memSubscriptionStore {
	return &memSubscriptionStore{subs: map[uuid.UUID]*models.Subscription{}}
}

func (s *memSubscriptionStore) set(orgID uuid.UUID, plan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[orgID] = &models.Subscription{OrganizationID: orgID, Plan: plan, Status: models.SubscriptionActive}
}

func (s *memSubscriptionStore) LatestActiveByOrg(orgID uuid.UUID) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[orgID]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

// fakeGateway records every call and lets tests script the Verify check.
type fakeGateway struct {
	mu          sync.Mutex
	sent        []string // "to|body"
	startErr    error
	nextSID     string
	approveCode string
	checkErr    error
}

func (g *fakeGateway) SendSMS(to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, to+"|"+body)
	return nil
}

func (g *fakeGateway) StartVerification(to string) (string, error) {
	if g.startErr != nil {
		return "", g.startErr
	}
	if g.nextSID == "" {
		return "VE" + to, nil
	}
	return g.nextSID, nil
}

func (g *fakeGateway) CheckVerification(to, code string) (bool, error) {
	if g.checkErr != nil {
		return false, g.checkErr
	}
	return code == g.approveCode, nil
}

func (g *fakeGateway) sentTo(to string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, s := range g.sent {
		if len(s) > len(to) && s[:len(to)] == to {
			out = append(out, s[len(to)+1:])
		}
	}
	return out
}
