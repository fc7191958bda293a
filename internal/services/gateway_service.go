package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	twilioAPIBase    = "https://api.twilio.com/2010-04-01"
	twilioVerifyBase = "https://verify.twilio.com/v2"
)

// SMSGateway is the slice of the Twilio API this service needs: outbound
// sends plus the Verify OTP issue/check pair. The gateway owns OTP codes
// end to end; we only ever hold the opaque verification SID.
type SMSGateway interface {
	SendSMS(to, body string) error
	StartVerification(to string) (string, error)
	CheckVerification(to, code string) (bool, error)
}

// TwilioService talks to the Twilio REST API.
type TwilioService struct {
	accountSID string
	authToken  string
	from       string
	verifySID  string
	client     *http.Client
}

// NewTwilioService creates a TwilioService with a bounded request timeout.
func NewTwilioService(accountSID, authToken, from, verifySID string) *TwilioService {
	return &TwilioService{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		verifySID:  verifySID,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether API credentials are present.
func (s *TwilioService) Configured() bool {
	return s.accountSID != "" && s.authToken != ""
}

// SendSMS sends a single outbound message.
func (s *TwilioService) SendSMS(to, body string) error {
	if !s.Configured() {
		log.Println("[gateway] credentials not configured, skipping send")
		return nil
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, s.accountSID)
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	resp, err := s.postForm(endpoint, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: send returned status %d", ErrUpstreamGateway, resp.StatusCode)
	}

	return nil
}

type verificationResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// StartVerification asks the Verify service to text an OTP to the phone and
// returns the verification session SID.
func (s *TwilioService) StartVerification(to string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("%w: credentials not configured", ErrUpstreamGateway)
	}

	endpoint := fmt.Sprintf("%s/Services/%s/Verifications", twilioVerifyBase, s.verifySID)
	form := url.Values{}
	form.Set("To", to)
	form.Set("Channel", "sms")

	resp, err := s.postForm(endpoint, form)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: verify start returned status %d", ErrUpstreamGateway, resp.StatusCode)
	}

	var vr verificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamGateway, err)
	}

	return vr.SID, nil
}

// CheckVerification submits the code the user typed. The Verify API answers
// 404 once a session has expired or been consumed.
func (s *TwilioService) CheckVerification(to, code string) (bool, error) {
	if !s.Configured() {
		return false, fmt.Errorf("%w: credentials not configured", ErrUpstreamGateway)
	}

	endpoint := fmt.Sprintf("%s/Services/%s/VerificationCheck", twilioVerifyBase, s.verifySID)
	form := url.Values{}
	form.Set("To", to)
	form.Set("Code", code)

	resp, err := s.postForm(endpoint, form)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstreamGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, ErrVerificationExpired
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: verify check returned status %d", ErrUpstreamGateway, resp.StatusCode)
	}

	var vr verificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstreamGateway, err)
	}

	return vr.Status == "approved", nil
}

func (s *TwilioService) postForm(endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.client.Do(req)
}
