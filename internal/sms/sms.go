// Package sms provides the outbound SMS transport (SPEC_FULL.md §6.3
// SmsGateway), adapted from the teacher's internal/service/telegram
// client shape (struct wrapping an httpClient + credentials + logger,
// exposing a single Send-like method) generalized from the Telegram Bot
// API to a generic carrier REST call, with a Twilio-shaped
// implementation alongside the teacher's own mock-log pattern.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/open-builders/contestlet/internal/apperrors"
)

// Gateway is the external SMS provider boundary; contests never talk to
// a carrier directly.
type Gateway interface {
	Send(ctx context.Context, phone, body string) (providerMessageID string, err error)
}

// Mock records every send in memory instead of placing a network call;
// it is the default backend (config.SmsBackend="mock") used in tests and
// local development, mirroring the teacher's in-memory Telegram mock.
type Mock struct {
	mu  sync.Mutex
	log []MockMessage
}

type MockMessage struct {
	Phone string
	Body  string
	SentAt time.Time
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Send(_ context.Context, phone, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, MockMessage{Phone: phone, Body: body, SentAt: time.Now().UTC()})
	return fmt.Sprintf("mock-%d", len(m.log)), nil
}

// Messages returns a snapshot of everything sent so far, for tests.
func (m *Mock) Messages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.log))
	copy(out, m.log)
	return out
}

// Twilio sends via the Twilio Messages REST API. No Twilio Go SDK
// appears anywhere in the retrieval pack, so this stays a minimal
// net/http client in the teacher's telegram.Client shape rather than
// adding an unexercised ecosystem dependency; see DESIGN.md.
type Twilio struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	fromNumber string
	logger     zerolog.Logger
}

func NewTwilio(accountSID, authToken, fromNumber string, logger zerolog.Logger) *Twilio {
	return &Twilio{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

type twilioResponse struct {
	Sid          string `json:"sid"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (t *Twilio) Send(ctx context.Context, phone, body string) (string, error) {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", t.accountSID)

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.Internal("failed to build Twilio request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", apperrors.DependencyUnavailable("Twilio request failed", err)
	}
	defer resp.Body.Close()

	var parsed twilioResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.DependencyUnavailable("failed to decode Twilio response", err)
	}

	if resp.StatusCode >= 400 || parsed.ErrorCode != 0 {
		t.logger.Warn().Str("phone", phone).Int("status", resp.StatusCode).
			Str("twilio_error", parsed.ErrorMessage).Msg("sms: twilio send failed")
		return "", apperrors.DependencyUnavailable(fmt.Sprintf("twilio: %s", parsed.ErrorMessage), nil)
	}
	return parsed.Sid, nil
}
