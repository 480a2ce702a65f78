// Package otp implements phone-OTP issuance and verification
// (SPEC_FULL.md §4.3). The teacher has no OTP precedent of its own
// (auth there is Telegram init-data), so the flow is built directly
// from the spec while keeping the teacher's constructor-with-injected-
// dependencies idiom (internal/service/giveaway.Service's
// WithTelegram/WithNotifier chaining) for wiring RateLimiter, Store,
// SmsGateway, and SessionService together.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/open-builders/contestlet/internal/apperrors"
	"github.com/open-builders/contestlet/internal/domain/audit"
	"github.com/open-builders/contestlet/internal/domain/user"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/ratelimit"
	"github.com/open-builders/contestlet/internal/session"
	"github.com/open-builders/contestlet/internal/sms"
	"github.com/open-builders/contestlet/internal/store"
)

// e164Pattern is a pragmatic E.164 check: a leading '+', then 8-15
// digits. No ecosystem phone-number library appears anywhere in the
// retrieval pack (the teacher authenticates via Telegram init-data, not
// phone numbers), so this stays on stdlib regexp; see DESIGN.md.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

const codeLength = 6

// Service issues and verifies one-time codes and mints sessions on
// success (SPEC_FULL.md §4.3).
type Service struct {
	store       store.Store
	limiter     ratelimit.Limiter
	sms         sms.Gateway
	sessions    *session.Service
	clock       clock.Clock
	otpTTL      time.Duration
	requestLimit  int
	requestWindow time.Duration
	verifyLimit   int
	verifyWindow  time.Duration
	maxAttempts int
	adminPhones map[string]bool
}

type Config struct {
	OtpTTL        time.Duration
	MaxAttempts   int
	RequestLimit  int
	RequestWindow time.Duration
	VerifyLimit   int
	VerifyWindow  time.Duration
	AdminPhones   []string
}

func New(st store.Store, limiter ratelimit.Limiter, gateway sms.Gateway, sessions *session.Service, clk clock.Clock, cfg Config) *Service {
	admins := make(map[string]bool, len(cfg.AdminPhones))
	for _, p := range cfg.AdminPhones {
		admins[p] = true
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		store: st, limiter: limiter, sms: gateway, sessions: sessions, clock: clk,
		otpTTL: cfg.OtpTTL, requestLimit: cfg.RequestLimit, requestWindow: cfg.RequestWindow,
		verifyLimit: cfg.VerifyLimit, verifyWindow: cfg.VerifyWindow,
		maxAttempts: maxAttempts, adminPhones: admins,
	}
}

func NormalizePhone(phone string) (string, error) {
	if !e164Pattern.MatchString(phone) {
		return "", apperrors.ValidationFailed(map[string]string{"phone": "must be a valid E.164 phone number"})
	}
	return phone, nil
}

// RequestOtp generates and dispatches a one-time code. It never returns
// the code itself to the caller.
func (s *Service) RequestOtp(ctx context.Context, phone string) (retryAfter time.Duration, err error) {
	phone, err = NormalizePhone(phone)
	if err != nil {
		return 0, err
	}

	allowed, retryAfter, err := s.limiter.Allow(ctx, ratelimit.OtpRequestKey(phone), s.requestLimit, s.requestWindow)
	if err != nil {
		return 0, apperrors.DependencyUnavailable("rate limiter unavailable", err)
	}
	if !allowed {
		return retryAfter, apperrors.RateLimited("too many OTP requests", int(retryAfter.Seconds()))
	}

	code, err := generateCode()
	if err != nil {
		return 0, apperrors.Internal("failed to generate OTP code", err)
	}

	now := s.clock.Now()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.InsertOtpAttempt(ctx, phone, hashCode(phone, code), now, now.Add(s.otpTTL))
		return err
	})
	if err != nil {
		return 0, apperrors.DependencyUnavailable("failed to persist OTP attempt", err)
	}

	if _, err := s.sms.Send(ctx, phone, fmt.Sprintf("Your Contestlet verification code is %s", code)); err != nil {
		return 0, apperrors.DependencyUnavailable("failed to send OTP", err)
	}
	return 0, nil
}

// VerifyOtp validates code against the most recent unconsumed attempt
// for phone, upserts the User, and mints a session.
func (s *Service) VerifyOtp(ctx context.Context, phone, code string) (*user.User, string, string, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, "", "", err
	}

	allowed, retryAfter, err := s.limiter.Allow(ctx, ratelimit.OtpVerifyKey(phone), s.verifyLimit, s.verifyWindow)
	if err != nil {
		return nil, "", "", apperrors.DependencyUnavailable("rate limiter unavailable", err)
	}
	if !allowed {
		return nil, "", "", apperrors.RateLimited("too many OTP verify attempts", int(retryAfter.Seconds()))
	}

	var u *user.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		attempt, err := tx.MostRecentUnconsumedOtp(ctx, phone)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.New(apperrors.KindValidationFailed, "invalid or expired code").WithFields(map[string]string{"code": "invalid or expired"})
			}
			return apperrors.DependencyUnavailable("failed to load OTP attempt", err)
		}
		if s.clock.Now().After(attempt.ExpiresAt) {
			_ = tx.ConsumeOtpAttempt(ctx, attempt.ID)
			return apperrors.New(apperrors.KindValidationFailed, "code expired").WithFields(map[string]string{"code": "expired"})
		}

		if hashCode(phone, code) != attempt.CodeHash {
			attempts, incErr := tx.IncrementOtpAttempts(ctx, attempt.ID)
			if incErr != nil {
				return apperrors.DependencyUnavailable("failed to record OTP attempt", incErr)
			}
			if attempts > s.maxAttempts {
				_ = tx.ConsumeOtpAttempt(ctx, attempt.ID)
			}
			return apperrors.New(apperrors.KindValidationFailed, "incorrect code").WithFields(map[string]string{"code": "incorrect"})
		}

		if err := tx.ConsumeOtpAttempt(ctx, attempt.ID); err != nil {
			return apperrors.DependencyUnavailable("failed to consume OTP attempt", err)
		}

		existing, err := tx.GetUserByPhone(ctx, phone)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperrors.DependencyUnavailable("failed to load user", err)
		}
		if existing == nil {
			role := user.RoleUser
			if s.adminPhones[phone] {
				role = user.RoleAdmin
			}
			newUser := &user.User{Phone: phone, Role: role, IsVerified: true}
			id, err := tx.CreateUser(ctx, newUser)
			if err != nil {
				return apperrors.DependencyUnavailable("failed to create user", err)
			}
			newUser.ID = id
			if role == user.RoleAdmin {
				roleAudit := &audit.RoleAudit{
					UserID:  id,
					OldRole: string(user.RoleUser),
					NewRole: string(role),
					Reason:  "admin phone allowlist",
				}
				if err := tx.InsertRoleAudit(ctx, roleAudit); err != nil {
					return apperrors.DependencyUnavailable("failed to record role audit", err)
				}
			}
			u = newUser
			return nil
		}

		if !existing.IsVerified || (s.adminPhones[phone] && existing.Role != user.RoleAdmin) {
			newRole := existing.Role
			if s.adminPhones[phone] {
				newRole = user.RoleAdmin
			}
			if newRole != existing.Role {
				if err := tx.AssignRole(ctx, existing.ID, newRole, nil, "admin phone allowlist"); err != nil {
					return apperrors.DependencyUnavailable("failed to assign role", err)
				}
				existing.Role = newRole
			}
		}
		u = existing
		return nil
	})
	if err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.sessions.Mint(u, true)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

func generateCode() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = digits[int(b)%len(digits)]
	}
	return string(code), nil
}

func hashCode(phone, code string) string {
	h := sha256.Sum256([]byte(phone + ":" + code))
	return hex.EncodeToString(h[:])
}
