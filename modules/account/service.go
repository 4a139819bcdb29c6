package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/glomun/portal/pkg/email"
	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/subscription"
)

// DefaultTokenTTL is the magic-link validity window.
const DefaultTokenTTL = 15 * time.Minute

// BillingService is the slice of the billing module this one needs for
// user-initiated cancellation.
type BillingService interface {
	CancelSubscription(ctx context.Context, preapprovalID string) error
}

// Service implements magic-link login and the session-scoped account
// operations.
type Service struct {
	log      *slog.Logger
	store    subscription.Store
	tokens   TokenStore
	mailer   email.EmailSender
	billing  BillingService
	sessions *Sessions
	baseURL  string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(
	log *slog.Logger,
	store subscription.Store,
	tokens TokenStore,
	mailer email.EmailSender,
	billing BillingService,
	sessions *Sessions,
	baseURL string,
	tokenTTL time.Duration,
) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		log:      log.With(logger.Component("account")),
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		billing:  billing,
		sessions: sessions,
		baseURL:  baseURL,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// RequestLoginLink mints a short-lived single-use token for an email
// with an authorized subscription and mails it as a clickable link.
// Emails without one get ErrNoActiveSubscription; no token is created
// and nothing is sent.
func (s *Service) RequestLoginLink(ctx context.Context, emailAddr string) error {
	if _, err := s.store.FindAuthorizedByEmail(ctx, emailAddr); err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return ErrNoActiveSubscription
		}
		return err
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.tokens.Create(ctx, &LoginToken{
		Token:     token,
		Email:     emailAddr,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	link := s.baseURL + "/api/account/login/verify?token=" + token
	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   emailAddr,
		Subject:  "Tu acceso a Glomun",
		BodyHTML: loginEmailBody(link),
		Tag:      "magic-link",
	}); err != nil {
		return fmt.Errorf("failed to send login link: %w", err)
	}

	s.log.InfoContext(ctx, "login link sent", logger.Email(emailAddr))
	return nil
}

// VerifyLoginToken consumes a token and re-resolves its email to an
// authorized subscription. Any failure collapses into ErrInvalidToken so
// the redirect carries a single generic error indicator.
func (s *Service) VerifyLoginToken(ctx context.Context, token string) (*subscription.Subscription, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	record, err := s.tokens.Consume(ctx, token, s.now().UTC())
	if err != nil {
		return nil, err
	}

	sub, err := s.store.FindAuthorizedByEmail(ctx, record.Email)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return sub, nil
}

// Cancel retires the session's agreement at the processor and mirrors
// the terminal status locally.
func (s *Service) Cancel(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil || sub.PreapprovalID == "" {
		return ErrNoSession
	}
	return s.billing.CancelSubscription(ctx, sub.PreapprovalID)
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate login token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// loginEmailBody renders the magic-link email with the link both as a
// button and as an inline QR code for cross-device login.
func loginEmailBody(link string) string {
	qr := ""
	if png, err := qrcode.Encode(link, qrcode.Medium, 220); err == nil {
		qr = fmt.Sprintf(
			`<p><img src="data:image/png;base64,%s" alt="QR" width="220" height="220"/></p>`,
			base64.StdEncoding.EncodeToString(png),
		)
	}

	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Ingresá a tu cuenta</h2>
<p>Hacé clic en el botón para acceder a tu portal de cliente. El enlace vence en 15 minutos y solo puede usarse una vez.</p>
<p><a href="%s" style="display:inline-block;padding:12px 24px;background:#111;color:#fff;text-decoration:none;border-radius:6px">Ingresar</a></p>
%s
<p style="color:#666;font-size:12px">Si no pediste este acceso, ignorá este correo.</p>
</div>`, link, qr)
}
