package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Sender delivers a verification code to an email address.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// ResendSender delivers mail through the Resend transactional email API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *logrus.Logger
}

func NewResendSender(apiKey, from string, logger *logrus.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (s *ResendSender) SendOTP(ctx context.Context, to, code string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: "Your SmartVest Verification Code",
		Html:    verificationHTML(code),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		s.logger.WithError(err).Error("Failed to send verification email")
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func verificationHTML(code string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">Welcome to SmartVest</h2>
  <p>Your verification code is:</p>
  <div style="background-color: #f3f4f6; padding: 20px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 4px; margin: 20px 0;">
    %s
  </div>
  <p>This code will expire in 10 minutes.</p>
  <p>If you didn't request this code, you can safely ignore this email.</p>
</div>`, code)
}
