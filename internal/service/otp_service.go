package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/config"
	"github.com/smartvest/smartvest/internal/email"
	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/repository"
)

// ErrInvalidOTP is the uniform failure for a wrong, expired, or unknown code.
// Callers must not learn which half of the guess was wrong.
var ErrInvalidOTP = errors.New("invalid or expired code")

type OTPService struct {
	store  repository.OTPStore
	sender email.Sender
	cfg    *config.OTPConfig
	logger *logrus.Logger
}

func NewOTPService(store repository.OTPStore, sender email.Sender, cfg *config.OTPConfig, logger *logrus.Logger) *OTPService {
	return &OTPService{
		store:  store,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// Issue generates a code for the email, stores it, and mails it. Any previous
// code for the address is superseded by the upsert. If the send fails the
// stored code is retracted so no valid-but-undelivered code lingers.
func (s *OTPService) Issue(ctx context.Context, emailAddr string) error {
	code, err := s.generateRandomOTP(s.cfg.Length)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := time.Now()
	otp := &models.OTPCode{
		Email:     emailAddr,
		Code:      code,
		Attempts:  0,
		ExpiresAt: now.Add(s.cfg.Expiry),
		CreatedAt: now,
	}

	if err := s.store.Upsert(ctx, otp); err != nil {
		return err
	}

	if err := s.sender.SendOTP(ctx, emailAddr, code); err != nil {
		// Retract the stored code; the caller must re-initiate.
		if delErr := s.store.DeleteByEmail(ctx, emailAddr); delErr != nil {
			s.logger.WithError(delErr).Error("Failed to retract OTP after send failure")
		}
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"email": emailAddr,
	}).Debug("OTP issued")

	return nil
}

// Verify consumes the code for the email. A matched code is deleted before
// anything downstream runs; single use is absolute. Wrong guesses count
// against a per-code attempt budget, and exhausting it deletes the code.
func (s *OTPService) Verify(ctx context.Context, emailAddr, submitted string) error {
	otp, err := s.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if otp.Expired(time.Now()) {
		if err := s.store.DeleteByEmail(ctx, emailAddr); err != nil {
			s.logger.WithError(err).Error("Failed to delete expired OTP")
		}
		return ErrInvalidOTP
	}

	if otp.Code != submitted {
		otp.Attempts++
		if otp.Attempts >= s.cfg.MaxAttempts {
			if err := s.store.DeleteByEmail(ctx, emailAddr); err != nil {
				s.logger.WithError(err).Error("Failed to delete OTP after max attempts")
			}
		} else if err := s.store.Update(ctx, otp); err != nil {
			s.logger.WithError(err).Error("Failed to record OTP attempt")
		}
		return ErrInvalidOTP
	}

	if err := s.store.DeleteByEmail(ctx, emailAddr); err != nil {
		s.logger.WithError(err).Error("Failed to delete consumed OTP")
		return fmt.Errorf("failed to consume OTP: %w", err)
	}

	return nil
}

func (s *OTPService) generateRandomOTP(length int) (string, error) {
	otp := ""
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		otp += num.String()
	}
	return otp, nil
}
