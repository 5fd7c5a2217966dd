package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/config"
	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/repository"
)

type AccountService struct {
	store  repository.AccountStore
	cfg    *config.TrialConfig
	logger *logrus.Logger
}

func NewAccountService(store repository.AccountStore, cfg *config.TrialConfig, logger *logrus.Logger) *AccountService {
	return &AccountService{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// GetOrCreate provisions an account on first verification. New accounts get a
// trial window starting now; existing accounts are returned untouched.
func (s *AccountService) GetOrCreate(ctx context.Context, emailAddr string) (*models.Account, error) {
	account, err := s.store.GetByEmail(ctx, emailAddr)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	trialEnd := now.Add(s.cfg.Duration)
	account = &models.Account{
		ID:                 uuid.New().String(),
		Email:              emailAddr,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialStartDate:     &now,
		TrialEndDate:       &trialEnd,
	}

	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"email":      emailAddr,
	}).Info("Account created with trial window")

	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.store.GetByID(ctx, id)
}

// LinkWallet stores a wallet address on the account; a nil address unlinks.
func (s *AccountService) LinkWallet(ctx context.Context, id string, address *string) (*models.Account, error) {
	if err := s.store.UpdateWallet(ctx, id, address); err != nil {
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}
