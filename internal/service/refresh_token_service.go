package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/repository"
)

type RefreshTokenService struct {
	store  repository.RefreshTokenStore
	logger *logrus.Logger
}

func NewRefreshTokenService(store repository.RefreshTokenStore, logger *logrus.Logger) *RefreshTokenService {
	return &RefreshTokenService{
		store:  store,
		logger: logger,
	}
}

func (s *RefreshTokenService) Store(ctx context.Context, jti, accountID, emailAddr, familyID string, expiresAt time.Time) error {
	return s.store.Store(ctx, models.RefreshTokenData{
		JTI:       jti,
		AccountID: accountID,
		Email:     emailAddr,
		FamilyID:  familyID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
		Revoked:   false,
	})
}

func (s *RefreshTokenService) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	return s.store.Get(ctx, jti)
}

func (s *RefreshTokenService) Revoke(ctx context.Context, jti string) error {
	return s.store.Revoke(ctx, jti)
}

func (s *RefreshTokenService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.store.IsRevoked(ctx, jti)
}
