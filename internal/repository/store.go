package repository

import (
	"context"
	"errors"

	"github.com/smartvest/smartvest/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AccountStore persists registered users.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	UpdateWallet(ctx context.Context, id string, address *string) error
}

// OTPStore persists outstanding one-time codes, at most one per email.
// Upsert atomically supersedes any previous code for the same address.
type OTPStore interface {
	Upsert(ctx context.Context, code *models.OTPCode) error
	GetByEmail(ctx context.Context, email string) (*models.OTPCode, error)
	Update(ctx context.Context, code *models.OTPCode) error
	DeleteByEmail(ctx context.Context, email string) error
}

// VestingStore persists vesting schedules. Create and read only.
type VestingStore interface {
	Create(ctx context.Context, schedule *models.VestingSchedule) error
	ListByAccount(ctx context.Context, accountID string) ([]*models.VestingSchedule, error)
}

// RefreshTokenStore records issued refresh tokens by JTI so they can be
// revoked before their natural expiry.
type RefreshTokenStore interface {
	Store(ctx context.Context, data models.RefreshTokenData) error
	Get(ctx context.Context, jti string) (*models.RefreshTokenData, error)
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
