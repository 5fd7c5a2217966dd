package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartvest/smartvest/internal/models"
)

type OTPRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewOTPRepository(db *gorm.DB, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores a code for the email, replacing any previous one in a single
// statement. The unique index on email makes supersession atomic; two
// concurrent requests cannot leave two live codes behind.
func (r *OTPRepository) Upsert(ctx context.Context, code *models.OTPCode) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "attempts", "expires_at", "created_at"}),
	}).Create(code).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to store OTP")
		return fmt.Errorf("failed to store OTP: %w", err)
	}
	return nil
}

func (r *OTPRepository) GetByEmail(ctx context.Context, email string) (*models.OTPCode, error) {
	var code models.OTPCode
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		r.logger.WithError(err).Error("Failed to get OTP")
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}
	return &code, nil
}

func (r *OTPRepository) Update(ctx context.Context, code *models.OTPCode) error {
	if err := r.db.WithContext(ctx).Save(code).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update OTP")
		return fmt.Errorf("failed to update OTP: %w", err)
	}
	return nil
}

func (r *OTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	err := r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.OTPCode{}).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete OTP")
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}
