package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/smartvest/smartvest/internal/models"
)

type VestingRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewVestingRepository(db *gorm.DB, logger *logrus.Logger) *VestingRepository {
	return &VestingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *VestingRepository) Create(ctx context.Context, schedule *models.VestingSchedule) error {
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create vesting schedule")
		return fmt.Errorf("failed to create vesting schedule: %w", err)
	}
	return nil
}

func (r *VestingRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.VestingSchedule, error) {
	schedules := []*models.VestingSchedule{}
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&schedules).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to list vesting schedules")
		return nil, fmt.Errorf("failed to list vesting schedules: %w", err)
	}
	return schedules, nil
}
