package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/models"
)

// RefreshTokenRepository keeps refresh-token records in Redis, keyed by JTI
// with a TTL matching the token expiry so stale entries clean themselves up.
type RefreshTokenRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRefreshTokenRepository(client *redis.Client, logger *logrus.Logger) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		client: client,
		logger: logger,
	}
}

func refreshTokenKey(jti string) string {
	return fmt.Sprintf("refresh_token:%s", jti)
}

func (r *RefreshTokenRepository) Store(ctx context.Context, data models.RefreshTokenData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	ttl := data.ExpiresAt.Sub(data.CreatedAt)
	if err := r.client.Set(ctx, refreshTokenKey(data.JTI), dataJSON, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to store refresh token")
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Get(ctx context.Context, jti string) (*models.RefreshTokenData, error) {
	dataJSON, err := r.client.Get(ctx, refreshTokenKey(jti)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to get refresh token")
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	var data models.RefreshTokenData
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}
	return &data, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, jti string) error {
	data, err := r.Get(ctx, jti)
	if err != nil {
		return err
	}

	data.Revoked = true
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	ttl := r.client.TTL(ctx, refreshTokenKey(jti)).Val()
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, refreshTokenKey(jti), dataJSON, ttl).Err(); err != nil {
		r.logger.WithError(err).Error("Failed to revoke refresh token")
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	data, err := r.Get(ctx, jti)
	if err != nil {
		return false, err
	}
	return data.Revoked, nil
}
