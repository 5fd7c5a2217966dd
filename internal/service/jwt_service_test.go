package service

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartvest/smartvest/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newJWTService(t *testing.T, accessExpiry time.Duration) *JWTService {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc, err := NewJWTService(&config.JWTConfig{
		SecretKey:     testSecret,
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 30 * 24 * time.Hour,
	}, logger)
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	_, err := NewJWTService(&config.JWTConfig{SecretKey: "short"}, logger)
	assert.Error(t, err)
}

func TestGenerateAndVerifyTokenPair(t *testing.T) {
	svc := newJWTService(t, 7*24*time.Hour)

	pair, familyID, err := svc.GenerateTokenPair("acc-1", "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, familyID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64((7 * 24 * time.Hour).Seconds()), pair.ExpiresIn)

	access, err := svc.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", access.AccountID)
	assert.Equal(t, "alice@example.com", access.Email)
	assert.Equal(t, "access", access.Type)
	assert.NotEmpty(t, access.JTI)

	refresh, err := svc.VerifyToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.Type)
	assert.NotEqual(t, access.JTI, refresh.JTI)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	svc := newJWTService(t, time.Hour)

	pair, _, err := svc.GenerateTokenPair("acc-1", "alice@example.com")
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = svc.VerifyToken(tampered)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newJWTService(t, -time.Minute)

	pair, _, err := svc.GenerateTokenPair("acc-1", "alice@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestGenerateTokenPairWithFamilyKeepsFamily(t *testing.T) {
	svc := newJWTService(t, time.Hour)

	_, familyID, err := svc.GenerateTokenPair("acc-1", "alice@example.com")
	require.NoError(t, err)

	_, sameFamily, err := svc.GenerateTokenPairWithFamily("acc-1", "alice@example.com", familyID)
	require.NoError(t, err)
	assert.Equal(t, familyID, sameFamily)
}
