package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/config"
	"github.com/smartvest/smartvest/internal/models"
)

// JWTService is the single identity provider: it issues and verifies
// self-contained HS256 tokens bound to (account id, email). There is no
// provider-managed session path.
type JWTService struct {
	secretKey     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *logrus.Logger
}

func NewJWTService(cfg *config.JWTConfig, logger *logrus.Logger) (*JWTService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &JWTService{
		secretKey:     secretKey,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		logger:        logger,
	}, nil
}

type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// AccessExpiry is the validity window of issued access tokens.
func (s *JWTService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

// GenerateTokenPair mints a fresh access/refresh pair for the account and
// starts a new refresh-token family.
func (s *JWTService) GenerateTokenPair(accountID, emailAddr string) (*models.TokenPair, string, error) {
	return s.GenerateTokenPairWithFamily(accountID, emailAddr, "")
}

// GenerateTokenPairWithFamily mints a pair inside an existing refresh-token
// family, or a new family when familyID is empty.
func (s *JWTService) GenerateTokenPairWithFamily(accountID, emailAddr, familyID string) (*models.TokenPair, string, error) {
	now := time.Now()
	if familyID == "" {
		familyID = uuid.New().String()
	}

	accessTokenString, err := s.sign(accountID, emailAddr, "access", now, s.accessExpiry)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return nil, "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshTokenString, err := s.sign(accountID, emailAddr, "refresh", now, s.refreshExpiry)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign refresh token")
		return nil, "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, familyID, nil
}

func (s *JWTService) sign(accountID, emailAddr, tokenType string, now time.Time, expiry time.Duration) (string, error) {
	jti := uuid.New().String()
	claims := &Claims{
		AccountID: accountID,
		Email:     emailAddr,
		Type:      tokenType,
		JTI:       jti,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
