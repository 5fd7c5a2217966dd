package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/middleware"
	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/service"
)

const refreshTokenCookie = "refresh_token"

type AuthHandlers struct {
	otpService          *service.OTPService
	jwtService          *service.JWTService
	refreshTokenService *service.RefreshTokenService
	accountService      *service.AccountService
	secureCookies       bool
	logger              *logrus.Logger
}

func NewAuthHandlers(
	otpService *service.OTPService,
	jwtService *service.JWTService,
	refreshTokenService *service.RefreshTokenService,
	accountService *service.AccountService,
	secureCookies bool,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		otpService:          otpService,
		jwtService:          jwtService,
		refreshTokenService: refreshTokenService,
		accountService:      accountService,
		secureCookies:       secureCookies,
		logger:              logger,
	}
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type SendOTPResponse struct {
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Code  string `json:"code"`
}

type VerifyOTPResponse struct {
	Token        string          `json:"token"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         AccountResponse `json:"user"`
}

type AccountResponse struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	WalletAddress      *string `json:"wallet_address"`
	SubscriptionStatus string  `json:"subscription_status"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SendOTP issues a verification code to the submitted email. The response is
// identical whether or not an account exists for the address.
func (h *AuthHandlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	emailAddr := normalizeEmail(req.Email)
	if !isValidEmail(emailAddr) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
		return
	}

	if err := h.otpService.Issue(r.Context(), emailAddr); err != nil {
		h.logger.WithError(err).Error("Failed to issue OTP")
		respondWithError(w, http.StatusInternalServerError, "OTP_DELIVERY_FAILED", "Failed to send verification code. Please try again.")
		return
	}

	respondWithJSON(w, http.StatusOK, SendOTPResponse{
		Message: "OTP sent successfully",
	})
}

// VerifyOTP consumes a code, provisions the account on first use, and mints
// the session credential. The matched code is gone once this returns, whatever
// happens downstream.
func (h *AuthHandlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	emailAddr := normalizeEmail(req.Email)
	submitted := strings.TrimSpace(req.OTP)
	if submitted == "" {
		submitted = strings.TrimSpace(req.Code)
	}

	if !isValidEmail(emailAddr) || submitted == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and code are required")
		return
	}

	if err := h.otpService.Verify(r.Context(), emailAddr, submitted); err != nil {
		if errors.Is(err, service.ErrInvalidOTP) {
			respondWithError(w, http.StatusBadRequest, "INVALID_OTP", "Invalid or expired code")
			return
		}
		h.logger.WithError(err).Error("OTP verification failed")
		respondWithError(w, http.StatusInternalServerError, "VERIFICATION_FAILED", "Failed to verify code")
		return
	}

	account, err := h.accountService.GetOrCreate(r.Context(), emailAddr)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get or create account")
		respondWithError(w, http.StatusInternalServerError, "ACCOUNT_CREATION_FAILED", "Failed to create account")
		return
	}

	tokenPair, familyID, err := h.jwtService.GenerateTokenPair(account.ID, account.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate tokens")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	h.storeRefreshToken(r, tokenPair, familyID)
	h.setAuthCookies(w, tokenPair)

	respondWithJSON(w, http.StatusOK, VerifyOTPResponse{
		Token:        tokenPair.AccessToken,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    tokenPair.TokenType,
		ExpiresIn:    tokenPair.ExpiresIn,
		User:         accountResponse(account),
	})
}

// Login exists for compatibility with the old password form. The service has
// exactly one identity strategy, so password sign-in is always rejected.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	respondWithError(w, http.StatusBadRequest, "PASSWORD_LOGIN_UNSUPPORTED", "Password sign-in is not supported; request a verification code instead")
}

func (h *AuthHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		respondWithError(w, http.StatusBadRequest, "MISSING_TOKEN", "Refresh token is required")
		return
	}

	claims, err := h.jwtService.VerifyToken(req.RefreshToken)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid refresh token")
		return
	}

	if claims.Type != "refresh" {
		respondWithError(w, http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Token is not a refresh token")
		return
	}

	revoked, err := h.refreshTokenService.IsRevoked(r.Context(), claims.JTI)
	if err == nil && revoked {
		respondWithError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Refresh token has been revoked")
		return
	}

	familyID := ""
	if tokenData, err := h.refreshTokenService.Get(r.Context(), claims.JTI); err == nil {
		familyID = tokenData.FamilyID
		if err := h.refreshTokenService.Revoke(r.Context(), claims.JTI); err != nil {
			h.logger.WithError(err).Warn("Failed to revoke rotated refresh token")
		}
	}

	tokenPair, newFamilyID, err := h.jwtService.GenerateTokenPairWithFamily(claims.AccountID, claims.Email, familyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate new tokens")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	h.storeRefreshToken(r, tokenPair, newFamilyID)
	h.setAuthCookies(w, tokenPair)

	respondWithJSON(w, http.StatusOK, RefreshTokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		TokenType:    tokenPair.TokenType,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

// Logout revokes the presented refresh token and clears the session cookies.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.Context().Value("claims").(*service.Claims); !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req RefreshTokenRequest
	json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		if refreshClaims, err := h.jwtService.VerifyToken(req.RefreshToken); err == nil && refreshClaims.Type == "refresh" {
			if err := h.refreshTokenService.Revoke(r.Context(), refreshClaims.JTI); err != nil {
				h.logger.WithError(err).Warn("Failed to revoke refresh token on logout")
			}
		}
	}

	h.clearAuthCookies(w)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandlers) storeRefreshToken(r *http.Request, tokenPair *models.TokenPair, familyID string) {
	claims, err := h.jwtService.VerifyToken(tokenPair.RefreshToken)
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse issued refresh token")
		return
	}

	err = h.refreshTokenService.Store(
		r.Context(),
		claims.JTI,
		claims.AccountID,
		claims.Email,
		familyID,
		claims.RegisteredClaims.ExpiresAt.Time,
	)
	if err != nil {
		// The token is still valid; it just cannot be revoked early.
		h.logger.WithError(err).Error("Failed to store refresh token")
	}
}

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, tokenPair *models.TokenPair) {
	maxAge := int((7 * 24 * time.Hour).Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    tokenPair.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokenPair.RefreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.TokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func accountResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:                 account.ID,
		Email:              account.Email,
		WalletAddress:      account.WalletAddress,
		SubscriptionStatus: account.SubscriptionStatus,
	}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}

func isValidEmail(emailAddr string) bool {
	return emailPattern.MatchString(emailAddr)
}
