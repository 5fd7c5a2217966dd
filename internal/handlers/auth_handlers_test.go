package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartvest/smartvest/internal/config"
	"github.com/smartvest/smartvest/internal/middleware"
	"github.com/smartvest/smartvest/internal/repository"
	"github.com/smartvest/smartvest/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeSender struct {
	lastCode string
	fail     bool
}

func (f *fakeSender) SendOTP(ctx context.Context, to, code string) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.lastCode = code
	return nil
}

type testEnv struct {
	router   *mux.Router
	sender   *fakeSender
	otps     *repository.MemoryOTPStore
	accounts *repository.MemoryAccountStore
	vesting  *repository.MemoryVestingStore
	jwt      *service.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	otps := repository.NewMemoryOTPStore()
	accounts := repository.NewMemoryAccountStore()
	vesting := repository.NewMemoryVestingStore()
	refreshTokens := repository.NewMemoryRefreshTokenStore()
	sender := &fakeSender{}

	jwtService, err := service.NewJWTService(&config.JWTConfig{
		SecretKey:     testSecret,
		AccessExpiry:  7 * 24 * time.Hour,
		RefreshExpiry: 30 * 24 * time.Hour,
	}, logger)
	require.NoError(t, err)

	otpService := service.NewOTPService(otps, sender, &config.OTPConfig{
		Length:      6,
		Expiry:      10 * time.Minute,
		MaxAttempts: 5,
	}, logger)
	refreshTokenService := service.NewRefreshTokenService(refreshTokens, logger)
	accountService := service.NewAccountService(accounts, &config.TrialConfig{Duration: 14 * 24 * time.Hour}, logger)

	authHandlers := NewAuthHandlers(otpService, jwtService, refreshTokenService, accountService, false, logger)
	vestingHandlers := NewVestingHandlers(vesting, logger)
	walletHandlers := NewWalletHandlers(accountService, logger)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandlers.SendOTP).Methods("POST")
	auth.HandleFunc("/send-otp", authHandlers.SendOTP).Methods("POST")
	auth.HandleFunc("/verify-otp", authHandlers.VerifyOTP).Methods("POST")
	auth.HandleFunc("/login", authHandlers.Login).Methods("POST")
	auth.HandleFunc("/refresh", authHandlers.RefreshToken).Methods("POST")
	auth.Handle("/logout", authMiddleware.RequireAuth(http.HandlerFunc(authHandlers.Logout))).Methods("POST")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/wallet/connect", walletHandlers.Connect).Methods("POST")
	protected.HandleFunc("/wallet/disconnect", walletHandlers.Disconnect).Methods("POST")
	protected.HandleFunc("/vesting/create", vestingHandlers.CreateSchedule).Methods("POST")
	protected.HandleFunc("/vesting/schedules", vestingHandlers.ListSchedules).Methods("GET")

	return &testEnv{
		router:   router,
		sender:   sender,
		otps:     otps,
		accounts: accounts,
		vesting:  vesting,
		jwt:      jwtService,
	}
}

func (env *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// signIn runs the issue/verify flow and returns the token pair.
func (env *testEnv) signIn(t *testing.T, emailAddr string) (string, string) {
	t.Helper()

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": emailAddr}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{
		"email": emailAddr,
		"otp":   env.sender.lastCode,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyOTPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken, resp.RefreshToken
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestSendOTPRequiresEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTPStoresSixDigitCode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/register", map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	otp, err := env.otps.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), otp.Code)
	assert.WithinDuration(t, time.Now().Add(600*time.Second), otp.ExpiresAt, 5*time.Second)
}

func TestSendOTPReportsDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sender.fail = true

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "alice@example.com"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The undeliverable code must not linger.
	_, err := env.otps.GetByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerifyOTPFullFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{
		"email": "alice@example.com",
		"otp":   env.sender.lastCode,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyOTPResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, resp.Token, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "trial", resp.User.SubscriptionStatus)

	// Consumed code is gone; the account exists.
	_, err := env.otps.GetByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	account, err := env.accounts.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, account.ID)

	// Session cookies per the contract: httpOnly, lax, 7 days, path /.
	cookies := rec.Result().Cookies()
	var tokenCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == middleware.TokenCookie {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie)
	assert.True(t, tokenCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, tokenCookie.SameSite)
	assert.Equal(t, "/", tokenCookie.Path)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), tokenCookie.MaxAge)
}

func TestVerifyOTPAcceptsCodeField(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{
		"email": "alice@example.com",
		"code":  env.sender.lastCode,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	wrong := "000000"
	if wrong == env.sender.lastCode {
		wrong = "000001"
	}
	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{
		"email": "alice@example.com",
		"otp":   wrong,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired code")
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/send-otp", map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.sender.lastCode

	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{"email": "alice@example.com", "otp": code}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("POST", "/api/v1/auth/verify-otp", map[string]string{"email": "alice@example.com", "otp": code}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordLoginAlwaysRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PASSWORD_LOGIN_UNSUPPORTED")
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	env := newTestEnv(t)
	_, refreshToken := env.signIn(t, "alice@example.com")

	rec := env.do("POST", "/api/v1/auth/refresh", map[string]string{"refresh_token": refreshToken}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RefreshTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, refreshToken, resp.RefreshToken)

	// The rotated-out token is revoked.
	rec = env.do("POST", "/api/v1/auth/refresh", map[string]string{"refresh_token": refreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	accessToken, _ := env.signIn(t, "alice@example.com")

	rec := env.do("POST", "/api/v1/auth/refresh", map[string]string{"refresh_token": accessToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t)
	accessToken, refreshToken := env.signIn(t, "alice@example.com")

	rec := env.do("POST", "/api/v1/auth/logout", map[string]string{"refresh_token": refreshToken}, bearer(accessToken))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		assert.Less(t, c.MaxAge, 0)
		assert.Empty(t, c.Value)
	}

	// The revoked refresh token can no longer be exchanged.
	rec = env.do("POST", "/api/v1/auth/refresh", map[string]string{"refresh_token": refreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do("POST", "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token + "x"
	}
	return parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
}
