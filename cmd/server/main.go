package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/smartvest/smartvest/internal/config"
	"github.com/smartvest/smartvest/internal/email"
	"github.com/smartvest/smartvest/internal/handlers"
	"github.com/smartvest/smartvest/internal/middleware"
	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/repository"
	"github.com/smartvest/smartvest/internal/service"
)

type stores struct {
	accounts      repository.AccountStore
	otps          repository.OTPStore
	vesting       repository.VestingStore
	refreshTokens repository.RefreshTokenStore
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	st, err := initStores(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}

	jwtService, err := service.NewJWTService(&cfg.JWT, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize JWT service")
	}

	sender := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
	otpService := service.NewOTPService(st.otps, sender, &cfg.OTP, logger)
	refreshTokenService := service.NewRefreshTokenService(st.refreshTokens, logger)
	accountService := service.NewAccountService(st.accounts, &cfg.Trial, logger)

	authHandlers := handlers.NewAuthHandlers(
		otpService,
		jwtService,
		refreshTokenService,
		accountService,
		cfg.IsProduction(),
		logger,
	)
	vestingHandlers := handlers.NewVestingHandlers(st.vesting, logger)
	walletHandlers := handlers.NewWalletHandlers(accountService, logger)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, logger)
	pageGuard := middleware.NewPageGuard(jwtService, logger)
	router := setupRouter(authHandlers, vestingHandlers, walletHandlers, authMiddleware, pageGuard, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initStores(cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("DATABASE_DSN not set, using in-memory storage (not for production)")
		return &stores{
			accounts:      repository.NewMemoryAccountStore(),
			otps:          repository.NewMemoryOTPStore(),
			vesting:       repository.NewMemoryVestingStore(),
			refreshTokens: repository.NewMemoryRefreshTokenStore(),
		}, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.OTPCode{},
		&models.VestingSchedule{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database connected and migrated")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis connected")

	return &stores{
		accounts:      repository.NewAccountRepository(db, logger),
		otps:          repository.NewOTPRepository(db, logger),
		vesting:       repository.NewVestingRepository(db, logger),
		refreshTokens: repository.NewRefreshTokenRepository(redisClient, logger),
	}, nil
}

func setupRouter(
	authHandlers *handlers.AuthHandlers,
	vestingHandlers *handlers.VestingHandlers,
	walletHandlers *handlers.WalletHandlers,
	authMiddleware *middleware.AuthMiddleware,
	pageGuard *middleware.PageGuard,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(pageGuard.Guard)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET", "OPTIONS")

	router.HandleFunc("/", handlers.HomePage).Methods("GET")
	router.HandleFunc("/signup", handlers.SignupPage).Methods("GET")
	router.HandleFunc("/dashboard", handlers.DashboardPage).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandlers.SendOTP).Methods("POST", "OPTIONS")
	auth.HandleFunc("/send-otp", authHandlers.SendOTP).Methods("POST", "OPTIONS")
	auth.HandleFunc("/verify-otp", authHandlers.VerifyOTP).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login", authHandlers.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh", authHandlers.RefreshToken).Methods("POST", "OPTIONS")
	auth.Handle("/logout", authMiddleware.RequireAuth(http.HandlerFunc(authHandlers.Logout))).Methods("POST")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware.RequireAuth)
	protected.HandleFunc("/wallet/connect", walletHandlers.Connect).Methods("POST")
	protected.HandleFunc("/wallet/disconnect", walletHandlers.Disconnect).Methods("POST")
	protected.HandleFunc("/vesting/create", vestingHandlers.CreateSchedule).Methods("POST")
	protected.HandleFunc("/vesting/schedules", vestingHandlers.ListSchedules).Methods("GET")

	return router
}
