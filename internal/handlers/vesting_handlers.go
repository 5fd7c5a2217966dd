package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/models"
	"github.com/smartvest/smartvest/internal/repository"
	"github.com/smartvest/smartvest/internal/service"
)

type VestingHandlers struct {
	store  repository.VestingStore
	logger *logrus.Logger
}

func NewVestingHandlers(store repository.VestingStore, logger *logrus.Logger) *VestingHandlers {
	return &VestingHandlers{
		store:  store,
		logger: logger,
	}
}

type CreateScheduleRequest struct {
	TokenAddress string `json:"token_address"`
	Beneficiary  string `json:"beneficiary"`
	TotalAmount  string `json:"total_amount"`
	StartTime    string `json:"start_time"`
	Duration     int64  `json:"duration"`
}

func (h *VestingHandlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*service.Claims)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if !common.IsHexAddress(req.TokenAddress) {
		respondWithError(w, http.StatusBadRequest, "INVALID_TOKEN_ADDRESS", "token_address must be a hex address")
		return
	}
	if !common.IsHexAddress(req.Beneficiary) {
		respondWithError(w, http.StatusBadRequest, "INVALID_BENEFICIARY", "beneficiary must be a hex address")
		return
	}

	amount, ok := new(big.Int).SetString(req.TotalAmount, 10)
	if !ok || amount.Sign() <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_AMOUNT", "total_amount must be a positive integer")
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_START_TIME", "start_time must be an RFC 3339 timestamp")
		return
	}

	if req.Duration <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_DURATION", "duration must be a positive number of seconds")
		return
	}

	schedule := &models.VestingSchedule{
		ID:              uuid.New().String(),
		AccountID:       claims.AccountID,
		TokenAddress:    common.HexToAddress(req.TokenAddress).Hex(),
		Beneficiary:     common.HexToAddress(req.Beneficiary).Hex(),
		TotalAmount:     amount.String(),
		ReleasedAmount:  "0",
		StartTime:       startTime,
		DurationSeconds: req.Duration,
		Revoked:         false,
		CreatedAt:       time.Now(),
	}

	if err := h.store.Create(r.Context(), schedule); err != nil {
		h.logger.WithError(err).Error("Failed to create vesting schedule")
		respondWithError(w, http.StatusBadRequest, "SCHEDULE_CREATION_FAILED", "Failed to create vesting schedule")
		return
	}

	respondWithJSON(w, http.StatusOK, schedule)
}

// ListSchedules returns the caller's schedules. The body is always a JSON
// array, an empty one when the account has no schedules.
func (h *VestingHandlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*service.Claims)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	schedules, err := h.store.ListByAccount(r.Context(), claims.AccountID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list vesting schedules")
		respondWithError(w, http.StatusInternalServerError, "SCHEDULE_LIST_FAILED", "Failed to fetch schedules")
		return
	}

	if schedules == nil {
		schedules = []*models.VestingSchedule{}
	}

	respondWithJSON(w, http.StatusOK, schedules)
}
