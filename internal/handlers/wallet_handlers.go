package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/service"
)

type WalletHandlers struct {
	accountService *service.AccountService
	logger         *logrus.Logger
}

func NewWalletHandlers(accountService *service.AccountService, logger *logrus.Logger) *WalletHandlers {
	return &WalletHandlers{
		accountService: accountService,
		logger:         logger,
	}
}

type ConnectWalletRequest struct {
	Address string `json:"address"`
}

// Connect links a wallet to the authenticated account. Addresses are
// validated and stored in checksum form.
func (h *WalletHandlers) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*service.Claims)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	var req ConnectWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if !common.IsHexAddress(req.Address) {
		respondWithError(w, http.StatusBadRequest, "INVALID_ADDRESS", "address must be a hex wallet address")
		return
	}

	checksummed := common.HexToAddress(req.Address).Hex()
	account, err := h.accountService.LinkWallet(r.Context(), claims.AccountID, &checksummed)
	if err != nil {
		h.logger.WithError(err).Error("Failed to link wallet")
		respondWithError(w, http.StatusInternalServerError, "WALLET_LINK_FAILED", "Failed to link wallet")
		return
	}

	respondWithJSON(w, http.StatusOK, accountResponse(account))
}

func (h *WalletHandlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*service.Claims)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
		return
	}

	account, err := h.accountService.LinkWallet(r.Context(), claims.AccountID, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to unlink wallet")
		respondWithError(w, http.StatusInternalServerError, "WALLET_UNLINK_FAILED", "Failed to unlink wallet")
		return
	}

	respondWithJSON(w, http.StatusOK, accountResponse(account))
}
