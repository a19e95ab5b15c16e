package handler

import (
	"errors"
	"net/http"

	"semunipay/internal/client"
	"semunipay/internal/config"
	"semunipay/internal/evm"
	"semunipay/internal/model"
)

// WalletHandler holds configuration for treasury wallet operations
type WalletHandler struct {
	filePath     string
	wallet       *evm.Wallet
	pretium      *client.PretiumClient
	fiatCurrency string
}

// NewWalletHandler creates a new WalletHandler with config values
func NewWalletHandler(wallet *evm.Wallet, pretium *client.PretiumClient) (*WalletHandler, error) {
	filePath := config.GetWalletFilePath()
	if filePath == "" {
		return nil, errors.New("WALLET_FILE_PATH not set")
	}

	return &WalletHandler{
		filePath:     filePath,
		wallet:       wallet,
		pretium:      pretium,
		fiatCurrency: config.GetFiatCurrency(),
	}, nil
}

// Generate handles POST /wallet/generate
// @Summary      Generate new treasury wallet
// @Description  Generates a new Base wallet and saves it to a .spw keyfile
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Router       /wallet/generate [post]
func (h *WalletHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := config.GetWalletPasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer clear(passwordBytes) // Always clear password from memory

	address, err := evm.GenerateWallet(h.filePath, passwordBytes)
	if err != nil {
		if evm.IsFileExistsError(err) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Address: address,
	})
}

// Balance handles GET /wallet/balance
// @Summary      Get treasury balance (ETB = USDC * rate)
// @Description  Gets the treasury USDC balance with the current USDC/ETB rate
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	balance, err := evm.GetBalance(r.Context(), h.wallet, h.pretium, h.fiatCurrency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// Health handles GET /health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
