package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"semunipay/internal/model"
	"semunipay/internal/rates"
	"semunipay/internal/remit"
	"semunipay/internal/transfer"
)

// RemitHandler holds the remittance flow dependencies
type RemitHandler struct {
	service   *remit.Service
	converter *rates.Converter
	currency  string
}

// NewRemitHandler creates a new RemitHandler
func NewRemitHandler(service *remit.Service, converter *rates.Converter, currency string) *RemitHandler {
	return &RemitHandler{
		service:   service,
		converter: converter,
		currency:  currency,
	}
}

// Quote handles POST /remit/quote
// @Summary      Update conversion quote
// @Description  Sets the driving conversion field (PAY or RECEIVE) and derives the other at the current rate
// @Tags         remit
// @Accept       json
// @Produce      json
// @Param        request  body      model.QuoteRequest  true  "Driving field and its value"
// @Success      200      {object}  model.QuoteResponse
// @Router       /remit/quote [post]
func (h *RemitHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var state rates.State
	if req.Field == model.QuoteFieldPay {
		state = h.converter.SetPay(req.Value)
	} else {
		state = h.converter.SetReceive(req.Value)
	}

	writeJSON(w, http.StatusOK, model.QuoteResponse{
		PayAmount:     state.PayAmount,
		ReceiveAmount: state.ReceiveAmount,
		Rate:          state.Rate.String(),
		Direction:     string(state.Direction),
	})
}

// Rate handles GET /remit/rate
// @Summary      Get current exchange rate
// @Description  Returns the cached fiat-per-token rate ("0" when not yet loaded)
// @Tags         remit
// @Produce      json
// @Success      200  {object}  model.RateResponse
// @Router       /remit/rate [get]
func (h *RemitHandler) Rate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, model.RateResponse{
		Rate:     h.converter.Rate().String(),
		Currency: h.currency,
	})
}

// RefreshRate handles POST /remit/rate/refresh
// @Summary      Refresh exchange rate
// @Description  Fetches a fresh rate from the quote service; on failure the previous rate is kept
// @Tags         remit
// @Produce      json
// @Success      200  {object}  model.RateResponse
// @Router       /remit/rate/refresh [post]
func (h *RemitHandler) RefreshRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	rate, err := h.converter.Refresh(r.Context())
	if err != nil {
		// Recoverable: the stale rate (if any) stays in effect
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.RateResponse{
		Rate:     rate.String(),
		Currency: h.currency,
	})
}

// Pay handles POST /remit/pay
// @Summary      Initiate a remittance
// @Description  Submits a USDC transfer from the treasury and, once confirmed, fires the fiat disbursement
// @Tags         remit
// @Accept       json
// @Produce      json
// @Param        request  body      model.PayRequest  true  "Remittance order"
// @Success      200      {object}  model.PayResponse
// @Router       /remit/pay [post]
func (h *RemitHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payResp, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		if transfer.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, payResp)
}

// TransferStatus handles GET /remit/transfers/{id}
// @Summary      Get transfer status
// @Description  Returns the lifecycle state of a transfer, its settlement status and the receipt once complete
// @Tags         remit
// @Produce      json
// @Param        id   path      string  true  "Transfer id"
// @Success      200  {object}  model.TransferStatusResponse
// @Router       /remit/transfers/{id} [get]
func (h *RemitHandler) TransferStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/remit/transfers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	t, ok := h.service.Transfer(id)
	if !ok {
		writeError(w, http.StatusNotFound, "transfer not found")
		return
	}

	writeJSON(w, http.StatusOK, t.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
