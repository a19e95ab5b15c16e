package remit

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"semunipay/internal/common"
	"semunipay/internal/model"
	"semunipay/internal/rates"
	"semunipay/internal/settlement"
	"semunipay/internal/transfer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Config carries the chain and watcher parameters of the flow.
type Config struct {
	RecipientAddress  string
	ChainID           uint64
	ChainName         string
	TokenSymbol       string
	FiatCurrency      string
	ConfirmationDepth uint64
	PollInterval      time.Duration
	MaxPollAttempts   int
	ExplorerTxURL     string
}

// Transfer is one remittance lifecycle: on-chain transfer plus the
// off-chain settlement leg. Owned by the Service; read through Snapshot.
type Transfer struct {
	ID      string
	Request model.PayRequest

	mu         sync.Mutex
	status     transfer.Status
	txHash     string
	failReason string
	settlement settlement.Status
	receipt    *model.Receipt
}

// Snapshot returns a consistent view of the transfer for the API.
func (t *Transfer) Snapshot() model.TransferStatusResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.TransferStatusResponse{
		TransferID: t.ID,
		Status:     string(t.status),
		TxHash:     t.txHash,
		FailReason: t.failReason,
		Settlement: string(t.settlement),
		Receipt:    t.receipt,
	}
}

func (t *Transfer) setStatus(s transfer.Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *Transfer) fail(s transfer.Status, reason string) {
	t.mu.Lock()
	t.status = s
	t.failReason = reason
	t.mu.Unlock()
}

// Service owns the remittance flow: it validates orders, drives each
// transfer through its lifecycle in a background goroutine and keeps a
// registry of transfers for status queries.
type Service struct {
	converter *rates.Converter
	notifier  *settlement.Notifier
	wallet    transfer.Wallet
	cfg       Config
	logger    *zap.Logger

	mu        sync.Mutex
	transfers map[string]*Transfer
}

// NewService constructs a Service.
func NewService(converter *rates.Converter, notifier *settlement.Notifier, wallet transfer.Wallet, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		converter: converter,
		notifier:  notifier,
		wallet:    wallet,
		cfg:       cfg,
		logger:    logger,
		transfers: make(map[string]*Transfer),
	}
}

// Initiate validates the order and starts its lifecycle. Validation
// errors are raised here, before anything touches the wallet.
func (s *Service) Initiate(ctx context.Context, req model.PayRequest) (*model.PayResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &transfer.ValidationError{Message: err.Error()}
	}

	amountMinor, err := common.USDCToMicro(req.Amount)
	if err != nil {
		return nil, &transfer.ValidationError{Message: fmt.Sprintf("invalid amount: %v", err)}
	}
	if amountMinor == 0 {
		return nil, &transfer.ValidationError{Message: "amount must be a positive number"}
	}
	if s.cfg.RecipientAddress == "" {
		return nil, &transfer.ValidationError{Message: "recipient address is not configured"}
	}

	t := &Transfer{
		ID:      uuid.NewString(),
		Request: req,
		status:  transfer.StatusSubmitting,
	}

	s.mu.Lock()
	s.transfers[t.ID] = t
	s.mu.Unlock()

	// The lifecycle outlives the HTTP request that initiated it.
	go s.run(context.Background(), t, amountMinor)

	return &model.PayResponse{
		TransferID: t.ID,
		Status:     string(transfer.StatusSubmitting),
	}, nil
}

// Transfer looks up a transfer by id.
func (s *Service) Transfer(id string) (*Transfer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	return t, ok
}

// run drives one transfer to its terminal state: submit, watch, then
// settle exactly once on confirmation.
func (s *Service) run(ctx context.Context, t *Transfer, amountMinor uint64) {
	exec := transfer.NewExecutor(s.wallet, s.cfg.ConfirmationDepth, s.cfg.PollInterval, s.cfg.MaxPollAttempts, s.logger)

	txHash, err := exec.Submit(ctx, transfer.Request{
		RecipientAddress: s.cfg.RecipientAddress,
		AmountMinor:      amountMinor,
		ChainID:          s.cfg.ChainID,
	})
	if err != nil {
		reason := exec.FailReason()
		if reason == "" {
			reason = err.Error()
		}
		t.fail(transfer.StatusFailed, reason)
		return
	}

	t.mu.Lock()
	t.txHash = txHash
	t.status = transfer.StatusPendingConfirmation
	t.mu.Unlock()

	status, err := exec.Watch(ctx)
	if err != nil {
		t.fail(status, err.Error())
		return
	}
	if status != transfer.StatusConfirmed {
		t.fail(status, exec.FailReason())
		return
	}
	t.setStatus(transfer.StatusConfirmed)

	s.settle(ctx, t, txHash)
}

// settle fires the disbursement call and builds the completion receipt.
// The fiat amount is computed from the conversion rate at confirmation
// time. Settlement failure does not touch the on-chain status.
func (s *Service) settle(ctx context.Context, t *Transfer, txHash string) {
	fiat, err := s.converter.FiatValue(t.Request.Amount)
	if err != nil {
		s.logger.Error("cannot price settlement", zap.String("tx_hash", txHash), zap.Error(err))
		t.mu.Lock()
		t.settlement = settlement.StatusFailed
		t.mu.Unlock()
		return
	}

	fiatAmount, _ := fiat.Float64()
	_, err = s.notifier.Notify(ctx, model.SettlementRequest{
		TransactionHash: txHash,
		Amount:          fiatAmount,
		Shortcode:       t.Request.Shortcode,
		MobileNetwork:   t.Request.MobileNetwork,
		Chain:           s.cfg.ChainName,
	})

	status := settlement.StatusSettled
	if err != nil {
		status = settlement.StatusFailed
	}

	t.mu.Lock()
	t.settlement = status
	t.receipt = s.buildReceipt(t.Request, txHash, fiat)
	t.mu.Unlock()
}

// buildReceipt assembles the terminal "complete" view, with a QR code
// of the explorer link for the receipt screen.
func (s *Service) buildReceipt(req model.PayRequest, txHash string, fiat decimal.Decimal) *model.Receipt {
	explorerURL := s.cfg.ExplorerTxURL + txHash

	qr, err := receiptQRCode(explorerURL)
	if err != nil {
		s.logger.Warn("failed to generate receipt QR code", zap.Error(err))
	}

	return &model.Receipt{
		TxHash:        txHash,
		Token:         s.cfg.TokenSymbol,
		TokenAmount:   req.Amount,
		Currency:      s.cfg.FiatCurrency,
		FiatAmount:    fiat.StringFixed(2),
		Shortcode:     req.Shortcode,
		MobileNetwork: req.MobileNetwork,
		Chain:         s.cfg.ChainName,
		ExplorerURL:   explorerURL,
		QR:            qr,
	}
}

// receiptQRCode generates QR code of the explorer URL in base64
func receiptQRCode(url string) (string, error) {
	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
