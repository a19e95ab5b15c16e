package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"semunipay/internal/client"
	"semunipay/internal/model"

	"go.uber.org/zap"
)

// Status of the off-chain settlement leg. Distinct from the on-chain
// transfer status: a confirmed transfer with a failed settlement call is
// still a confirmed transfer.
type Status string

const (
	StatusNone    Status = ""
	StatusSettled Status = "SETTLED"
	StatusFailed  Status = "SETTLEMENT_FAILED"
)

// PayFunc performs the outbound disbursement call.
// Implementations must be concurrency-safe when invoked.
type PayFunc func(ctx context.Context, req model.SettlementRequest) error

// PayWithPretium adapts the Pretium client to a PayFunc.
func PayWithPretium(c *client.PretiumClient, currencyCode string) PayFunc {
	return func(ctx context.Context, req model.SettlementRequest) error {
		return c.Pay(ctx, currencyCode, req)
	}
}

// Notifier performs at most one settlement call per confirmed
// transaction hash, no matter how many times the confirmation is
// observed.
type Notifier struct {
	pay    PayFunc
	logger *zap.Logger

	mu       sync.Mutex
	notified map[string]bool
}

// NewNotifier constructs a Notifier with an empty guard set.
func NewNotifier(pay PayFunc, logger *zap.Logger) *Notifier {
	return &Notifier{
		pay:      pay,
		logger:   logger,
		notified: make(map[string]bool),
	}
}

// Notify fires the settlement call for the request's transaction hash.
// The guard flag is set BEFORE the call goes out, not after it returns:
// a duplicate confirmation event arriving mid-call must not produce a
// second disbursement. The flag stays set even when the call errors -
// the token transfer cannot be rolled back, so a failed order is
// surfaced to the operator, never blindly re-fired.
//
// Returns fired=false when this hash was already handled.
func (n *Notifier) Notify(ctx context.Context, req model.SettlementRequest) (fired bool, err error) {
	if req.TransactionHash == "" {
		return false, errors.New("missing transaction hash")
	}

	n.mu.Lock()
	if n.notified[req.TransactionHash] {
		n.mu.Unlock()
		n.logger.Debug("settlement already sent for transaction",
			zap.String("tx_hash", req.TransactionHash))
		return false, nil
	}
	n.notified[req.TransactionHash] = true
	n.mu.Unlock()

	if err := n.pay(ctx, req); err != nil {
		n.logger.Error("settlement call failed, on-chain transfer stands",
			zap.String("tx_hash", req.TransactionHash),
			zap.Float64("amount", req.Amount),
			zap.Error(err))
		return true, fmt.Errorf("settlement call failed: %w", err)
	}

	n.logger.Info("settlement submitted",
		zap.String("tx_hash", req.TransactionHash),
		zap.Float64("amount", req.Amount),
		zap.String("mobile_network", req.MobileNetwork))
	return true, nil
}
