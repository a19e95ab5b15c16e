package transfer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Status of a transfer lifecycle.
type Status string

const (
	StatusIdle                Status = "IDLE"
	StatusSubmitting          Status = "SUBMITTING"
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusConfirmed           Status = "CONFIRMED"
	StatusFailed              Status = "FAILED"

	// StatusStillPending means the polling budget ran out before the
	// network resolved the transaction. The transfer is not failed; the
	// user should check the explorer later.
	StatusStillPending Status = "STILL_PENDING"
)

// Request is an immutable transfer order. Created when the user
// confirms; never mutated after submission.
type Request struct {
	RecipientAddress string
	AmountMinor      uint64
	ChainID          uint64
}

// ValidationError is an error in the transfer order itself, raised
// before any wallet call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if error is ValidationError
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// Executor drives a single wallet-signed token transfer to a terminal
// state: IDLE -> SUBMITTING -> PENDING_CONFIRMATION -> CONFIRMED|FAILED.
// One Executor is one attempt; a retry is a fresh Executor and a fresh
// transaction hash.
type Executor struct {
	wallet            Wallet
	confirmationDepth uint64
	pollInterval      time.Duration
	maxPollAttempts   int
	logger            *zap.Logger

	status     Status
	txHash     string
	failReason string
}

// NewExecutor creates an Executor in the IDLE state.
func NewExecutor(wallet Wallet, confirmationDepth uint64, pollInterval time.Duration, maxPollAttempts int, logger *zap.Logger) *Executor {
	return &Executor{
		wallet:            wallet,
		confirmationDepth: confirmationDepth,
		pollInterval:      pollInterval,
		maxPollAttempts:   maxPollAttempts,
		logger:            logger,
		status:            StatusIdle,
	}
}

// Status returns the current lifecycle state.
func (e *Executor) Status() Status {
	return e.status
}

// TxHash returns the transaction hash once the wallet accepted the
// submission, empty before that.
func (e *Executor) TxHash() string {
	return e.txHash
}

// FailReason returns the wallet- or chain-reported reason when the
// status is FAILED.
func (e *Executor) FailReason() string {
	return e.failReason
}

// Submit validates the order and submits it through the wallet. The
// validation happens before any wallet call: a bad order fails fast and
// the executor stays IDLE. A wallet rejection (user declined, wrong
// network, insufficient balance) is terminal for this attempt.
func (e *Executor) Submit(ctx context.Context, req Request) (string, error) {
	if req.AmountMinor == 0 {
		return "", &ValidationError{Message: "amount must be a positive number"}
	}
	if req.RecipientAddress == "" {
		return "", &ValidationError{Message: "recipient address is not configured"}
	}
	if e.status != StatusIdle {
		return "", fmt.Errorf("transfer already submitted (status %s)", e.status)
	}

	e.status = StatusSubmitting

	if err := e.wallet.EnsureChain(ctx, req.ChainID); err != nil {
		e.fail(fmt.Sprintf("wrong network: %v", err))
		return "", fmt.Errorf("wrong network: %w", err)
	}

	txHash, err := e.wallet.TransferToken(ctx, req.RecipientAddress, req.AmountMinor)
	if err != nil {
		e.fail(err.Error())
		return "", fmt.Errorf("wallet rejected transfer: %w", err)
	}

	e.txHash = txHash
	e.status = StatusPendingConfirmation
	e.logger.Info("transfer submitted",
		zap.String("tx_hash", txHash),
		zap.String("to", req.RecipientAddress),
		zap.Uint64("amount_minor", req.AmountMinor))

	return txHash, nil
}

// Watch polls for the transaction receipt until the transfer reaches
// sufficient confirmations, reverts, or the polling budget runs out.
// Transient receipt-lookup errors do not fail the transfer; a reverted
// transaction does.
func (e *Executor) Watch(ctx context.Context) (Status, error) {
	if e.status != StatusPendingConfirmation {
		return e.status, fmt.Errorf("nothing to watch (status %s)", e.status)
	}

	for attempt := 0; attempt < e.maxPollAttempts; attempt++ {
		receipt, err := e.wallet.TransactionReceipt(ctx, e.txHash)
		if err != nil {
			e.logger.Warn("receipt lookup failed",
				zap.String("tx_hash", e.txHash),
				zap.Error(err))
		} else if receipt != nil {
			if !receipt.Success {
				e.fail("transaction reverted")
				return StatusFailed, nil
			}
			if receipt.Confirmations >= e.confirmationDepth {
				e.status = StatusConfirmed
				e.logger.Info("transfer confirmed",
					zap.String("tx_hash", e.txHash),
					zap.Uint64("confirmations", receipt.Confirmations))
				return StatusConfirmed, nil
			}
		}

		select {
		case <-ctx.Done():
			return e.status, ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}

	e.status = StatusStillPending
	e.logger.Warn("confirmation watch budget exhausted, transaction still pending",
		zap.String("tx_hash", e.txHash))
	return StatusStillPending, nil
}

func (e *Executor) fail(reason string) {
	e.status = StatusFailed
	e.failReason = reason
	e.logger.Warn("transfer failed", zap.String("reason", reason))
}
