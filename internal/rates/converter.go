package rates

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"semunipay/internal/client"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Direction names the conversion field the user edited last. The other
// field is always derived from it, never the other way around.
type Direction string

const (
	DirectionPay     Direction = "PAY"
	DirectionReceive Direction = "RECEIVE"
)

// LookupFunc for looking up the current fiat-per-token exchange rate.
// Implementations must be concurrency-safe when invoked.
type LookupFunc func(ctx context.Context) (decimal.Decimal, error)

// LookupWithPretium adapts the Pretium client to a LookupFunc.
func LookupWithPretium(c *client.PretiumClient, currencyCode string) LookupFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		return c.ExchangeRate(ctx, currencyCode)
	}
}

// State is a snapshot of the conversion pair.
type State struct {
	PayAmount     string
	ReceiveAmount string
	Rate          decimal.Decimal
	Direction     Direction
}

// Converter keeps a pay-amount/receive-amount pair consistent with the
// current exchange rate. The driving field (last edited) is stored
// verbatim; only the derived field is recomputed, so edits can never
// feed back into themselves. A zero rate means "not yet loaded" and
// suppresses all derived computation.
type Converter struct {
	lookup LookupFunc
	logger *zap.Logger

	mu            sync.Mutex
	rate          decimal.Decimal
	payAmount     string
	receiveAmount string
	direction     Direction

	// fetchSeq tags each refresh; appliedSeq is the tag of the rate
	// currently in effect. A slow fetch that resolves after a newer one
	// must not overwrite the fresher rate.
	fetchSeq   uint64
	appliedSeq uint64
}

// NewConverter constructs a Converter with no rate loaded.
func NewConverter(lookup LookupFunc, logger *zap.Logger) *Converter {
	return &Converter{
		lookup:    lookup,
		logger:    logger,
		rate:      decimal.Zero,
		direction: DirectionPay,
	}
}

// SetPay stores the pay amount verbatim and, if a rate is loaded,
// derives the receive amount from it.
func (c *Converter) SetPay(value string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.direction = DirectionPay
	c.payAmount = value
	if c.rate.IsPositive() {
		c.receiveAmount = round2(parseAmount(value).Mul(c.rate))
	}
	return c.stateLocked()
}

// SetReceive stores the receive amount verbatim and, if a rate is
// loaded, derives the pay amount from it.
func (c *Converter) SetReceive(value string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.direction = DirectionReceive
	c.receiveAmount = value
	if c.rate.IsPositive() {
		c.payAmount = round2(parseAmount(value).Div(c.rate))
	}
	return c.stateLocked()
}

// Refresh fetches a new rate. On success the rate is overwritten and the
// non-driving field recomputed from the driving field. On failure the
// previous rate and both amounts stay as they were; the rate is stale,
// not gone, and ongoing conversion keeps working.
func (c *Converter) Refresh(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	rate, err := c.lookup(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to refresh rate: %w", err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("refused non-positive rate %s", rate)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.appliedSeq {
		// A newer fetch already landed; keep its rate.
		c.logger.Debug("discarding stale rate fetch",
			zap.Uint64("seq", seq),
			zap.Uint64("applied_seq", c.appliedSeq))
		return c.rate, nil
	}

	c.appliedSeq = seq
	c.rate = rate
	c.recomputeLocked()
	c.logger.Info("exchange rate refreshed", zap.String("rate", rate.String()))
	return rate, nil
}

// State returns a snapshot of the conversion pair.
func (c *Converter) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Rate returns the current rate (zero when not yet loaded).
func (c *Converter) Rate() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// FiatValue converts a token amount to fiat at the current rate, rounded
// to 2 decimals. Errors when no rate is loaded.
func (c *Converter) FiatValue(tokenAmount string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("exchange rate not loaded")
	}
	return parseAmount(tokenAmount).Mul(c.rate).Round(2), nil
}

// recomputeLocked re-derives the non-driving field from the driving one.
// Caller must hold c.mu.
func (c *Converter) recomputeLocked() {
	if !c.rate.IsPositive() {
		return
	}
	switch c.direction {
	case DirectionPay:
		c.receiveAmount = round2(parseAmount(c.payAmount).Mul(c.rate))
	case DirectionReceive:
		c.payAmount = round2(parseAmount(c.receiveAmount).Div(c.rate))
	}
}

func (c *Converter) stateLocked() State {
	return State{
		PayAmount:     c.payAmount,
		ReceiveAmount: c.receiveAmount,
		Rate:          c.rate,
		Direction:     c.direction,
	}
}

// parseAmount reads user-typed amount text. Empty, partial, non-numeric
// or negative input all parse to zero so the derived field becomes
// "0.00" instead of propagating NaN-like garbage.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func round2(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
