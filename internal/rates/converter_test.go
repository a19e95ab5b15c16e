package rates

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedLookup(rate string) LookupFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.RequireFromString(rate), nil
	}
}

func failingLookup() LookupFunc {
	return func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("network error")
	}
}

func TestConverter_PayDrivesReceive(t *testing.T) {
	c := NewConverter(fixedLookup("130.0"), zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	state := c.SetPay("10")
	assert.Equal(t, "10", state.PayAmount)
	assert.Equal(t, "1300.00", state.ReceiveAmount)
	assert.Equal(t, DirectionPay, state.Direction)

	// Editing the receive side flips the driving field
	state = c.SetReceive("650")
	assert.Equal(t, "650", state.ReceiveAmount)
	assert.Equal(t, "5.00", state.PayAmount)
	assert.Equal(t, DirectionReceive, state.Direction)
}

func TestConverter_NoFeedbackLoop(t *testing.T) {
	c := NewConverter(fixedLookup("130.0"), zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	// Any interleaving of edits settles with the derived field equal to
	// driving x rate (or / rate); the derived value never becomes input.
	c.SetPay("10")
	c.SetPay("10.5")
	c.SetReceive("650")
	state := c.SetPay("3")

	assert.Equal(t, "3", state.PayAmount)
	assert.Equal(t, "390.00", state.ReceiveAmount)

	// Re-deriving from the stored driving field is a fixed point
	again := c.SetPay(state.PayAmount)
	assert.Equal(t, state.ReceiveAmount, again.ReceiveAmount)
}

func TestConverter_ZeroRateSuppressesDerivation(t *testing.T) {
	c := NewConverter(fixedLookup("130.0"), zap.NewNop())

	// No rate loaded yet: driving field stored verbatim, nothing derived
	state := c.SetPay("10")
	assert.Equal(t, "10", state.PayAmount)
	assert.Equal(t, "", state.ReceiveAmount)

	state = c.SetReceive("650")
	assert.Equal(t, "650", state.ReceiveAmount)
	assert.Equal(t, "10", state.PayAmount)
}

func TestConverter_GarbageInputDerivesZero(t *testing.T) {
	c := NewConverter(fixedLookup("130.0"), zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"non-numeric", "abc"},
		{"negative", "-5"},
		{"partial", "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := c.SetPay(tt.input)
			assert.Equal(t, tt.input, state.PayAmount)
			assert.Equal(t, "0.00", state.ReceiveAmount)
		})
	}
}

func TestConverter_RefreshFailureKeepsStaleRate(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) (decimal.Decimal, error) {
		calls++
		if calls == 1 {
			return decimal.RequireFromString("130.0"), nil
		}
		return decimal.Zero, errors.New("network error")
	}

	c := NewConverter(lookup, zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	_, err = c.Refresh(context.Background())
	require.Error(t, err)

	// Stale rate still drives conversion
	state := c.SetPay("20")
	assert.Equal(t, "2600.00", state.ReceiveAmount)
	assert.True(t, c.Rate().Equal(decimal.RequireFromString("130.0")))
}

func TestConverter_RefreshNeverLoadedFailure(t *testing.T) {
	c := NewConverter(failingLookup(), zap.NewNop())

	_, err := c.Refresh(context.Background())
	require.Error(t, err)

	// Rate stays at zero, derivation stays suppressed
	state := c.SetPay("20")
	assert.Equal(t, "", state.ReceiveAmount)
	assert.True(t, c.Rate().IsZero())
}

func TestConverter_RefreshRecomputesNonDrivingField(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) (decimal.Decimal, error) {
		calls++
		if calls == 1 {
			return decimal.RequireFromString("130.0"), nil
		}
		return decimal.RequireFromString("140.0"), nil
	}

	c := NewConverter(lookup, zap.NewNop())
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	c.SetPay("10")
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	state := c.State()
	assert.Equal(t, "10", state.PayAmount)
	assert.Equal(t, "1400.00", state.ReceiveAmount)
}

func TestConverter_StaleFetchDoesNotOverwrite(t *testing.T) {
	release := []chan decimal.Decimal{
		make(chan decimal.Decimal),
		make(chan decimal.Decimal),
	}
	entered := make(chan struct{})

	var calls int32
	lookup := func(ctx context.Context) (decimal.Decimal, error) {
		i := atomic.AddInt32(&calls, 1) - 1
		entered <- struct{}{}
		return <-release[i], nil
	}

	c := NewConverter(lookup, zap.NewNop())

	done := make(chan struct{}, 2)
	// Older fetch starts first and gets the smaller sequence number
	go func() {
		_, _ = c.Refresh(context.Background())
		done <- struct{}{}
	}()
	<-entered
	go func() {
		_, _ = c.Refresh(context.Background())
		done <- struct{}{}
	}()
	<-entered

	// The newer fetch resolves first
	release[1] <- decimal.RequireFromString("140.0")
	<-done
	// The older one resolves late and must be discarded
	release[0] <- decimal.RequireFromString("130.0")
	<-done

	assert.True(t, c.Rate().Equal(decimal.RequireFromString("140.0")),
		"late old fetch overwrote fresher rate: got %s", c.Rate())
}

func TestConverter_FiatValue(t *testing.T) {
	c := NewConverter(fixedLookup("130.0"), zap.NewNop())

	_, err := c.FiatValue("5.00")
	assert.Error(t, err, "no rate loaded")

	_, err = c.Refresh(context.Background())
	require.NoError(t, err)

	fiat, err := c.FiatValue("5.00")
	require.NoError(t, err)
	assert.Equal(t, "650.00", fiat.StringFixed(2))
}
