package evm

import (
	"context"
	"fmt"

	"semunipay/internal/client"
	"semunipay/internal/common"
	"semunipay/internal/model"

	"github.com/shopspring/decimal"
)

// GetBalance gets the treasury balance view (USDC plus its fiat value)
func GetBalance(ctx context.Context, w *Wallet, pretium *client.PretiumClient, currencyCode string) (*model.BalanceResponse, error) {
	address, err := w.Address(ctx)
	if err != nil {
		return nil, err
	}

	balMinor, err := w.BalanceMinor(ctx)
	if err != nil {
		return nil, err
	}

	// Convert to display string (no float precision loss)
	usdc := common.MicroToUSDC(balMinor)

	// Get USDC/ETB buying rate
	rate, err := pretium.ExchangeRate(ctx, currencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}

	usdcDec, err := decimal.NewFromString(usdc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	etb := usdcDec.Mul(rate).Round(2).StringFixed(2)

	return &model.BalanceResponse{
		Address: address,
		USDC:    usdc,
		Rate:    rate.StringFixed(2),
		ETB:     etb,
	}, nil
}
