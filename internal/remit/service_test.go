package remit

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"semunipay/internal/model"
	"semunipay/internal/rates"
	"semunipay/internal/settlement"
	"semunipay/internal/transfer"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// instantWallet confirms every transfer on the first receipt poll.
type instantWallet struct {
	mu            sync.Mutex
	transferErr   error
	transferCalls int
}

func (w *instantWallet) Address(ctx context.Context) (string, error) {
	return "0x1111111111111111111111111111111111111111", nil
}

func (w *instantWallet) EnsureChain(ctx context.Context, chainID uint64) error {
	return nil
}

func (w *instantWallet) TransferToken(ctx context.Context, toAddress string, amountMinor uint64) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transferCalls++
	if w.transferErr != nil {
		return "", w.transferErr
	}
	return "0xdeadbeef", nil
}

func (w *instantWallet) TransactionReceipt(ctx context.Context, txHash string) (*transfer.Receipt, error) {
	return &transfer.Receipt{TxHash: txHash, Success: true, Confirmations: 1}, nil
}

func testConfig() Config {
	return Config{
		RecipientAddress:  "0x2222222222222222222222222222222222222222",
		ChainID:           8453,
		ChainName:         "BASE",
		TokenSymbol:       "USDC",
		FiatCurrency:      "ETB",
		ConfirmationDepth: 1,
		PollInterval:      time.Millisecond,
		MaxPollAttempts:   10,
		ExplorerTxURL:     "https://basescan.org/tx/",
	}
}

func loadedConverter(t *testing.T) *rates.Converter {
	t.Helper()
	conv := rates.NewConverter(func(ctx context.Context) (decimal.Decimal, error) {
		return decimal.NewFromInt(130), nil
	}, zap.NewNop())
	_, err := conv.Refresh(context.Background())
	require.NoError(t, err)
	return conv
}

func awaitSnapshot(t *testing.T, svc *Service, id string, done func(model.TransferStatusResponse) bool) model.TransferStatusResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tr, ok := svc.Transfer(id)
		require.True(t, ok)
		snap := tr.Snapshot()
		if done(snap) {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("transfer did not reach expected state in time")
	return model.TransferStatusResponse{}
}

func TestServiceSettlesOnceOnConfirmation(t *testing.T) {
	var mu sync.Mutex
	var calls []model.SettlementRequest
	notifier := settlement.NewNotifier(func(ctx context.Context, req model.SettlementRequest) error {
		mu.Lock()
		calls = append(calls, req)
		mu.Unlock()
		return nil
	}, zap.NewNop())

	svc := NewService(loadedConverter(t), notifier, &instantWallet{}, testConfig(), zap.NewNop())

	resp, err := svc.Initiate(context.Background(), model.PayRequest{
		Amount:        "5.00",
		Shortcode:     "+251911234567",
		MobileNetwork: "Telebirr",
	})
	require.NoError(t, err)
	assert.Equal(t, string(transfer.StatusSubmitting), resp.Status)

	snap := awaitSnapshot(t, svc, resp.TransferID, func(s model.TransferStatusResponse) bool {
		return s.Settlement != ""
	})

	assert.Equal(t, string(transfer.StatusConfirmed), snap.Status)
	assert.Equal(t, string(settlement.StatusSettled), snap.Settlement)
	assert.Equal(t, "0xdeadbeef", snap.TxHash)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, "0xdeadbeef", calls[0].TransactionHash)
	assert.Equal(t, 650.00, calls[0].Amount)
	assert.Equal(t, "+251911234567", calls[0].Shortcode)
	assert.Equal(t, "Telebirr", calls[0].MobileNetwork)
	assert.Equal(t, "BASE", calls[0].Chain)

	require.NotNil(t, snap.Receipt)
	assert.Equal(t, "https://basescan.org/tx/0xdeadbeef", snap.Receipt.ExplorerURL)
	assert.Equal(t, "5.00", snap.Receipt.TokenAmount)
	assert.Equal(t, "650.00", snap.Receipt.FiatAmount)
	assert.Equal(t, "USDC", snap.Receipt.Token)
	assert.Equal(t, "ETB", snap.Receipt.Currency)
	assert.NotEmpty(t, snap.Receipt.QR)
}

func TestServiceRejectsInvalidOrders(t *testing.T) {
	notifier := settlement.NewNotifier(func(ctx context.Context, req model.SettlementRequest) error {
		t.Fatal("settlement must not fire for rejected orders")
		return nil
	}, zap.NewNop())
	wallet := &instantWallet{}
	svc := NewService(loadedConverter(t), notifier, wallet, testConfig(), zap.NewNop())

	tests := []struct {
		name string
		req  model.PayRequest
	}{
		{"empty amount", model.PayRequest{Amount: "", Shortcode: "+251911234567", MobileNetwork: "Telebirr"}},
		{"zero amount", model.PayRequest{Amount: "0", Shortcode: "+251911234567", MobileNetwork: "Telebirr"}},
		{"garbage amount", model.PayRequest{Amount: "abc", Shortcode: "+251911234567", MobileNetwork: "Telebirr"}},
		{"missing shortcode", model.PayRequest{Amount: "5.00", Shortcode: "", MobileNetwork: "Telebirr"}},
		{"unknown network", model.PayRequest{Amount: "5.00", Shortcode: "+251911234567", MobileNetwork: "Vodafone"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Initiate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, transfer.IsValidationError(err))
		})
	}

	wallet.mu.Lock()
	defer wallet.mu.Unlock()
	assert.Zero(t, wallet.transferCalls)
}

func TestServiceWalletRejectionSkipsSettlement(t *testing.T) {
	var settlementCalls int32
	notifier := settlement.NewNotifier(func(ctx context.Context, req model.SettlementRequest) error {
		settlementCalls++
		return nil
	}, zap.NewNop())

	wallet := &instantWallet{transferErr: assert.AnError}
	svc := NewService(loadedConverter(t), notifier, wallet, testConfig(), zap.NewNop())

	resp, err := svc.Initiate(context.Background(), model.PayRequest{
		Amount:        "5.00",
		Shortcode:     "+251911234567",
		MobileNetwork: "Telebirr",
	})
	require.NoError(t, err)

	snap := awaitSnapshot(t, svc, resp.TransferID, func(s model.TransferStatusResponse) bool {
		return s.Status == string(transfer.StatusFailed)
	})

	assert.NotEmpty(t, snap.FailReason)
	assert.Empty(t, snap.TxHash)
	assert.Zero(t, settlementCalls)
}

func TestServiceSettlementFailureKeepsConfirmedStatus(t *testing.T) {
	notifier := settlement.NewNotifier(func(ctx context.Context, req model.SettlementRequest) error {
		return assert.AnError
	}, zap.NewNop())

	svc := NewService(loadedConverter(t), notifier, &instantWallet{}, testConfig(), zap.NewNop())

	resp, err := svc.Initiate(context.Background(), model.PayRequest{
		Amount:        "5.00",
		Shortcode:     "+251911234567",
		MobileNetwork: "Telebirr",
	})
	require.NoError(t, err)

	snap := awaitSnapshot(t, svc, resp.TransferID, func(s model.TransferStatusResponse) bool {
		return s.Settlement != ""
	})

	assert.Equal(t, string(transfer.StatusConfirmed), snap.Status)
	assert.Equal(t, string(settlement.StatusFailed), snap.Settlement)
}

func TestServiceUnknownTransferLookup(t *testing.T) {
	notifier := settlement.NewNotifier(func(ctx context.Context, req model.SettlementRequest) error {
		return nil
	}, zap.NewNop())
	svc := NewService(loadedConverter(t), notifier, &instantWallet{}, testConfig(), zap.NewNop())

	_, ok := svc.Transfer(strings.Repeat("0", 36))
	assert.False(t, ok)
}
