package transfer

import "context"

// Receipt is the on-chain inclusion proof for a submitted transaction.
type Receipt struct {
	TxHash        string
	Success       bool // false means the transaction reverted
	BlockNumber   uint64
	Confirmations uint64
}

// Wallet is the capability port to a signing wallet. The executor talks
// ONLY to this interface - never to an RPC client or keyfile directly.
// Concrete chain SDKs are adapters implementing it.
type Wallet interface {
	// Address returns the wallet's account address.
	Address(ctx context.Context) (string, error)

	// EnsureChain verifies the wallet is connected to the expected chain.
	EnsureChain(ctx context.Context, chainID uint64) error

	// TransferToken signs and submits a token transfer of amountMinor
	// minor units to the given address, returning the transaction hash.
	TransferToken(ctx context.Context, toAddress string, amountMinor uint64) (txHash string, err error)

	// TransactionReceipt looks up the receipt for a submitted
	// transaction. Returns (nil, nil) while the transaction is not yet
	// mined; errors are transient RPC failures.
	TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
}
