package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"semunipay/internal/common"
	"semunipay/internal/config"
	walletfile "semunipay/internal/crypto"
	"semunipay/internal/transfer"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ERC-20 function selectors (first 4 bytes of the keccak of the signature)
var (
	transferSelector  = ethcrypto.Keccak256([]byte("transfer(address,uint256)"))[:4]
	balanceOfSelector = ethcrypto.Keccak256([]byte("balanceOf(address)"))[:4]
)

// Wallet is a custodial Base chain wallet backed by an encrypted .spw
// keyfile. The private key is decrypted per submission and wiped from
// memory immediately after signing.
type Wallet struct {
	rpcClient *ethclient.Client
	rpcURL    string
	filePath  string
	token     ethcommon.Address
	chainID   *big.Int
}

// NewWallet creates a wallet for the keyfile at filePath. The keyfile
// does not have to exist yet; operations that need it will error until
// it is generated.
func NewWallet(filePath string) (*Wallet, error) {
	tokenAddr := config.GetUSDCContract()
	if !ethcommon.IsHexAddress(tokenAddr) {
		return nil, fmt.Errorf("invalid USDC contract address: %s", tokenAddr)
	}

	rpcURL := config.GetBaseRPCURL()
	rpcClient, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}

	return &Wallet{
		rpcClient: rpcClient,
		rpcURL:    rpcURL,
		filePath:  filePath,
		token:     ethcommon.HexToAddress(tokenAddr),
		chainID:   new(big.Int).SetUint64(config.GetChainID()),
	}, nil
}

// Address returns the treasury address from the keyfile (without decryption)
func (w *Wallet) Address(ctx context.Context) (string, error) {
	address, err := walletfile.ReadKeyfileAddress(w.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read wallet address: %w", err)
	}
	return address, nil
}

// EnsureChain verifies the RPC endpoint serves the expected chain
func (w *Wallet) EnsureChain(ctx context.Context, chainID uint64) error {
	id, err := w.rpcClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Uint64() != chainID {
		return fmt.Errorf("connected to chain %d, want %d", id.Uint64(), chainID)
	}
	return nil
}

// TransferToken signs and submits a USDC transfer from the treasury
func (w *Wallet) TransferToken(ctx context.Context, toAddress string, amountMinor uint64) (string, error) {
	// Validate recipient address
	if !ethcommon.IsHexAddress(toAddress) {
		return "", errors.New("invalid recipient address")
	}

	// Read address from file
	address, err := walletfile.ReadKeyfileAddress(w.filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read wallet address: %w", err)
	}

	// Get password and decrypt private key
	password, err := config.GetWalletPasswordBytes()
	if err != nil {
		return "", err
	}
	defer clear(password)

	_, walletData, err := walletfile.DecryptKeyfile(w.filePath, password)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt wallet: %w", err)
	}

	// Always clear private key from memory
	defer clear(walletData.PrivateKey)

	key, err := ethcrypto.ToECDSA(walletData.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	// Verify key matches the keyfile address
	from := ethcrypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(from.Hex(), address) {
		return "", errors.New("private key does not match address")
	}

	// Check USDC sufficiency
	balMinor, err := w.balanceMinorOf(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to check balance: %w", err)
	}
	if balMinor < amountMinor {
		return "", fmt.Errorf("insufficient USDC balance. Have: %s USDC", common.MicroToUSDC(balMinor))
	}

	// Build the ERC-20 transfer call
	data := transferCalldata(ethcommon.HexToAddress(toAddress), new(big.Int).SetUint64(amountMinor))

	nonce, err := w.rpcClient.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := w.rpcClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	gas, err := w.rpcClient.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &w.token,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &w.token,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.rpcClient.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// TransactionReceipt looks up the receipt and its confirmation depth.
// Returns (nil, nil) while the transaction is not yet mined.
func (w *Wallet) TransactionReceipt(ctx context.Context, txHash string) (*transfer.Receipt, error) {
	receipt, err := w.rpcClient.TransactionReceipt(ctx, ethcommon.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	head, err := w.rpcClient.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get head block: %w", err)
	}

	blockNumber := receipt.BlockNumber.Uint64()
	var confirmations uint64
	if head >= blockNumber {
		confirmations = head - blockNumber + 1
	}

	return &transfer.Receipt{
		TxHash:        txHash,
		Success:       receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber:   blockNumber,
		Confirmations: confirmations,
	}, nil
}

// BalanceMinor gets the treasury USDC balance in micro units
func (w *Wallet) BalanceMinor(ctx context.Context) (uint64, error) {
	address, err := walletfile.ReadKeyfileAddress(w.filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read wallet address: %w", err)
	}
	if !ethcommon.IsHexAddress(address) {
		return 0, fmt.Errorf("invalid wallet address in keyfile: %s", address)
	}
	return w.balanceMinorOf(ctx, ethcommon.HexToAddress(address))
}

// balanceMinorOf calls balanceOf(owner) on the token contract
func (w *Wallet) balanceMinorOf(ctx context.Context, owner ethcommon.Address) (uint64, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, ethcommon.LeftPadBytes(owner.Bytes(), 32)...)

	out, err := w.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &w.token,
		Data: data,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("balanceOf call failed: %w", err)
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("short balanceOf response: %d bytes", len(out))
	}

	return new(big.Int).SetBytes(out[:32]).Uint64(), nil
}

// transferCalldata packs transfer(to, amount) per the ERC-20 ABI
func transferCalldata(to ethcommon.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 68)
	data = append(data, transferSelector...)
	data = append(data, ethcommon.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, ethcommon.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
