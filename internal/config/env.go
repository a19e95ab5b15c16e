package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetWalletPasswordBytes()
type Config struct {
	Port           string   `envconfig:"PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	PretiumBaseURL string `envconfig:"PRETIUM_BASE_URL" required:"true"`
	PretiumAPIKey  string `envconfig:"PRETIUM_API_KEY" required:"true"`
	FiatCurrency   string `envconfig:"FIAT_CURRENCY" default:"ETB"`

	WalletFilePath   string `envconfig:"WALLET_FILE_PATH" required:"true"`
	RecipientAddress string `envconfig:"RECIPIENT_ADDRESS" required:"true"`

	BaseRPCURL    string `envconfig:"BASE_RPC_URL" default:"https://mainnet.base.org"`
	ChainID       uint64 `envconfig:"CHAIN_ID" default:"8453"`
	ChainName     string `envconfig:"CHAIN_NAME" default:"BASE"`
	USDCContract  string `envconfig:"USDC_CONTRACT" default:"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"`
	ExplorerTxURL string `envconfig:"EXPLORER_TX_URL" default:"https://basescan.org/tx/"`

	ConfirmationDepth   uint64 `envconfig:"CONFIRMATION_DEPTH" default:"1"`
	PollIntervalSeconds int    `envconfig:"POLL_INTERVAL_SECONDS" default:"5"`
	PollMaxAttempts     int    `envconfig:"POLL_MAX_ATTEMPTS" default:"60"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetAllowedOrigins returns the CORS origin allow list from configuration
func GetAllowedOrigins() []string {
	return Get().AllowedOrigins
}

// GetPretiumBaseURL returns the Pretium API base URL from configuration
func GetPretiumBaseURL() string {
	return Get().PretiumBaseURL
}

// GetPretiumAPIKey returns the Pretium API key from configuration
func GetPretiumAPIKey() string {
	return Get().PretiumAPIKey
}

// GetFiatCurrency returns the fiat currency code from configuration
func GetFiatCurrency() string {
	return Get().FiatCurrency
}

// GetWalletFilePath returns path to the .spw keyfile from configuration
func GetWalletFilePath() string {
	return Get().WalletFilePath
}

// GetRecipientAddress returns the treasury deposit address from configuration
func GetRecipientAddress() string {
	return Get().RecipientAddress
}

// GetBaseRPCURL returns the Base chain RPC URL from configuration
func GetBaseRPCURL() string {
	return Get().BaseRPCURL
}

// GetChainID returns the expected chain id from configuration
func GetChainID() uint64 {
	return Get().ChainID
}

// GetChainName returns the chain name reported to the settlement API
func GetChainName() string {
	return Get().ChainName
}

// GetUSDCContract returns the USDC token contract address from configuration
func GetUSDCContract() string {
	return Get().USDCContract
}

// GetExplorerTxURL returns the block explorer transaction URL prefix
func GetExplorerTxURL() string {
	return Get().ExplorerTxURL
}

// GetConfirmationDepth returns the confirmation depth from configuration
func GetConfirmationDepth() uint64 {
	return Get().ConfirmationDepth
}

// GetPollInterval returns the receipt polling interval from configuration
func GetPollInterval() time.Duration {
	return time.Duration(Get().PollIntervalSeconds) * time.Second
}

// GetPollMaxAttempts returns the receipt polling budget from configuration
func GetPollMaxAttempts() int {
	return Get().PollMaxAttempts
}

// GetRateLimitRPS returns the per-client request rate from configuration
func GetRateLimitRPS() float64 {
	return Get().RateLimitRPS
}

// GetRateLimitBurst returns the per-client burst size from configuration
func GetRateLimitBurst() int {
	return Get().RateLimitBurst
}

var passwordBytes []byte

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("password cannot be empty")
	}

	passwordBytes = make([]byte, len(raw))
	copy(passwordBytes, raw)
	clear(raw)
	return nil
}

// GetWalletPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetWalletPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
