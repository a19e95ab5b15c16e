package api

import (
	"context"
	"net/http"
	"time"

	"semunipay/internal/client"
	"semunipay/internal/config"
	"semunipay/internal/evm"
	"semunipay/internal/handler"
	"semunipay/internal/middleware"
	"semunipay/internal/rates"
	"semunipay/internal/remit"
	"semunipay/internal/settlement"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// SetupRouter wires the remittance flow and sets up the router with handlers
func SetupRouter(logger *zap.Logger) (http.Handler, error) {
	pretium := client.NewPretiumClient(config.GetPretiumBaseURL(), config.GetPretiumAPIKey())

	converter := rates.NewConverter(rates.LookupWithPretium(pretium, config.GetFiatCurrency()), logger)
	notifier := settlement.NewNotifier(settlement.PayWithPretium(pretium, config.GetFiatCurrency()), logger)

	wallet, err := evm.NewWallet(config.GetWalletFilePath())
	if err != nil {
		return nil, err
	}

	service := remit.NewService(converter, notifier, wallet, remit.Config{
		RecipientAddress:  config.GetRecipientAddress(),
		ChainID:           config.GetChainID(),
		ChainName:         config.GetChainName(),
		TokenSymbol:       "USDC",
		FiatCurrency:      config.GetFiatCurrency(),
		ConfirmationDepth: config.GetConfirmationDepth(),
		PollInterval:      config.GetPollInterval(),
		MaxPollAttempts:   config.GetPollMaxAttempts(),
		ExplorerTxURL:     config.GetExplorerTxURL(),
	}, logger)

	remitHandler := handler.NewRemitHandler(service, converter, config.GetFiatCurrency())
	walletHandler, err := handler.NewWalletHandler(wallet, pretium)
	if err != nil {
		return nil, err
	}

	// Warm the rate on startup; a failure is recoverable, quotes stay
	// suppressed until a later refresh succeeds
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if _, err := converter.Refresh(ctx); err != nil {
			logger.Warn("initial rate fetch failed", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// System endpoints
	mux.HandleFunc("/health", handler.Health)

	// Remittance endpoints
	mux.HandleFunc("/remit/quote", remitHandler.Quote)
	mux.HandleFunc("/remit/rate", remitHandler.Rate)
	mux.HandleFunc("/remit/rate/refresh", remitHandler.RefreshRate)
	mux.HandleFunc("/remit/pay", remitHandler.Pay)
	mux.HandleFunc("/remit/transfers/", remitHandler.TransferStatus)

	// Treasury wallet endpoints
	mux.HandleFunc("/wallet/generate", walletHandler.Generate)
	mux.HandleFunc("/wallet/balance", walletHandler.Balance)

	var h http.Handler = mux
	h = middleware.RateLimit(config.GetRateLimitRPS(), config.GetRateLimitBurst(), logger)(h)
	h = middleware.CORS(config.GetAllowedOrigins())(h)
	h = middleware.RequestLog(logger)(h)

	return h, nil
}
