package main

import (
	"net/http"

	"semunipay/internal/api"
	"semunipay/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title        SemuniPay API
// @version      1.0
// @description  Crypto-to-fiat remittance service: USDC on Base to Ethiopian mobile money.
func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := config.Init(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := config.PromptForPassword(); err != nil {
		logger.Fatal("failed to read wallet password", zap.Error(err))
	}

	router, err := api.SetupRouter(logger)
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	addr := ":" + config.GetPort()
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
