package model

// BalanceResponse represents response for GET /wallet/balance
type BalanceResponse struct {
	Address string `json:"address"`
	USDC    string `json:"usdc"`
	Rate    string `json:"rate"`
	ETB     string `json:"usdc_amount_in_etb"`
}
