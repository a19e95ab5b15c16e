package model

// SettlementRequest is the payload sent to the Pretium disbursement API
// once the on-chain transfer is confirmed. Field names follow the remote
// API contract (snake_case).
type SettlementRequest struct {
	TransactionHash string  `json:"transaction_hash"`
	Amount          float64 `json:"amount"`
	Shortcode       string  `json:"shortcode"`
	MobileNetwork   string  `json:"mobile_network"`
	Chain           string  `json:"chain"`
}
