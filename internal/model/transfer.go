package model

import "fmt"

// mobileNetworks are the disbursement rails Pretium can pay out to in Ethiopia.
var mobileNetworks = []string{
	"Commercial Bank of Ethiopia",
	"Telebirr",
	"CBE Birr",
	"Bank of Abyssinia",
	"Awash Bank",
}

// PayRequest represents request for POST /remit/pay
type PayRequest struct {
	Amount        string `json:"amount" binding:"required"`
	Shortcode     string `json:"shortcode" binding:"required"`
	MobileNetwork string `json:"mobile_network" binding:"required"`
}

// Validate validates PayRequest parameters.
// Amount positivity is checked by the transfer executor; this only
// rejects requests that are structurally unusable.
func (r *PayRequest) Validate() error {
	if r.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if r.Shortcode == "" {
		return fmt.Errorf("shortcode is required")
	}
	for _, network := range mobileNetworks {
		if r.MobileNetwork == network {
			return nil
		}
	}
	return fmt.Errorf("unknown mobile network %q", r.MobileNetwork)
}

// PayResponse represents response for POST /remit/pay
type PayResponse struct {
	TransferID string `json:"transferId"`
	Status     string `json:"status"`
}

// TransferStatusResponse represents response for GET /remit/transfers/{id}
type TransferStatusResponse struct {
	TransferID string   `json:"transferId"`
	Status     string   `json:"status"`
	TxHash     string   `json:"txHash,omitempty"`
	FailReason string   `json:"failReason,omitempty"`
	Settlement string   `json:"settlement,omitempty"`
	Receipt    *Receipt `json:"receipt,omitempty"`
}

// Receipt is the terminal "complete" view of a settled remittance.
type Receipt struct {
	TxHash        string `json:"txHash"`
	Token         string `json:"token"`
	TokenAmount   string `json:"tokenAmount"`
	Currency      string `json:"currency"`
	FiatAmount    string `json:"fiatAmount"`
	Shortcode     string `json:"shortcode"`
	MobileNetwork string `json:"mobileNetwork"`
	Chain         string `json:"chain"`
	ExplorerURL   string `json:"explorerUrl"`
	QR            string `json:"QR"`
}
