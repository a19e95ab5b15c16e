package model

import "fmt"

// QuoteField names the conversion field the user is editing
type QuoteField string

const (
	QuoteFieldPay     QuoteField = "PAY"
	QuoteFieldReceive QuoteField = "RECEIVE"
)

// QuoteRequest represents request for POST /remit/quote
type QuoteRequest struct {
	Field QuoteField `json:"field" binding:"required"`
	Value string     `json:"value"`
}

// Validate validates QuoteRequest parameters.
func (r *QuoteRequest) Validate() error {
	if r.Field != QuoteFieldPay && r.Field != QuoteFieldReceive {
		return fmt.Errorf("field must be PAY or RECEIVE")
	}
	return nil
}

// QuoteResponse represents response for POST /remit/quote
type QuoteResponse struct {
	PayAmount     string `json:"payAmount"`
	ReceiveAmount string `json:"receiveAmount"`
	Rate          string `json:"rate"`
	Direction     string `json:"direction"`
}

// RateResponse represents response for GET /remit/rate
type RateResponse struct {
	Rate     string `json:"rate"`
	Currency string `json:"currency"`
}
