// models/gateway.go
package models

// GatewayRequest represents the standard request structure for the payment
// gateway API
type GatewayRequest struct {
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
	UtrID    string   `json:"utrId,omitempty"`
}

// GatewayResponse represents the standard response structure from the
// payment gateway API
type GatewayResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"` // Can be string or null
	Data   map[string]interface{} `json:"data"`
}

// PaymentStatusData represents the payment status information
type PaymentStatusData struct {
	CollectStatus string `json:"collectStatus"`
	PayerVPA      string `json:"payerVpa"`
}
