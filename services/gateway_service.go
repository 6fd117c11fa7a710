// services/gateway_service.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/natpethunai/marketplace_backend/models"
)

// GatewayService handles interactions with the UPI payment gateway used
// for buyer collections. Settlement does not depend on it; developers use
// it to reconcile a transaction's utrId against the gateway's records.
type GatewayService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGatewayService creates a new gateway service instance. Returns a
// service even when credentials are missing; calls will fail with a clear
// error until GATEWAY_API_KEY is configured.
func NewGatewayService() *GatewayService {
	baseURL := os.Getenv("GATEWAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.sandbox.campuspay.example/v1/"
	}

	apiKey := os.Getenv("GATEWAY_API_KEY")
	if apiKey == "" {
		log.Printf("WARNING: GATEWAY_API_KEY is not set; payment reconciliation endpoints will be unavailable")
	}

	return &GatewayService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether gateway credentials are present.
func (s *GatewayService) Configured() bool {
	return s.apiKey != ""
}

// makeRequest performs an HTTP request to the gateway API
func (s *GatewayService) makeRequest(method, endpoint string, payload interface{}) (*models.GatewayResponse, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("missing gateway credentials. Please set GATEWAY_API_KEY")
	}

	url := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var gatewayResp models.GatewayResponse
	if err := json.Unmarshal(respBody, &gatewayResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	if !gatewayResp.Status {
		code := "unknown"
		if gatewayResp.Code != nil {
			code = fmt.Sprintf("%v", gatewayResp.Code)
		}
		return &gatewayResp, fmt.Errorf("gateway API error: %s", code)
	}

	return &gatewayResp, nil
}

// GetBalance retrieves the developer account balance held at the gateway
func (s *GatewayService) GetBalance() (float64, error) {
	resp, err := s.makeRequest("GET", "account/balance", nil)
	if err != nil {
		return 0, err
	}

	if balance, ok := resp.Data["balance"].(float64); ok {
		return balance, nil
	}

	return 0, fmt.Errorf("failed to parse balance from response")
}

// GetPaymentStatus returns the gateway's view of a payment identified by
// its UTR reference
func (s *GatewayService) GetPaymentStatus(utrID string) (*models.PaymentStatusData, error) {
	payload := models.GatewayRequest{UtrID: utrID}

	resp, err := s.makeRequest("POST", "collect/status", payload)
	if err != nil {
		return nil, err
	}

	status := &models.PaymentStatusData{}
	if v, ok := resp.Data["collectStatus"].(string); ok {
		status.CollectStatus = v
	}
	if v, ok := resp.Data["payerVpa"].(string); ok {
		status.PayerVPA = v
	}
	if status.CollectStatus == "" {
		return nil, fmt.Errorf("failed to parse payment status from response")
	}

	return status, nil
}
