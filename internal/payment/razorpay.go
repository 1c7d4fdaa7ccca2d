package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/noah-isme/ristore-api/internal/resilience"
)

const razorpayDefaultBaseURL = "https://api.razorpay.com"

// Razorpay creates orders through the Razorpay Orders API.
type Razorpay struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	HTTP      resilience.HTTPClient
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway responded %d", e.Status)
	}
	return fmt.Sprintf("gateway responded %d: %s: %s", e.Status, e.Code, e.Description)
}

// Name implements Gateway.
func (Razorpay) Name() string { return "razorpay" }

// CreateOrder implements Gateway with a single POST /v1/orders.
func (r Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error) {
	if r.KeyID == "" || r.KeySecret == "" {
		return GatewayOrder{}, errors.New("razorpay: credentials not configured")
	}
	payload, err := json.Marshal(map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	})
	if err != nil {
		return GatewayOrder{}, err
	}
	base := strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if base == "" {
		base = razorpayDefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return GatewayOrder{}, err
	}
	httpReq.SetBasicAuth(r.KeyID, r.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, cancel, err := r.HTTP.Do(ctx, httpReq)
	defer cancel()
	if err != nil {
		return GatewayOrder{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return GatewayOrder{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Description = envelope.Error.Description
		}
		return GatewayOrder{}, apiErr
	}
	var order GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return GatewayOrder{}, fmt.Errorf("decode order: %w", err)
	}
	if order.ID == "" {
		return GatewayOrder{}, errors.New("razorpay: order id missing from response")
	}
	return order, nil
}
