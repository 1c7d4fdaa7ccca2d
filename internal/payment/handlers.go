package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/ristore-api/internal/common"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

const verificationFailed = "payment verification failed"

// Handler exposes the payment HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type cartItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// createOrderRequest deliberately has no price or total fields; anything a
// client sends for them is dropped by the decoder.
type createOrderRequest struct {
	Items    []cartItem `json:"items"`
	Currency string     `json:"currency"`
}

type verifyRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (v verifyRequest) callback() Callback {
	return Callback{
		GatewayOrderID:   firstNonEmpty(v.GatewayOrderID, v.RazorpayOrderID),
		GatewayPaymentID: firstNonEmpty(v.GatewayPaymentID, v.RazorpayPaymentID),
		Signature:        firstNonEmpty(v.Signature, v.RazorpaySignature),
	}
}

// CreateOrder handles POST /payment/create-order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_CART", "invalid cart items", nil)
		return
	}
	lines := make([]pricing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, pricing.Line{ProductID: strings.TrimSpace(item.ID), Quantity: item.Quantity})
	}

	intent, err := h.service.CreateOrderIntent(r.Context(), lines, req.Currency)
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}
	common.OK(w, map[string]any{
		"order":           intent.Order,
		"receipt":         intent.Receipt,
		"calculatedTotal": intent.Breakdown,
	})
}

// Verify handles POST /payment/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VERIFICATION_FAILED", verificationFailed, nil)
		return
	}
	cb := req.callback()
	ok, err := h.service.Verify(r.Context(), cb)
	if err != nil && !errors.Is(err, ErrMalformedCallback) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("payment verification unavailable")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		return
	}
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "VERIFICATION_FAILED", verificationFailed, nil)
		return
	}
	common.OK(w, map[string]any{
		"message":   "payment verified",
		"paymentId": strings.TrimSpace(cb.GatewayPaymentID),
	})
}

func (h *Handler) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid  *InvalidCartError
		unknown  *pricing.UnknownProductError
		currency *UnsupportedCurrencyError
		below    *BelowMinimumError
		gateway  *GatewayUnavailableError
	)
	switch {
	case errors.As(err, &invalid):
		common.JSONError(w, http.StatusBadRequest, "INVALID_CART", "invalid cart items", map[string]any{"reason": invalid.Reason})
	case errors.As(err, &unknown):
		common.JSONError(w, http.StatusBadRequest, "UNKNOWN_PRODUCT", "unknown product", map[string]any{"productId": unknown.ProductID})
	case errors.As(err, &currency):
		common.JSONError(w, http.StatusBadRequest, "UNSUPPORTED_CURRENCY", "unsupported currency", map[string]any{"currency": currency.Currency})
	case errors.As(err, &below):
		common.JSON(w, http.StatusBadRequest, map[string]any{
			"success":         false,
			"error":           fmt.Sprintf("minimum order amount is %s %s", below.Breakdown.SettlementCurrency, pricing.Money(below.Minimum)),
			"code":            "BELOW_MINIMUM",
			"calculatedTotal": below.Breakdown,
		})
	case errors.As(err, &gateway):
		common.JSONError(w, http.StatusInternalServerError, "GATEWAY_UNAVAILABLE", "failed to create order", nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("create order failed")
		common.WriteError(w, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
