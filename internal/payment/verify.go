package payment

import (
	"crypto/hmac"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/noah-isme/ristore-api/internal/common"
)

// Callback is what the hosted checkout hands back to the client after a payment.
type Callback struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// VerifySignature reports whether cb.Signature is the lowercase hex
// HMAC-SHA256 of "orderId|paymentId" under secret. The hex text is compared
// as sent, so a case change is a mismatch. A mismatch is (false, nil);
// missing fields or a non-hex signature return ErrMalformedCallback.
func VerifySignature(cb Callback, secret string) (bool, error) {
	if secret == "" {
		return false, errors.New("payment: verification secret not configured")
	}
	orderID := strings.TrimSpace(cb.GatewayOrderID)
	paymentID := strings.TrimSpace(cb.GatewayPaymentID)
	signature := strings.TrimSpace(cb.Signature)
	if orderID == "" || paymentID == "" || signature == "" {
		return false, ErrMalformedCallback
	}
	if _, err := hex.DecodeString(signature); err != nil {
		return false, ErrMalformedCallback
	}
	expected := hex.EncodeToString(common.HMACSHA256(secret, orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
