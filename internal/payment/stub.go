package payment

import (
	"context"
	"time"

	"github.com/noah-isme/ristore-api/internal/common"
)

// Stub is a deterministic local gateway for development. Order ids derive
// from the receipt so repeated runs are reproducible.
type Stub struct {
	Now func() time.Time
}

// Name implements Gateway.
func (Stub) Name() string { return "stub" }

// CreateOrder implements Gateway without any network call.
func (s Stub) CreateOrder(_ context.Context, req OrderRequest) (GatewayOrder, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return GatewayOrder{
		ID:        "order_stub_" + common.Sha256Hex(req.Receipt)[:14],
		Entity:    "order",
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		CreatedAt: now().Unix(),
	}, nil
}
