package app

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ristore-api/internal/config"
	"github.com/noah-isme/ristore-api/internal/payment"
	"github.com/noah-isme/ristore-api/internal/ratelimit"
)

func TestNewPaymentLimiterStrategies(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sliding, err := NewPaymentLimiter("sliding", rdb)
	require.NoError(t, err)
	require.IsType(t, ratelimit.SlidingWindow{}, sliding)

	fixed, err := NewPaymentLimiter("fixed", rdb)
	require.NoError(t, err)
	require.IsType(t, &ratelimit.FixedWindow{}, fixed)

	_, err = NewPaymentLimiter("token-bucket", rdb)
	require.Error(t, err)
}

func TestNewGatewaySelectsProvider(t *testing.T) {
	gw, err := NewGateway(&config.Config{PaymentProvider: "stub"})
	require.NoError(t, err)
	require.Equal(t, "stub", gw.Name())

	gw, err = NewGateway(&config.Config{
		PaymentProvider:   "razorpay",
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: "secret",
		RazorpayBaseURL:   "https://api.razorpay.com",
	})
	require.NoError(t, err)
	rp, ok := gw.(payment.Razorpay)
	require.True(t, ok)
	require.Equal(t, "rzp_test_key", rp.KeyID)
	require.Equal(t, "razorpay", rp.HTTP.Target)

	_, err = NewGateway(&config.Config{PaymentProvider: "paypal"})
	require.Error(t, err)
}

func TestNewResolvesDependencies(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	deps, err := New(&config.Config{PaymentProvider: "stub", RateLimitStrategy: "fixed"}, rdb)
	require.NoError(t, err)
	require.NotNil(t, deps.Validator)
	require.NotNil(t, deps.Limiter)
	require.Equal(t, "stub", deps.Gateway.Name())
}
