package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ristore-api/internal/config"
	"github.com/noah-isme/ristore-api/internal/pricing"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":                    "postgres://localhost:5432/ristore?sslmode=disable",
		"REDIS_URL":                       "redis://localhost:6379/0",
		"JWT_SECRET":                      "secret",
		"PAYMENT_PROVIDER":                "razorpay",
		"RAZORPAY_KEY_ID":                 "rzp_test_key",
		"RAZORPAY_KEY_SECRET":             "rzp_test_secret",
		"PRICING_TAX_RATE":                "",
		"PRICING_FX_RATE":                 "",
		"PRICING_FREE_SHIPPING_THRESHOLD": "",
		"PRICING_UNKNOWN_PRODUCT_POLICY":  "",
		"PAYMENT_GATEWAY_TIMEOUT":         "",
		"CATALOG_MAX_LIMIT":               "",
		"RATE_LIMIT_STRATEGY":             "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)

	require.Equal(t, 5*time.Second, cfg.PaymentGatewayTimeout)
	require.Equal(t, int64(10000), cfg.MinSettlementMinor)
	require.Equal(t, 100, cfg.CatalogMaxLimit)
	require.Equal(t, "sliding", cfg.RateLimitStrategy)

	require.Equal(t, "USD", cfg.Pricing.BaseCurrency)
	require.Equal(t, "INR", cfg.Pricing.SettlementCurrency)
	require.Equal(t, "0.08", cfg.Pricing.TaxRate.String())
	require.Equal(t, pricing.Money(13000), cfg.Pricing.FreeShippingThreshold)
	require.Equal(t, pricing.Money(999), cfg.Pricing.FlatShipping)
	require.Equal(t, pricing.Money(9999), cfg.Pricing.DefaultUnitPrice)
	require.Equal(t, pricing.RejectUnknown, cfg.Pricing.UnknownProduct)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PRICING_TAX_RATE"] = "0.18"
	env["PRICING_UNKNOWN_PRODUCT_POLICY"] = "default_price"
	env["PAYMENT_GATEWAY_TIMEOUT"] = "2s"
	env["RATE_LIMIT_STRATEGY"] = "fixed"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "0.18", cfg.Pricing.TaxRate.String())
	require.Equal(t, pricing.DefaultPriceForUnknown, cfg.Pricing.UnknownProduct)
	require.Equal(t, 2*time.Second, cfg.PaymentGatewayTimeout)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown policy":   {"PRICING_UNKNOWN_PRODUCT_POLICY": "guess"},
		"bad fx rate":      {"PRICING_FX_RATE": "eighty"},
		"zero fx rate":     {"PRICING_FX_RATE": "0"},
		"bad timeout":      {"PAYMENT_GATEWAY_TIMEOUT": "soon"},
		"missing key":      {"RAZORPAY_KEY_ID": ""},
		"unknown strategy": {"RATE_LIMIT_STRATEGY": "token-bucket"},
		"missing database": {"DATABASE_URL": ""},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range overrides {
				env[k] = v
			}
			_, err := config.LoadForTests(env)
			require.Error(t, err)
		})
	}
}
