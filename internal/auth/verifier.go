package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/ristore-api/internal/common"
)

// RolesClaim is the private claim listing the caller's roles.
const RolesClaim = "roles"

// Verifier checks HS256 bearer tokens minted by the storefront's session
// provider. It never issues tokens for end users.
type Verifier struct {
	secret    []byte
	validator TokenValidator
	now       func() time.Time
}

// NewVerifier builds a Verifier for the shared secret, issuer and audience.
func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: 30 * time.Second,
			Algorithm: jwa.HS256,
		},
		now: time.Now,
	}
}

// Parse verifies token and returns the principal it asserts.
func (v *Verifier) Parse(token string) (common.Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, unauthorized(errors.New("auth: token missing"))
	}
	algorithm, err := tokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, unauthorized(err)
	}
	if algorithm != v.validator.Algorithm {
		return common.Principal{}, unauthorized(fmt.Errorf("auth: unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, v.secret), jwt.WithValidate(false))
	if err != nil {
		return common.Principal{}, unauthorized(err)
	}
	if err := v.validator.Validate(parsed, algorithm, v.now()); err != nil {
		return common.Principal{}, unauthorized(err)
	}
	return common.Principal{Subject: parsed.Subject(), Roles: rolesOf(parsed)}, nil
}

// Issue signs a token for subject carrying roles. It exists for operator
// tooling and tests; storefront customers authenticate elsewhere.
func (v *Verifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	now := v.now()
	tok, err := jwt.NewBuilder().
		Issuer(v.validator.Issuer).
		Audience([]string{v.validator.Audience}).
		Subject(subject).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(ttl)).
		Claim(RolesClaim, roles).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(v.validator.Algorithm, v.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(RolesClaim)
	if !ok {
		return nil
	}
	switch vals := raw.(type) {
	case []string:
		return vals
	case []any:
		roles := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		return strings.Fields(vals)
	default:
		return nil
	}
}

func unauthorized(err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, err)
}
