package identity

import (
	"context"
	"fmt"
	"strings"

	"redaid/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

type KeySource interface {
	Lookup(ctx context.Context, url string) (jwk.Set, error)
}

// Verifier checks identity tokens against the provider's published keys.
type Verifier struct {
	keys    KeySource
	jwksURL string
	issuer  string
}

func NewVerifier(keys KeySource, issuerURL string) *Verifier {
	issuer := strings.TrimSuffix(issuerURL, "/")
	return &Verifier{
		keys:    keys,
		jwksURL: JWKSURL(issuer),
		issuer:  issuer,
	}
}

func JWKSURL(issuerURL string) string {
	return fmt.Sprintf("%s/.well-known/jwks.json", strings.TrimSuffix(issuerURL, "/"))
}

// Verify validates signature, expiry and issuer, and returns the claims the
// backend session is built from. The email claim is required.
func (v *Verifier) Verify(ctx context.Context, raw string) (*types.SessionClaims, string, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch jwks: %w", err)
	}

	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse jwt: %w", err)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, "", fmt.Errorf("jwt has no subject")
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, "", fmt.Errorf("jwt has no email claim")
	}

	// name is optional
	var name string
	_ = token.Get("name", &name)

	claims := &types.SessionClaims{
		Email:   strings.ToLower(email),
		Subject: subject,
	}
	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp.Unix()
	}

	return claims, name, nil
}
