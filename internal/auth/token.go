package auth

import (
	"context"
	"errors"
	"fmt"

	"urdf/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// KeySetSource returns the signing keys tokens are verified against.
type KeySetSource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

// TokenVerifier turns an access token into an Identity. Only access tokens
// issued to the configured app client are accepted; ID tokens from the same
// pool fail the token_use check.
type TokenVerifier struct {
	keys     KeySetSource
	jwksURL  string
	issuer   string
	clientID string
}

func NewTokenVerifier(keys KeySetSource, jwksURL, issuer, clientID string) *TokenVerifier {
	return &TokenVerifier{keys: keys, jwksURL: jwksURL, issuer: issuer, clientID: clientID}
}

// Verify returns ErrUnauthenticated for any token that does not validate. A
// failure to fetch the key set is returned as an operational error.
func (v *TokenVerifier) Verify(ctx context.Context, accessToken string) (types.Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return types.Identity{}, fmt.Errorf("fetch jwks: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithClaimValue("token_use", "access"),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.clientID != "" {
		opts = append(opts, jwt.WithClaimValue("client_id", v.clientID))
	}

	token, err := jwt.Parse([]byte(accessToken), opts...)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	// Use Subject() for the standard "sub" claim
	userID, ok := token.Subject()
	if !ok || userID == "" {
		return types.Identity{}, fmt.Errorf("%w: no subject claim", ErrUnauthenticated)
	}

	identity := types.Identity{UserID: userID}

	// Access tokens carry username rather than email; either is optional.
	var email string
	if err := token.Get("email", &email); err == nil {
		identity.Email = email
	} else if err := token.Get("username", &email); err == nil {
		identity.Email = email
	}

	return identity, nil
}
