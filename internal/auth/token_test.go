package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_test"
	testJWKSURL  = testIssuer + "/.well-known/jwks.json"
	testClientID = "test-client"
)

type staticKeySet struct {
	set jwk.Set
	err error
	url string
}

func (s *staticKeySet) Lookup(_ context.Context, u string) (jwk.Set, error) {
	s.url = u
	return s.set, s.err
}

func newSigningKey(t *testing.T) (jwk.Key, jwk.Set) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256()))

	pub, err := jwk.PublicKeyOf(key)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, jwa.RS256()))

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	return key, set
}

// signToken signs an access token for the test client. build may override
// token_use and client_id.
func signToken(t *testing.T, key jwk.Key, build func(*jwt.Builder) *jwt.Builder) string {
	t.Helper()

	b := jwt.NewBuilder().
		Claim("token_use", "access").
		Claim("client_id", testClientID)

	tok, err := build(b).Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), key))
	require.NoError(t, err)

	return string(signed)
}

func TestVerify(t *testing.T) {
	key, set := newSigningKey(t)
	keys := &staticKeySet{set: set}
	v := NewTokenVerifier(keys, testJWKSURL, testIssuer, testClientID)

	token := signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("user-123").
			Issuer(testIssuer).
			Expiration(time.Now().Add(time.Hour)).
			Claim("username", "admin@urdf.org")
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "admin@urdf.org", identity.Email)
	assert.True(t, identity.Authenticated())
	assert.Equal(t, testJWKSURL, keys.url)
}

func TestVerify_Rejects(t *testing.T) {
	key, set := newSigningKey(t)
	otherKey, _ := newSigningKey(t)
	v := NewTokenVerifier(&staticKeySet{set: set}, testJWKSURL, testIssuer, testClientID)

	tests := map[string]string{
		"expired": signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("user-123").Issuer(testIssuer).Expiration(time.Now().Add(-time.Hour))
		}),
		"wrong issuer": signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("user-123").Issuer("https://elsewhere.example").Expiration(time.Now().Add(time.Hour))
		}),
		"no subject": signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
			return b.Issuer(testIssuer).Expiration(time.Now().Add(time.Hour))
		}),
		"unknown signer": signToken(t, otherKey, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("user-123").Issuer(testIssuer).Expiration(time.Now().Add(time.Hour))
		}),
		"id token": signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("user-123").Issuer(testIssuer).Expiration(time.Now().Add(time.Hour)).Claim("token_use", "id")
		}),
		"other client": signToken(t, key, func(b *jwt.Builder) *jwt.Builder {
			return b.Subject("user-123").Issuer(testIssuer).Expiration(time.Now().Add(time.Hour)).Claim("client_id", "someone-else")
		}),
		"garbage": "not-a-token",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestVerify_KeySetFailureIsNotUnauthenticated(t *testing.T) {
	boom := errors.New("jwks unreachable")
	v := NewTokenVerifier(&staticKeySet{err: boom}, testJWKSURL, testIssuer, testClientID)

	_, err := v.Verify(context.Background(), "anything")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
