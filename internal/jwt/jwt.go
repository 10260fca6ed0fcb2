package jwt

import (
	"context"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/smallbiznis/orghub/internal/domain"
)

// Generator signs and validates access tokens. The token subject is the
// user's public identifier, never the internal storage key.
type Generator struct {
	keys      *KeyManager
	issuer    string
	accessTTL time.Duration
}

// NewGenerator constructs a JWT generator.
func NewGenerator(manager *KeyManager, issuer string, accessTTL time.Duration) *Generator {
	return &Generator{keys: manager, issuer: issuer, accessTTL: accessTTL}
}

// AccessTokenClaims represent the custom JWT payload for access tokens.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GenerateAccessToken produces a signed JWT bound to the user.
func (g *Generator) GenerateAccessToken(ctx context.Context, user domain.User) (string, error) {
	key, err := g.keys.EnsureSigningKey(ctx)
	if err != nil {
		return "", fmt.Errorf("ensure signing key: %w", err)
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.SignatureAlgorithm(key.Algorithm), Key: key.Secret},
		(&gojose.SignerOptions{}).WithType("JWT").WithHeader("kid", key.KID),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	stdClaims := gojwt.Claims{
		Subject:   user.UserID,
		Issuer:    g.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(g.accessTTL)),
		NotBefore: gojwt.NewNumericDate(now),
	}

	custom := AccessTokenClaims{
		Email: user.Email,
		Name:  user.FirstName + " " + user.LastName,
	}

	token, err := gojwt.Signed(signer).Claims(stdClaims).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}

	return token, nil
}

// ValidateAccessToken ensures the token is valid and returns its claims.
func (g *Generator) ValidateAccessToken(ctx context.Context, token string) (*gojwt.Claims, *AccessTokenClaims, error) {
	key, err := g.keys.ActiveKey(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load key: %w", err)
	}

	allowed := []gojose.SignatureAlgorithm{gojose.SignatureAlgorithm(key.Algorithm)}
	parsed, err := gojwt.ParseSigned(token, allowed)
	if err != nil {
		return nil, nil, fmt.Errorf("parse token: %w", err)
	}

	var std gojwt.Claims
	var custom AccessTokenClaims
	if err := parsed.Claims(key.Secret, &std, &custom); err != nil {
		return nil, nil, fmt.Errorf("verify token: %w", err)
	}

	if err := std.Validate(gojwt.Expected{Issuer: g.issuer, Time: time.Now().UTC()}); err != nil {
		return nil, nil, fmt.Errorf("validate claims: %w", err)
	}

	return &std, &custom, nil
}
