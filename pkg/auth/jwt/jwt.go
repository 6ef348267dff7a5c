// Package jwt authenticates requests carrying RS256-signed JWTs, validating
// signature, issuer, audience and expiry against a JWKS endpoint. Keys are
// cached and refreshed on TTL expiry or unknown key IDs.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskpilot-dev/taskpilot/pkg/auth"
)

// Config holds JWT validation settings.
type Config struct {
	// Issuer is the required iss claim.
	Issuer string
	// Audience is the required aud claim; empty skips the check.
	Audience string
	// JWKSURL points at the issuer's key set.
	JWKSURL string
	// CacheTTL bounds how long fetched keys are reused. Defaults to 5m.
	CacheTTL time.Duration
	// TierClaim names the claim carrying the rate limit tier.
	TierClaim string
}

// Authenticator validates bearer JWTs. It abstains for requests without a
// token that looks like a JWT.
type Authenticator struct {
	cfg  Config
	keys *jwksCache
}

// New creates an authenticator fetching keys from cfg.JWKSURL.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.JWKSURL == "" {
		return nil, errors.New("JWKS URL is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TierClaim == "" {
		cfg.TierClaim = "tier"
	}
	return &Authenticator{cfg: cfg, keys: newJWKSCache(cfg.JWKSURL, cfg.CacheTTL)}, nil
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	token, ok := bearerToken(r)
	if !ok || strings.Count(token, ".") != 2 {
		return auth.Result{Decision: auth.Abstain}
	}

	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	_, err := jwt.ParseWithClaims(token, claims, a.keyFunc(ctx), opts...)
	if err != nil {
		return auth.Result{Decision: auth.Reject, Err: fmt.Errorf("invalid token: %w", err)}
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return auth.Result{Decision: auth.Reject, Err: errors.New("token has no subject")}
	}

	identity := &auth.Identity{Subject: subject, Tier: "default"}
	if tier, ok := claims[a.cfg.TierClaim].(string); ok && tier != "" {
		identity.Tier = tier
	}
	if scope, ok := claims["scope"].(string); ok && scope != "" {
		identity.Scopes = strings.Fields(scope)
	}
	return auth.Result{Decision: auth.Accept, Identity: identity}
}

func (a *Authenticator) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		key, err := a.keys.key(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
