// Package apikey authenticates requests by bearer API key. Keys are
// configured as SHA-256 hashes so plaintext keys never sit in config files;
// comparison is constant-time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/taskpilot-dev/taskpilot/pkg/auth"
)

// Key describes one configured API key.
type Key struct {
	// SHA256 is the lowercase hex SHA-256 of the plaintext key.
	SHA256 string
	// Subject is the identity this key authenticates as.
	Subject string
	// Tier selects the rate limit bucket.
	Tier string
	// Scopes lists granted scopes.
	Scopes []string
}

// Authenticator validates bearer tokens against the configured key set.
// It abstains when the request carries no bearer token, so JWT and other
// schemes further down the chain get their turn.
type Authenticator struct {
	keys map[string]Key
}

// New builds an authenticator from the configured keys.
func New(keys []Key) (*Authenticator, error) {
	byHash := make(map[string]Key, len(keys))
	for _, k := range keys {
		hash := strings.ToLower(k.SHA256)
		if len(hash) != sha256.Size*2 {
			return nil, errors.New("api key hash must be 64 hex characters")
		}
		if k.Subject == "" {
			return nil, errors.New("api key subject must not be empty")
		}
		byHash[hash] = k
	}
	return &Authenticator{keys: byHash}, nil
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	token, ok := bearerToken(r)
	if !ok {
		return auth.Result{Decision: auth.Abstain}
	}
	// JWTs are handled elsewhere in the chain.
	if strings.Count(token, ".") == 2 {
		return auth.Result{Decision: auth.Abstain}
	}

	sum := sha256.Sum256([]byte(token))
	hash := hex.EncodeToString(sum[:])
	for stored, key := range a.keys {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(hash)) == 1 {
			return auth.Result{
				Decision: auth.Accept,
				Identity: &auth.Identity{Subject: key.Subject, Tier: key.Tier, Scopes: key.Scopes},
			}
		}
	}
	return auth.Result{Decision: auth.Reject, Err: errors.New("unknown api key")}
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
