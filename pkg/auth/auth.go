// Package auth authenticates inbound gateway requests through a chain of
// authenticators with three-outcome voting: an authenticator accepts the
// credentials, rejects them, or abstains when they are not its kind.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision is an authenticator's vote.
type Decision int

const (
	// Accept means the credentials are valid; the chain stops.
	Accept Decision = iota
	// Reject means credentials were presented but are invalid; the chain
	// stops and the request fails.
	Reject
	// Abstain means the authenticator does not handle this credential
	// type; the chain continues.
	Abstain
)

// Result carries the outcome of one authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // set when Decision == Accept
	Err      error     // set when Decision == Reject
}

// Identity describes an authenticated caller.
type Identity struct {
	// Subject uniquely identifies the caller.
	Subject string
	// Tier selects the rate limit bucket.
	Tier string
	// Scopes lists granted authorization scopes.
	Scopes []string
}

// Authenticator inspects a request's credentials and votes.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain evaluates authenticators left to right, stopping at the first
// non-abstain vote. AllowAnonymous controls what happens when everyone
// abstains.
type Chain struct {
	Authenticators []Authenticator

	// AllowAnonymous grants an anonymous identity when all authenticators
	// abstain. Leave false for production deployments.
	AllowAnonymous bool
}

// Authenticate runs the chain.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, a := range c.Authenticators {
		result := a.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	if c.AllowAnonymous {
		return Result{Decision: Accept, Identity: &Identity{Subject: "anonymous", Tier: "default"}}
	}
	return Result{Decision: Reject, Err: ErrUnauthenticated}
}
