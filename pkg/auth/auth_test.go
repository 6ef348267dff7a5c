package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticAuthenticator struct {
	result Result
}

func (s *staticAuthenticator) Authenticate(ctx context.Context, r *http.Request) Result {
	return s.result
}

func accept(subject string) *staticAuthenticator {
	return &staticAuthenticator{result: Result{Decision: Accept, Identity: &Identity{Subject: subject, Tier: "default"}}}
}

func reject() *staticAuthenticator {
	return &staticAuthenticator{result: Result{Decision: Reject, Err: errors.New("bad credentials")}}
}

func abstain() *staticAuthenticator {
	return &staticAuthenticator{result: Result{Decision: Abstain}}
}

func testRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/run", nil)
}

func TestChainStopsAtFirstAccept(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{abstain(), accept("alice"), reject()}}
	result := chain.Authenticate(context.Background(), testRequest())
	if result.Decision != Accept || result.Identity.Subject != "alice" {
		t.Errorf("result = %+v", result)
	}
}

func TestChainStopsAtFirstReject(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{abstain(), reject(), accept("alice")}}
	result := chain.Authenticate(context.Background(), testRequest())
	if result.Decision != Reject {
		t.Errorf("result = %+v", result)
	}
}

func TestChainAllAbstain(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{abstain(), abstain()}}
	result := chain.Authenticate(context.Background(), testRequest())
	if result.Decision != Reject || !errors.Is(result.Err, ErrUnauthenticated) {
		t.Errorf("result = %+v", result)
	}

	chain.AllowAnonymous = true
	result = chain.Authenticate(context.Background(), testRequest())
	if result.Decision != Accept || result.Identity.Subject != "anonymous" {
		t.Errorf("anonymous result = %+v", result)
	}
}

func nextHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	var called bool
	handler := Middleware(&Chain{}, nil, DefaultBypassPaths)(nextHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, testRequest())
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
	if called {
		t.Error("handler must not run for unauthenticated requests")
	}
}

func TestMiddlewareBypass(t *testing.T) {
	var called bool
	handler := Middleware(&Chain{}, nil, DefaultBypassPaths)(nextHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !called {
		t.Errorf("bypass path should skip auth, status = %d", rec.Code)
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	var gotIdentity *Identity
	handler := Middleware(&Chain{Authenticators: []Authenticator{accept("alice")}}, nil, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIdentity, _ = IdentityFromContext(r.Context())
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, testRequest())
	if gotIdentity == nil || gotIdentity.Subject != "alice" {
		t.Errorf("identity = %+v", gotIdentity)
	}
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, id *Identity) error {
	return ErrTooManyRequests
}

func TestMiddlewareRateLimit(t *testing.T) {
	var called bool
	handler := Middleware(&Chain{Authenticators: []Authenticator{accept("alice")}}, denyLimiter{}, nil)(nextHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, testRequest())
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d", rec.Code)
	}
	if called {
		t.Error("handler must not run for rate-limited requests")
	}
}
