package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func testGuard() *Guard {
	return NewGuard(map[string]string{
		"training-key-001": "Training User 1",
		"demo-api-key-123": "Demo User",
	})
}

func TestGuard_Authenticate(t *testing.T) {
	tests := []struct {
		name         string
		headers      map[string]string
		wantIdentity string
		wantErr      error
	}{
		{
			name:         "api key header",
			headers:      map[string]string{"X-API-Key": "demo-api-key-123"},
			wantIdentity: "Demo User",
		},
		{
			name:         "bearer token",
			headers:      map[string]string{"Authorization": "Bearer demo-api-key-123"},
			wantIdentity: "Demo User",
		},
		{
			name:         "bearer scheme is case insensitive",
			headers:      map[string]string{"Authorization": "bEaReR training-key-001"},
			wantIdentity: "Training User 1",
		},
		{
			name: "api key header takes precedence",
			headers: map[string]string{
				"X-API-Key":     "training-key-001",
				"Authorization": "Bearer demo-api-key-123",
			},
			wantIdentity: "Training User 1",
		},
		{
			name: "invalid api key does not fall through to bearer",
			headers: map[string]string{
				"X-API-Key":     "wrong",
				"Authorization": "Bearer demo-api-key-123",
			},
			wantErr: ErrInvalidKey,
		},
		{
			name: "empty api key header does not fall through to bearer",
			headers: map[string]string{
				"X-API-Key":     "",
				"Authorization": "Bearer demo-api-key-123",
			},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "no credentials",
			headers: map[string]string{},
			wantErr: ErrAuthenticationRequired,
		},
		{
			name:    "basic scheme is malformed",
			headers: map[string]string{"Authorization": "Basic xyz"},
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:    "bearer without token",
			headers: map[string]string{"Authorization": "Bearer"},
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:    "bearer with trailing space",
			headers: map[string]string{"Authorization": "Bearer "},
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:    "too many parts",
			headers: map[string]string{"Authorization": "Bearer demo-api-key-123 extra"},
			wantErr: ErrMalformedAuthorization,
		},
		{
			name:    "unknown bearer token",
			headers: map[string]string{"Authorization": "Bearer nope"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "key comparison is case sensitive",
			headers: map[string]string{"X-API-Key": "DEMO-API-KEY-123"},
			wantErr: ErrInvalidKey,
		},
	}

	guard := testGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			identity, err := guard.Authenticate(h)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				if !errors.Is(err, ErrUnauthorized) {
					t.Errorf("expected error to wrap ErrUnauthorized, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if identity != tt.wantIdentity {
				t.Errorf("expected identity %q, got %q", tt.wantIdentity, identity)
			}
		})
	}
}

func TestNewGuard_CopiesAllowList(t *testing.T) {
	keys := map[string]string{"k": "User"}
	guard := NewGuard(keys)
	delete(keys, "k")

	h := http.Header{}
	h.Set(HeaderAPIKey, "k")
	if _, err := guard.Authenticate(h); err != nil {
		t.Errorf("expected guard to keep its own copy of the allow-list, got %v", err)
	}
}

func TestReason(t *testing.T) {
	tests := map[error]string{
		ErrAuthenticationRequired: "missing",
		ErrMalformedAuthorization: "malformed",
		ErrInvalidKey:             "invalid_key",
		errors.New("other"):       "unknown",
	}

	for err, want := range tests {
		if got := Reason(err); got != want {
			t.Errorf("Reason(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("expected no identity in empty context")
	}

	ctx := ContextWithIdentity(context.Background(), "Demo User")
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity != "Demo User" {
		t.Errorf("expected Demo User, got %q (ok=%v)", identity, ok)
	}
}
