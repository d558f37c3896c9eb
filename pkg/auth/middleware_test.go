package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testJWTSecret = "super-secret-jwt-key-for-tests-0123456789"

func signJWT(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return tok
}

func TestRequireBearer_NoHeader_Returns401(t *testing.T) {
	mw := RequireBearer(NewVerifier([]string{"key"}, ""))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestRequireBearer_WrongScheme_Returns401(t *testing.T) {
	mw := RequireBearer(NewVerifier([]string{"key"}, ""))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic key")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireBearer_InvalidKey_Returns401(t *testing.T) {
	mw := RequireBearer(NewVerifier([]string{"key"}, ""))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-the-key")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireBearer_ValidKey_CallsNextWithSubject(t *testing.T) {
	mw := RequireBearer(NewVerifier([]string{"other", "key"}, ""))

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer key")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotSubject != APIKeySubject {
		t.Errorf("expected subject=%q, got %q", APIKeySubject, gotSubject)
	}
}

func TestRequireBearer_ValidJWT_CallsNextWithSubject(t *testing.T) {
	mw := RequireBearer(NewVerifier(nil, testJWTSecret))
	token := signJWT(t, testJWTSecret, jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	var gotSubject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "owner" {
		t.Errorf("expected subject=owner, got %q", gotSubject)
	}
}

func TestVerifier_ExpiredJWT(t *testing.T) {
	v := NewVerifier(nil, testJWTSecret)
	token := signJWT(t, testJWTSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestVerifier_JWTWrongSecret(t *testing.T) {
	v := NewVerifier(nil, testJWTSecret)
	token := signJWT(t, "a-completely-different-secret-value!!", jwt.RegisteredClaims{})

	if _, err := v.Verify(token); err == nil {
		t.Error("expected error for token signed with another secret")
	}
}

func TestVerifier_JWTWithoutSubject(t *testing.T) {
	v := NewVerifier(nil, testJWTSecret)
	token := signJWT(t, testJWTSecret, jwt.RegisteredClaims{})

	sub, err := v.Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != "jwt" {
		t.Errorf("expected fallback subject jwt, got %q", sub)
	}
}

func TestVerifier_NotConfigured(t *testing.T) {
	v := NewVerifier([]string{""}, "")
	if v.Enabled() {
		t.Error("expected verifier with only empty keys to be disabled")
	}
	if _, err := v.Verify("anything"); err != ErrNoCredentials {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestDevAuth_SetsDevSubject(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := SubjectFromContext(r.Context())
		if !ok {
			t.Error("subject not in context")
			return
		}
		if subject != DevSubject {
			t.Errorf("expected %q, got %q", DevSubject, subject)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	DevAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
