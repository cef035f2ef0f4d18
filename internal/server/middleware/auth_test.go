package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts a fixed set of tokens.
type testTokenValidator struct {
	validTokens map[string]string
}

func (v *testTokenValidator) ValidateToken(tokenString string) (SubjectGetter, error) {
	subject, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(subject), nil
}

type testClaims string

func (c testClaims) GetSubject() (string, error) {
	return string(c), nil
}

func newTestHandler(t *testing.T, public ...string) (http.Handler, *string) {
	t.Helper()
	var seen string
	validator := &testTokenValidator{validTokens: map[string]string{
		"valid-token": "editor",
		"no-subject":  "",
	}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSubject(r)
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(validator, public...)(next), &seen
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler, seen := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/figures", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "editor", *seen)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing header", ""},
		{"missing Bearer prefix", "valid-token"},
		{"only Bearer", "Bearer"},
		{"wrong scheme", "Basic valid-token"},
		{"unknown token", "Bearer other"},
		{"empty subject", "Bearer no-subject"},
		{"extra parts", "Bearer valid-token extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, seen := newTestHandler(t)
			req := httptest.NewRequest(http.MethodGet, "/figures", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			assert.Empty(t, *seen)
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	handler, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/figures", nil)
	req.Header.Set("Authorization", "bEaReR valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_PublicPathsAndPreflight(t *testing.T) {
	handler, _ := newTestHandler(t, "/health")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/figures", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetSubject(req)
	require.Error(t, err)

	req = req.WithContext(WithSubject(req.Context(), "editor"))
	subject, err := GetSubject(req)
	require.NoError(t, err)
	assert.Equal(t, "editor", subject)
}
