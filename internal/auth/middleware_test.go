package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/auth"
	"github.com/grupovitta/backoffice-api/internal/config"
	"github.com/grupovitta/backoffice-api/internal/domain"
)

const testIssuer = "https://login.test.grupovitta.com.br/"

func createTestConfig(jwksURL, apiKey string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			Issuer:   testIssuer,
			Audience: "backoffice-api",
			JWKSURL:  jwksURL,
		},
		ApiKey: config.ApiKeyConfig{
			Value: apiKey,
		},
	}
}

func createTestMiddleware(jwksURL, apiKey string) *auth.Middleware {
	return auth.NewMiddleware(createTestConfig(jwksURL, apiKey), zap.NewNop())
}

// newJWKSServer serves the public half of the given key as a JWKS document
func newJWKSServer(privateKey *rsa.PrivateKey, kid string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := base64.RawURLEncoding.EncodeToString(privateKey.PublicKey.N.Bytes())
		e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.PublicKey.E)).Bytes())
		jwks := map[string]interface{}{
			"keys": []map[string]interface{}{
				{"kty": "RSA", "use": "sig", "kid": kid, "n": n, "e": e, "alg": "RS256"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
}

func signTestToken(t *testing.T, privateKey *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	tokenString, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return tokenString
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	apiKey := "test-api-key-12345"
	middleware := createTestMiddleware("http://localhost", apiKey)

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("x-api-key", apiKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
	assert.Equal(t, "system@grupovitta.com.br", capturedUserCtx.Email)
	assert.True(t, capturedUserCtx.HasRole(domain.RoleAdmin))
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "correct-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("x-api-key", "wrong-key")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithJWT(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kid := "test-key-id"

	server := newJWKSServer(privateKey, kid)
	defer server.Close()

	middleware := createTestMiddleware(server.URL, "")

	tokenString := signTestToken(t, privateKey, kid, jwt.MapClaims{
		"aud":   "backoffice-api",
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"oid":   "12345678-1234-1234-1234-123456789012",
		"name":  "Test User",
		"email": "test@example.com",
		"roles": []string{"backoffice"},
	})

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "Test User", capturedUserCtx.DisplayName)
	assert.Equal(t, "test@example.com", capturedUserCtx.Email)
	assert.Equal(t, "12345678-1234-1234-1234-123456789012", capturedUserCtx.UserID.String())
	assert.True(t, capturedUserCtx.HasRole(domain.RoleBackoffice))
}

func TestMiddleware_Authenticate_WrongAudience(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kid := "test-key-id"

	server := newJWKSServer(privateKey, kid)
	defer server.Close()

	middleware := createTestMiddleware(server.URL, "")

	tokenString := signTestToken(t, privateKey, kid, jwt.MapClaims{
		"aud": "some-other-api",
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kid := "test-key-id"

	server := newJWKSServer(privateKey, kid)
	defer server.Close()

	middleware := createTestMiddleware(server.URL, "")

	tokenString := signTestToken(t, privateKey, kid, jwt.MapClaims{
		"aud": "backoffice-api",
		"iss": testIssuer,
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_MissingAuth(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_InvalidBearerFormat(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no bearer prefix", "some-token"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, handlerCalled)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_RequireRole_HasRole(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleAdmin, domain.RoleBackoffice)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleBackoffice},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireRole_MissingRole(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleReadonly},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequireRole_NoUserContext(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleReadonly)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequirePermission_HasPermission(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequirePermission(domain.PermissionContractsRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	// Readonly role has contracts:read permission
	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleReadonly},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequirePermission_MissingPermission(t *testing.T) {
	middleware := createTestMiddleware("http://localhost", "test-key")

	handlerCalled := false
	handler := middleware.RequirePermission(domain.PermissionContractsForceDelete)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	// Backoffice role cannot permanently delete contracts
	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleBackoffice},
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/contracts/123", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_APIKeyPriority(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kid := "test-key-id"

	server := newJWKSServer(privateKey, kid)
	defer server.Close()

	apiKey := "test-api-key"
	middleware := createTestMiddleware(server.URL, apiKey)

	tokenString := signTestToken(t, privateKey, kid, jwt.MapClaims{
		"aud":   "backoffice-api",
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"oid":   "12345678-1234-1234-1234-123456789012",
		"name":  "JWT User",
		"email": "jwt@example.com",
	})

	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Send request with BOTH API key and JWT - API key should take priority
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
}
