package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testAPIKey = "test-service-api-key"

// TestAPIKeyMiddleware_BearerToken_Allows は正しいBearerトークンでリクエストが通ることを検証する。
func TestAPIKeyMiddleware_BearerToken_Allows(t *testing.T) {
	mw := NewAPIKeyMiddleware(testAPIKey)

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !handlerCalled {
		t.Error("handler should have been called")
	}
}

// TestAPIKeyMiddleware_XApiKeyHeader_Allows はX-Api-Keyヘッダーでも認証できることを検証する。
func TestAPIKeyMiddleware_XApiKeyHeader_Allows(t *testing.T) {
	mw := NewAPIKeyMiddleware(testAPIKey)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("X-Api-Key", testAPIKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// TestAPIKeyMiddleware_MissingKey_Returns401 はキーなしのリクエストが401で拒否されることを検証する。
func TestAPIKeyMiddleware_MissingKey_Returns401(t *testing.T) {
	mw := NewAPIKeyMiddleware(testAPIKey)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.OK {
		t.Error("ok should be false")
	}
	if body.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want %q", body.Code, "UNAUTHORIZED")
	}
}

// TestAPIKeyMiddleware_WrongKey_Returns401 は不一致のキーが401で拒否されることを検証する。
func TestAPIKeyMiddleware_WrongKey_Returns401(t *testing.T) {
	mw := NewAPIKeyMiddleware(testAPIKey)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// TestAPIKeyMiddleware_BearerTakesPrecedence はBearerとX-Api-Keyの両方がある場合に
// Bearerが優先されることを検証する。
func TestAPIKeyMiddleware_BearerTakesPrecedence(t *testing.T) {
	mw := NewAPIKeyMiddleware(testAPIKey)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Bearerが不正なら、X-Api-Keyが正しくても拒否される
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	req.Header.Set("X-Api-Key", testAPIKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
