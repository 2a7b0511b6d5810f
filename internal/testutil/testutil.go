package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/platform/crypto"

	"github.com/golang-jwt/jwt/v5"
)

// TestSecret signs tokens in handler tests.
const TestSecret = "test-secret"

// Users and books of the classic barter scenario: Alice holds BookA, Bob
// holds BookB, Carol holds BookC.
const (
	Alice = "user-alice"
	Bob   = "user-bob"
	Carol = "user-carol"

	BookA = "111"
	BookB = "222"
	BookC = "333"
)

var TestBooks = []catalog.Book{
	{ISBN: BookA, Title: "Dune", Author: "Frank Herbert"},
	{ISBN: BookB, Title: "Neuromancer", Author: "William Gibson"},
	{ISBN: BookC, Title: "Hyperion", Author: "Dan Simmons"},
}

// TestHoldings maps each test book to its holder.
func TestHoldings() map[string]string {
	return map[string]string{BookA: Alice, BookB: Bob, BookC: Carol}
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret, userID string) string {
	token, _, _ := crypto.GenerateToken(secret, userID, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret, userID string) string {
	c := crypto.Claims{
		Sub: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestAs creates a request carrying a valid token for userID.
func NewRequestAs(userID, method, path string, body any) *http.Request {
	r := NewRequest(method, path, body)
	r.Header.Set("Authorization", "Bearer "+GenerateTestToken(TestSecret, userID))
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// Data returns the envelope's data object, or nil.
func (r RecordResponse) Data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

// ErrorCode returns the envelope's error code, or "".
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// Do serves r on h and records the response.
func Do(h http.Handler, r *http.Request) RecordResponse {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return RecordHTTPResponse(w)
}
