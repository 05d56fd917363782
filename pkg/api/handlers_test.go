package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/yggdrasil/pkg/index"
)

const testAPIKey = "test-key"

// One router for the whole package: prometheus collectors register against
// the global registry, so NewMetrics must only run once.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	registry, err := index.NewRegistry(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.CloseAll() })

	server := NewServer(registry, ServerConfig{Port: 8080, APIKey: testAPIKey}, testMetrics)
	return server.Routes()
}

var testMetrics = NewMetrics()

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAPI(t *testing.T) {
	router := newTestRouter(t)

	t.Run("missing api key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong api key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/health", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("put get delete", func(t *testing.T) {
		rec := doRequest(t, router, "PUT", "/api/v1/trees/users/keys/42", "1000")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, router, "GET", "/api/v1/trees/users/keys/42", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(42), data["key"])
		assert.Equal(t, float64(1000), data["value"])

		// Re-putting updates the payload.
		rec = doRequest(t, router, "PUT", "/api/v1/trees/users/keys/42", "2000")
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = doRequest(t, router, "GET", "/api/v1/trees/users/keys/42", "")
		resp = decodeResponse(t, rec)
		data = resp.Data.(map[string]interface{})
		assert.Equal(t, float64(2000), data["value"])

		rec = doRequest(t, router, "DELETE", "/api/v1/trees/users/keys/42", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, router, "GET", "/api/v1/trees/users/keys/42", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get missing key", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/trees/users/keys/777", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "not found")
	})

	t.Run("invalid key", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/trees/users/keys/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid value", func(t *testing.T) {
		rec := doRequest(t, router, "PUT", "/api/v1/trees/users/keys/1", "not-a-number")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid tree name", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/trees/../keys/1", "")
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})

	t.Run("dump", func(t *testing.T) {
		for _, k := range []string{"10", "20", "5"} {
			rec := doRequest(t, router, "PUT", "/api/v1/trees/dumped/keys/"+k, k+"0")
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := doRequest(t, router, "GET", "/api/v1/trees/dumped/dump", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "root:")
		assert.Contains(t, rec.Body.String(), "10: 100")
	})

	t.Run("stats", func(t *testing.T) {
		for _, k := range []string{"1", "2", "3", "4", "5"} {
			rec := doRequest(t, router, "PUT", "/api/v1/trees/stats/keys/"+k, k)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := doRequest(t, router, "GET", "/api/v1/trees/stats/stats", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(4), data["order"])
		assert.Equal(t, float64(5), data["keys"])
		assert.GreaterOrEqual(t, data["nodes"], float64(1))
		assert.GreaterOrEqual(t, data["height"], float64(1))
	})

	t.Run("check", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/trees/users/check", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
	})

	t.Run("list trees", func(t *testing.T) {
		rec := doRequest(t, router, "GET", "/api/v1/trees", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		trees := data["trees"].([]interface{})
		assert.Contains(t, trees, "users")
	})

	t.Run("metrics endpoint is unprotected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/metrics", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "yggdrasil_")
	})
}
