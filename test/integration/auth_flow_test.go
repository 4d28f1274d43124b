//go:build integration
// +build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedauth/internal/authreq"
	"fedauth/internal/device"
	"fedauth/internal/handler"
	"fedauth/internal/middleware"
	"fedauth/pkg/logger"
	"fedauth/pkg/validator"
)

func newBrokerRouter() *mux.Router {
	log := logger.NewNop()
	registry := device.NewRegistry()
	store := authreq.NewStore()
	demo := authreq.NewDemoGenerator(30 * time.Second)
	service := authreq.NewService(registry, store, demo, nil, log)
	val := validator.New()

	deviceHandler := handler.NewDeviceHandler(registry, val, nil, log)
	pollHandler := handler.NewPollHandler(service, log)
	respondHandler := handler.NewRespondHandler(service, val, log)
	adminHandler := handler.NewAdminHandler(registry, store)
	systemHandler := handler.NewSystemHandler(registry, store)

	r := mux.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

	r.HandleFunc("/api/register", deviceHandler.Register).Methods("POST")
	r.HandleFunc("/api/poll/{deviceId}", pollHandler.Poll).Methods("GET")
	r.HandleFunc("/api/respond", respondHandler.Respond).Methods("POST")
	r.HandleFunc("/api/admin/requests", adminHandler.Requests).Methods("GET")
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	return r
}

func postJSON(t *testing.T, router *mux.Router, path string, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestCompleteAuthFlow(t *testing.T) {
	router := newBrokerRouter()

	// Step 1: Register device
	t.Run("Register Device", func(t *testing.T) {
		w, resp := postJSON(t, router, "/api/register", map[string]interface{}{
			"deviceId":  "integration-device",
			"userId":    "user-1",
			"accountId": "acct-1",
			"appName":   "Integration App",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	var requestID string

	// Step 2: Poll picks up a synthesized request immediately
	t.Run("Poll For Requests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/poll/integration-device", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success  bool `json:"success"`
			Requests []struct {
				RequestID string `json:"requestId"`
				AppName   string `json:"appName"`
			} `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Requests, 1)
		assert.Equal(t, "Integration App", resp.Requests[0].AppName)
		requestID = resp.Requests[0].RequestID
	})

	// Step 3: Approve it
	t.Run("Approve Request", func(t *testing.T) {
		w, resp := postJSON(t, router, "/api/respond", map[string]interface{}{
			"requestId": requestID,
			"deviceId":  "integration-device",
			"response":  "approved",
			"signature": "integration-signature",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "approved", resp["status"])
	})

	// Step 4: A second response is rejected
	t.Run("Duplicate Response Rejected", func(t *testing.T) {
		w, resp := postJSON(t, router, "/api/respond", map[string]interface{}{
			"requestId": requestID,
			"deviceId":  "integration-device",
			"response":  "denied",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Request already processed", resp["error"])
		assert.Equal(t, "approved", resp["status"])
	})

	// Step 5: Admin view shows the terminal record
	t.Run("Admin Request View", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count    int `json:"count"`
			Requests []struct {
				RequestID string `json:"requestId"`
				Status    string `json:"status"`
				Signature string `json:"signature"`
			} `json:"requests"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, requestID, resp.Requests[0].RequestID)
		assert.Equal(t, "approved", resp.Requests[0].Status)
		assert.Equal(t, "integration-signature", resp.Requests[0].Signature)
	})
}
