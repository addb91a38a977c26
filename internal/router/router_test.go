package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veriscan/internal/handler"
	"veriscan/internal/identifier"
	"veriscan/internal/ledger"
	"veriscan/internal/model"
	"veriscan/internal/registry"
	"veriscan/internal/scan"
	"veriscan/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "router-test-key"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	admin := model.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	node := ledger.NewNode(ledger.NewMemoryStore(), ledger.NewRegistryContract(admin), ledger.NodeConfig{}, logger)
	t.Cleanup(node.Close)
	client := registry.NewClient(node, registry.DefaultConfig(), logger)

	verification := service.NewVerificationService(client, scan.NewScanner(scan.DefaultWindow, logger), 0, logger)
	t.Cleanup(verification.Wait)

	return New(Handlers{
		Product:      handler.NewProductHandler(service.NewRegistrationService(client, identifier.Default(), nil, 128, logger), logger),
		Manufacturer: handler.NewManufacturerHandler(service.NewManufacturerService(client, logger), logger),
		Verification: handler.NewVerificationHandler(verification, logger),
	}, testAPIKey, logger)
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		expectedStatus int
	}{
		{name: "Health", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "Verify without key", method: http.MethodPost, path: "/api/verify", expectedStatus: http.StatusBadRequest},
		{name: "Products without key", method: http.MethodGet, path: "/api/products", expectedStatus: http.StatusUnauthorized},
		{name: "Products without caller", method: http.MethodGet, path: "/api/products", apiKey: testAPIKey, expectedStatus: http.StatusUnauthorized},
		{name: "Unknown product", method: http.MethodGet, path: "/api/products/8c1d4e2f-3a5b-4c6d-9e7f-0a1b2c3d4e5f", apiKey: testAPIKey, expectedStatus: http.StatusNotFound},
		{name: "Wrong method", method: http.MethodDelete, path: "/api/products", apiKey: testAPIKey, expectedStatus: http.StatusMethodNotAllowed},
		{name: "Unknown route", method: http.MethodGet, path: "/api/orders", apiKey: testAPIKey, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_VerifyUnregisteredToken(t *testing.T) {
	r := newTestRouter(t)
	body := `{"payload":"{\"uniqueProductId\":\"8c1d4e2f-3a5b-4c6d-9e7f-0a1b2c3d4e5f\",\"manufacturerName\":\"Acme\",\"batchNumber\":\"BAT-1\",\"productName\":\"Watch\",\"manufacturingDate\":\"2024-01-01\",\"expiryDate\":\"\",\"submissionReceipt\":\"0x1\"}"}`

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(model.VerdictNotRegistered))
}
