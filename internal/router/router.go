package router

import (
	"net/http"

	"veriscan/internal/handler"
	"veriscan/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Product      *handler.ProductHandler
	Manufacturer *handler.ManufacturerHandler
	Verification *handler.VerificationHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/verify", h.Verification.Verify).Methods(http.MethodPost)
	api.HandleFunc("/verify/image", h.Verification.VerifyImage).Methods(http.MethodPost)

	api.HandleFunc("/manufacturers", h.Manufacturer.Register).Methods(http.MethodPost)
	api.HandleFunc("/manufacturers/me", h.Manufacturer.Me).Methods(http.MethodGet)
	api.HandleFunc("/manufacturers/me/verification-request", h.Manufacturer.RequestVerification).Methods(http.MethodPost)

	api.HandleFunc("/products", h.Product.Create).Methods(http.MethodPost)
	api.HandleFunc("/products", h.Product.List).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.Product.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}/qr", h.Product.QRCode).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/manufacturers", h.Manufacturer.List).Methods(http.MethodGet)
	admin.HandleFunc("/manufacturers/{address}/flags", h.Manufacturer.SetFlags).Methods(http.MethodPut)
	admin.HandleFunc("/stats", h.Manufacturer.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/products", h.Manufacturer.Products).Methods(http.MethodGet)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> Identity
	var handler http.Handler = r
	handler = middleware.Identity(logger)(handler)
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
