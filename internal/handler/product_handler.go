package handler

import (
	"net/http"

	"veriscan/internal/middleware"
	"veriscan/internal/model"
	"veriscan/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ProductHandler handles product registration and lookup requests.
type ProductHandler struct {
	service service.RegistrationService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.RegistrationService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	result, err := h.service.Register(r.Context(), middleware.SessionFrom(r.Context()), input)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// List handles GET /api/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListOwn(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if products == nil {
		products = []model.ProductRecord{}
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if product == nil {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// QRCode handles GET /api/products/{id}/qr requests.
func (h *ProductHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	png, err := h.service.QRCode(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+id+`.png"`)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
