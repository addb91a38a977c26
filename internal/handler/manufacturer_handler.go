package handler

import (
	"net/http"

	"veriscan/internal/middleware"
	"veriscan/internal/model"
	"veriscan/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ManufacturerHandler handles the manufacturer lifecycle and admin requests.
type ManufacturerHandler struct {
	service service.ManufacturerService
	logger  zerolog.Logger
}

// NewManufacturerHandler creates a new manufacturer handler.
func NewManufacturerHandler(service service.ManufacturerService, logger zerolog.Logger) *ManufacturerHandler {
	return &ManufacturerHandler{
		service: service,
		logger:  logger.With().Str("handler", "manufacturer").Logger(),
	}
}

// Register handles POST /api/manufacturers requests.
func (h *ManufacturerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var profile model.ManufacturerProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	rec, err := h.service.Register(r.Context(), middleware.SessionFrom(r.Context()), profile)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// Me handles GET /api/manufacturers/me requests.
func (h *ManufacturerHandler) Me(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// RequestVerification handles POST /api/manufacturers/me/verification-request requests.
func (h *ManufacturerHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.RequestVerification(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusAccepted, rec)
}

// List handles GET /api/admin/manufacturers requests.
func (h *ManufacturerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if list == nil {
		list = []model.ManufacturerRecord{}
	}

	writeJSON(w, http.StatusOK, list)
}

// SetFlags handles PUT /api/admin/manufacturers/{address}/flags requests.
func (h *ManufacturerHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	target, err := model.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var flags model.TrustFlags
	if err := decodeJSON(w, r, &flags); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	rec, err := h.service.SetTrustFlags(r.Context(), middleware.SessionFrom(r.Context()), target, flags)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// Stats handles GET /api/admin/stats requests.
func (h *ManufacturerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Products handles GET /api/admin/products requests.
func (h *ManufacturerHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if products == nil {
		products = []model.ProductRecord{}
	}

	writeJSON(w, http.StatusOK, products)
}
