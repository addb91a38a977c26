package handler

import (
	"errors"
	"io"
	"net/http"

	"veriscan/internal/model"
	"veriscan/internal/service"

	"github.com/rs/zerolog"
)

// maxImageBytes bounds uploaded scan images.
const maxImageBytes = 10 << 20

// VerifyRequest carries a payload read by a client-side scanner.
type VerifyRequest struct {
	Payload string `json:"payload"`
}

// VerificationHandler handles consumer verification requests.
type VerificationHandler struct {
	service service.VerificationService
	logger  zerolog.Logger
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(service service.VerificationService, logger zerolog.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "verification").Logger(),
	}
}

// Verify handles POST /api/verify requests. Every verdict is a 200; only
// lookup failures are errors.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	verdict, err := h.service.Verify(r.Context(), req.Payload)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

// VerifyImage handles POST /api/verify/image requests with a raw PNG or JPEG body.
func (h *VerificationHandler) VerifyImage(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidInput, "image is too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidInput, "failed to read image", h.logger)
		return
	}

	verdict, err := h.service.VerifyImage(r.Context(), image)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}
