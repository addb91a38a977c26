package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"veriscan/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps err onto a status and error body. Errors that are not
// DomainErrors are reported as internal without exposing their text.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unclassified error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(de)
	level := zerolog.WarnLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.ErrorLevel
	}
	logger.WithLevel(level).Err(err).Str("error", de.Code).Int("status", status).Str("product_id", de.ProductID).Msg("request failed")

	writeJSON(w, status, model.ErrorResponse{
		Error:     de.Code,
		Message:   de.Message,
		ProductID: de.ProductID,
	})
}

func statusFor(de *model.DomainError) int {
	switch de.Kind {
	case model.KindValidation, model.KindDecode:
		return http.StatusBadRequest
	case model.KindAuthorization:
		if de.Code == model.ErrCodeUnauthorised {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case model.KindConflict:
		return http.StatusConflict
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindUncertain:
		return http.StatusGatewayTimeout
	case model.KindConnectivity:
		switch de.Code {
		case model.ErrCodeLookupTimedOut:
			return http.StatusGatewayTimeout
		case model.ErrCodeScanTimedOut, model.ErrCodeScanCancelled:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusServiceUnavailable
		}
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ErrMissingField.WithMessage("request body is required")
		}
		var de *model.DomainError
		if errors.As(err, &de) {
			return err
		}
		return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "invalid request body").Wrap(err)
	}
	return nil
}
