package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"veriscan/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerificationHandler_Verify(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		payload         string
		mockVerdict     *model.Verdict
		mockError       error
		expectService   bool
		expectedStatus  int
		expectedVerdict model.VerdictStatus
	}{
		{
			name:            "Genuine",
			body:            `{"payload":"token"}`,
			payload:         "token",
			mockVerdict:     &model.Verdict{Status: model.VerdictGenuine, ProductID: productID},
			expectService:   true,
			expectedStatus:  http.StatusOK,
			expectedVerdict: model.VerdictGenuine,
		},
		{
			name:            "Invalid token is still a verdict",
			body:            `{"payload":"garbage"}`,
			payload:         "garbage",
			mockVerdict:     &model.Verdict{Status: model.VerdictInvalidToken, Reason: "scanned payload is not a valid verification token"},
			expectService:   true,
			expectedStatus:  http.StatusOK,
			expectedVerdict: model.VerdictInvalidToken,
		},
		{
			name:           "Lookup timed out",
			body:           `{"payload":"token"}`,
			payload:        "token",
			mockError:      model.ErrLookupTimedOut,
			expectService:  true,
			expectedStatus: http.StatusGatewayTimeout,
		},
		{
			name:           "Invalid body",
			body:           `[`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockVerificationService)
			if tt.expectService {
				svc.On("Verify", mock.Anything, tt.payload).Return(tt.mockVerdict, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/verify", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			NewVerificationHandler(svc, zerolog.Nop()).Verify(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedVerdict != "" {
				var got model.Verdict
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.expectedVerdict, got.Status)
			}
		})
	}
}

func TestVerificationHandler_VerifyImage(t *testing.T) {
	image := []byte("fake-png-bytes")

	t.Run("Verdict", func(t *testing.T) {
		svc := new(MockVerificationService)
		svc.On("VerifyImage", mock.Anything, image).Return(&model.Verdict{Status: model.VerdictNotRegistered}, nil)

		w := httptest.NewRecorder()
		NewVerificationHandler(svc, zerolog.Nop()).VerifyImage(w, httptest.NewRequest(http.MethodPost, "/api/verify/image", bytes.NewReader(image)))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(model.VerdictNotRegistered))
	})

	t.Run("No code found", func(t *testing.T) {
		svc := new(MockVerificationService)
		svc.On("VerifyImage", mock.Anything, image).Return(nil, model.ErrScanTimedOut)

		w := httptest.NewRecorder()
		NewVerificationHandler(svc, zerolog.Nop()).VerifyImage(w, httptest.NewRequest(http.MethodPost, "/api/verify/image", bytes.NewReader(image)))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Too large", func(t *testing.T) {
		svc := new(MockVerificationService)

		w := httptest.NewRecorder()
		big := bytes.NewReader(make([]byte, maxImageBytes+1))
		NewVerificationHandler(svc, zerolog.Nop()).VerifyImage(w, httptest.NewRequest(http.MethodPost, "/api/verify/image", big))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		svc.AssertNotCalled(t, "VerifyImage", mock.Anything, mock.Anything)
	})
}
