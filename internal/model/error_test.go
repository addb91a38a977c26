package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesCode(t *testing.T) {
	specific := ErrMissingField.WithMessage("product name is required")

	assert.True(t, errors.Is(specific, ErrMissingField))
	assert.False(t, errors.Is(specific, ErrInvalidInput))
	assert.Equal(t, "product name is required", specific.Error())
	assert.Equal(t, "required field is missing", ErrMissingField.Message, "sentinel must not be mutated")
}

func TestDomainError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("failed to submit: %w", ErrLedgerUnavailable.Wrap(cause))

	assert.True(t, errors.Is(err, ErrLedgerUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, KindConnectivity, KindOf(err))
}

func TestDomainError_ForProduct(t *testing.T) {
	err := ErrSubmissionUncertain.ForProduct("abc")

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "abc", de.ProductID)
	assert.Empty(t, ErrSubmissionUncertain.ProductID)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{ErrExpiryBeforeMfg, KindValidation},
		{ErrNotVerified, KindAuthorization},
		{ErrDuplicateID, KindConflict},
		{ErrScanTimedOut, KindConnectivity},
		{ErrSubmissionUncertain, KindUncertain},
		{ErrMalformedPayload, KindDecode},
		{ErrProductNotFound, KindNotFound},
		{errors.New("boom"), KindInternal},
		{nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
