package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	ProductID     string `json:"productId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// ErrorKind classifies a DomainError for propagation and user-facing handling.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	// KindValidation is bad or missing input caught before any external call.
	KindValidation
	// KindAuthorization is a caller lacking the required role or state.
	KindAuthorization
	// KindConflict is a duplicate identifier or an already registered entity.
	KindConflict
	// KindConnectivity is an unreachable ledger or device. Retryable with backoff.
	KindConnectivity
	// KindUncertain is a submission that was sent but never confirmed.
	KindUncertain
	// KindDecode is a malformed scanned payload.
	KindDecode
	// KindNotFound is a lookup that found nothing where a record was required.
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindConnectivity:
		return "connectivity"
	case KindUncertain:
		return "uncertain_outcome"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Standard error codes for API responses
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidCategory      = "INVALID_CATEGORY"
	ErrCodeExpiryBeforeMfg      = "EXPIRY_BEFORE_MANUFACTURING"
	ErrCodeInvalidAddress       = "INVALID_ADDRESS"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeNotVerified          = "NOT_VERIFIED"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeDuplicateID          = "DUPLICATE_ID"
	ErrCodeAlreadyRegistered    = "ALREADY_REGISTERED"
	ErrCodeLedgerUnavailable    = "LEDGER_UNAVAILABLE"
	ErrCodeLookupTimedOut       = "LOOKUP_TIMED_OUT"
	ErrCodeScanTimedOut         = "SCAN_TIMED_OUT"
	ErrCodeScanCancelled        = "SCAN_CANCELLED"
	ErrCodeDeviceUnavailable    = "DEVICE_UNAVAILABLE"
	ErrCodeSubmissionUncertain  = "SUBMISSION_UNCERTAIN"
	ErrCodeMalformedPayload     = "MALFORMED_PAYLOAD"
	ErrCodeMissingTokenField    = "MISSING_TOKEN_FIELD"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeManufacturerNotFound = "MANUFACTURER_NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is a classified business error. Two DomainErrors match under
// errors.Is when their codes are equal, so sentinels survive rewrapping.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	// ProductID is set on submission errors so callers can check the ledger before retrying.
	ProductID string
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of e carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	c := *e
	c.Err = cause
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// ForProduct returns a copy of e tagged with the product id it concerns.
func (e *DomainError) ForProduct(id string) *DomainError {
	c := *e
	c.ProductID = id
	return &c
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common domain errors
var (
	ErrInvalidInput        = NewDomainError(KindValidation, ErrCodeInvalidInput, "invalid input")
	ErrMissingField        = NewDomainError(KindValidation, ErrCodeMissingField, "required field is missing")
	ErrInvalidCategory     = NewDomainError(KindValidation, ErrCodeInvalidCategory, "unknown product category")
	ErrExpiryBeforeMfg     = NewDomainError(KindValidation, ErrCodeExpiryBeforeMfg, "expiry before manufacturing")
	ErrInvalidAddress      = NewDomainError(KindValidation, ErrCodeInvalidAddress, "invalid account address")
	ErrUnauthorised        = NewDomainError(KindAuthorization, ErrCodeUnauthorised, "caller is not authorised for this operation")
	ErrNotVerified         = NewDomainError(KindAuthorization, ErrCodeNotVerified, "manufacturer is not verified")
	ErrInvalidState        = NewDomainError(KindAuthorization, ErrCodeInvalidState, "operation is not allowed in the current manufacturer state")
	ErrForbidden           = NewDomainError(KindAuthorization, ErrCodeForbidden, "role does not permit this operation")
	ErrDuplicateID         = NewDomainError(KindConflict, ErrCodeDuplicateID, "a product with this id is already registered")
	ErrAlreadyRegistered   = NewDomainError(KindConflict, ErrCodeAlreadyRegistered, "manufacturer is already registered")
	ErrLedgerUnavailable   = NewDomainError(KindConnectivity, ErrCodeLedgerUnavailable, "ledger is unavailable, try again later")
	ErrLookupTimedOut      = NewDomainError(KindConnectivity, ErrCodeLookupTimedOut, "ledger lookup timed out, try again later")
	ErrScanTimedOut        = NewDomainError(KindConnectivity, ErrCodeScanTimedOut, "no QR code was found in time, try again")
	ErrScanCancelled       = NewDomainError(KindConnectivity, ErrCodeScanCancelled, "scan was cancelled")
	ErrDeviceUnavailable   = NewDomainError(KindConnectivity, ErrCodeDeviceUnavailable, "scanning device is unavailable")
	ErrSubmissionUncertain = NewDomainError(KindUncertain, ErrCodeSubmissionUncertain,
		"submission was sent but not confirmed; check the product id on the ledger before retrying, a retry may create a duplicate attempt")
	ErrMalformedPayload     = NewDomainError(KindDecode, ErrCodeMalformedPayload, "scanned payload is not a valid verification token")
	ErrMissingTokenField    = NewDomainError(KindDecode, ErrCodeMissingTokenField, "scanned payload is missing a required field")
	ErrProductNotFound      = NewDomainError(KindNotFound, ErrCodeProductNotFound, "product not found")
	ErrManufacturerNotFound = NewDomainError(KindNotFound, ErrCodeManufacturerNotFound, "manufacturer not registered")
)
