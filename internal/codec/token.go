package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"veriscan/internal/model"
)

// Token payload keys, in canonical order.
const (
	keyProductID         = "uniqueProductId"
	keyManufacturerName  = "manufacturerName"
	keyBatchNumber       = "batchNumber"
	keyProductName       = "productName"
	keyManufacturingDate = "manufacturingDate"
	keyExpiryDate        = "expiryDate"
	keySubmissionReceipt = "submissionReceipt"

	// legacyReceiptKey is the receipt key written by earlier QR generators.
	legacyReceiptKey = "transactionHash"
)

var requiredTokenKeys = []string{
	keyProductID,
	keyManufacturerName,
	keyBatchNumber,
	keyProductName,
	keyManufacturingDate,
	keyExpiryDate,
	keySubmissionReceipt,
}

// tokenPayload fixes the serialised key order; encoding/json emits struct fields in declaration order.
type tokenPayload struct {
	UniqueProductID   string `json:"uniqueProductId"`
	ManufacturerName  string `json:"manufacturerName"`
	BatchNumber       string `json:"batchNumber"`
	ProductName       string `json:"productName"`
	ManufacturingDate string `json:"manufacturingDate"`
	ExpiryDate        string `json:"expiryDate"`
	SubmissionReceipt string `json:"submissionReceipt"`
}

// TokenFor builds the verification token for a committed product.
func TokenFor(record model.ProductRecord, manufacturerName string, receipt model.Receipt) model.VerificationToken {
	return model.VerificationToken{
		UniqueProductID:   record.UniqueProductID,
		ManufacturerName:  manufacturerName,
		BatchNumber:       record.BatchNumber,
		ProductName:       record.Name,
		ManufacturingDate: model.TruncateDate(record.ManufacturingDate),
		ExpiryDate:        truncateOptional(record.ExpiryDate),
		SubmissionReceipt: receipt.TxHash,
	}
}

// EncodeToken serialises a token to the canonical QR payload.
func EncodeToken(token model.VerificationToken) (string, error) {
	payload := tokenPayload{
		UniqueProductID:   token.UniqueProductID,
		ManufacturerName:  token.ManufacturerName,
		BatchNumber:       token.BatchNumber,
		ProductName:       token.ProductName,
		ManufacturingDate: model.FormatDate(token.ManufacturingDate),
		ExpiryDate:        model.FormatDate(token.ExpiryDate),
		SubmissionReceipt: token.SubmissionReceipt,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeToken parses a scanned QR payload. Unknown keys are ignored.
func DecodeToken(raw string) (model.VerificationToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.VerificationToken{}, model.ErrMalformedPayload.WithMessage("scanned payload is empty")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return model.VerificationToken{}, model.ErrMalformedPayload.Wrap(err)
	}

	if _, ok := fields[keySubmissionReceipt]; !ok {
		if legacy, ok := fields[legacyReceiptKey]; ok {
			fields[keySubmissionReceipt] = legacy
		}
	}

	values := make(map[string]string, len(requiredTokenKeys))
	for _, key := range requiredTokenKeys {
		rawValue, ok := fields[key]
		if !ok {
			return model.VerificationToken{}, model.ErrMissingTokenField.WithMessage("scanned payload is missing %q", key)
		}
		var s *string
		if err := json.Unmarshal(rawValue, &s); err != nil {
			return model.VerificationToken{}, model.ErrMalformedPayload.WithMessage("field %q must be a string", key)
		}
		if s != nil {
			values[key] = *s
		}
	}

	if values[keyProductID] == "" {
		return model.VerificationToken{}, model.ErrMissingTokenField.WithMessage("scanned payload has an empty %q", keyProductID)
	}

	mfg, err := parseOptionalDate(values[keyManufacturingDate])
	if err != nil {
		return model.VerificationToken{}, model.ErrMalformedPayload.WithMessage("field %q is not a date", keyManufacturingDate)
	}
	expiry, err := parseOptionalDate(values[keyExpiryDate])
	if err != nil {
		return model.VerificationToken{}, model.ErrMalformedPayload.WithMessage("field %q is not a date", keyExpiryDate)
	}

	return model.VerificationToken{
		UniqueProductID:   values[keyProductID],
		ManufacturerName:  values[keyManufacturerName],
		BatchNumber:       values[keyBatchNumber],
		ProductName:       values[keyProductName],
		ManufacturingDate: mfg,
		ExpiryDate:        expiry,
		SubmissionReceipt: values[keySubmissionReceipt],
	}, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseDate(s)
}

func truncateOptional(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return model.TruncateDate(t)
}
