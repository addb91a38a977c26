package model

import "time"

// DateLayout is the calendar-date layout used on the wire and in QR payloads.
const DateLayout = "2006-01-02"

// ProductRecord represents one registered physical product as stored on the ledger.
type ProductRecord struct {
	UniqueProductID   string    `json:"uniqueProductId"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Category          Category  `json:"category"`
	BatchNumber       string    `json:"batchNumber"`
	SerialNumber      string    `json:"serialNumber"`
	ManufacturingDate time.Time `json:"manufacturingDate"`
	// ExpiryDate is the zero time when the product does not expire.
	ExpiryDate   time.Time `json:"expiryDate,omitzero"`
	OwnerAddress Address   `json:"ownerAddress"`
	IsVerified   bool      `json:"isVerified"`
	IsFlagged    bool      `json:"isFlagged"`
	ScannedCount uint64    `json:"scannedCount"`
	RegisteredAt time.Time `json:"registeredAt"`
	// RegistrationTx is the hash of the transaction that created the record.
	RegistrationTx string `json:"registrationTx,omitempty"`
}

// HasExpiry reports whether an expiry date was supplied.
func (p *ProductRecord) HasExpiry() bool {
	return !p.ExpiryDate.IsZero()
}

// ProductInput is the manufacturer-entered data for a new product.
// Identifier fields may be left empty and are generated by the registration workflow.
type ProductInput struct {
	UniqueProductID   string `json:"uniqueProductId,omitempty"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	BatchNumber       string `json:"batchNumber,omitempty"`
	SerialNumber      string `json:"serialNumber,omitempty"`
	ManufacturingDate string `json:"manufacturingDate"`
	ExpiryDate        string `json:"expiryDate,omitempty"`
}

// RegistrationResult is returned to a manufacturer after a confirmed registration.
type RegistrationResult struct {
	Token   string        `json:"token"`
	Product ProductRecord `json:"product"`
	Receipt Receipt       `json:"receipt"`
}

// ParseDate parses a calendar date in DateLayout. Full RFC 3339 timestamps are
// accepted and truncated to their UTC date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateDate(t), nil
}

// TruncateDate drops the time of day, keeping the UTC calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats t in DateLayout, or returns "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
