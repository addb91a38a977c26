package model

import "time"

// VerificationToken is the claim embedded in a product's QR code. It is only
// used to look up the authoritative record and is never trusted on its own.
type VerificationToken struct {
	UniqueProductID   string
	ManufacturerName  string
	BatchNumber       string
	ProductName       string
	ManufacturingDate time.Time
	ExpiryDate        time.Time
	SubmissionReceipt string
}
