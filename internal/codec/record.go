package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"veriscan/internal/model"
)

// productDocument is the ledger wire form of a ProductRecord.
type productDocument struct {
	UniqueProductID   string `json:"uniqueProductId"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	BatchNumber       string `json:"batchNumber"`
	SerialNumber      string `json:"serialNumber"`
	ManufacturingDate string `json:"manufacturingDate"`
	ExpiryDate        string `json:"expiryDate"`
	OwnerAddress      string `json:"owner"`
	IsVerified        bool   `json:"isVerified"`
	IsFlagged         bool   `json:"isFlagged"`
	ScannedCount      uint64 `json:"scannedCount"`
	RegisteredAt      int64  `json:"registeredAt"`
	RegistrationTx    string `json:"registrationTx,omitempty"`
}

// manufacturerDocument is the ledger wire form of a ManufacturerRecord.
type manufacturerDocument struct {
	OwnerAddress          string `json:"owner"`
	Name                  string `json:"name"`
	ManufacturingLocation string `json:"manufacturingLocation"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	FacilityAddress       string `json:"facilityAddress"`
	RegisteredAt          int64  `json:"registeredAt"`
	IsVerified            bool   `json:"isVerified"`
	IsFlagged             bool   `json:"isFlagged"`
	RequestedVerification bool   `json:"requestedVerification"`
}

// EncodeProduct serialises a product record for the ledger.
func EncodeProduct(p model.ProductRecord) ([]byte, error) {
	return json.Marshal(productDocument{
		UniqueProductID:   p.UniqueProductID,
		Name:              p.Name,
		Description:       p.Description,
		Category:          string(p.Category),
		BatchNumber:       p.BatchNumber,
		SerialNumber:      p.SerialNumber,
		ManufacturingDate: model.FormatDate(p.ManufacturingDate),
		ExpiryDate:        model.FormatDate(p.ExpiryDate),
		OwnerAddress:      p.OwnerAddress.String(),
		IsVerified:        p.IsVerified,
		IsFlagged:         p.IsFlagged,
		ScannedCount:      p.ScannedCount,
		RegisteredAt:      unixOrZero(p.RegisteredAt),
		RegistrationTx:    p.RegistrationTx,
	})
}

// DecodeProduct parses a ledger product document.
func DecodeProduct(data []byte) (model.ProductRecord, error) {
	var doc productDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.ProductRecord{}, fmt.Errorf("failed to decode product document: %w", err)
	}

	mfg, err := parseOptionalDate(doc.ManufacturingDate)
	if err != nil {
		return model.ProductRecord{}, fmt.Errorf("product %s: invalid manufacturing date: %w", doc.UniqueProductID, err)
	}
	expiry, err := parseOptionalDate(doc.ExpiryDate)
	if err != nil {
		return model.ProductRecord{}, fmt.Errorf("product %s: invalid expiry date: %w", doc.UniqueProductID, err)
	}

	return model.ProductRecord{
		UniqueProductID:   doc.UniqueProductID,
		Name:              doc.Name,
		Description:       doc.Description,
		Category:          model.Category(doc.Category),
		BatchNumber:       doc.BatchNumber,
		SerialNumber:      doc.SerialNumber,
		ManufacturingDate: mfg,
		ExpiryDate:        expiry,
		OwnerAddress:      model.Address(doc.OwnerAddress),
		IsVerified:        doc.IsVerified,
		IsFlagged:         doc.IsFlagged,
		ScannedCount:      doc.ScannedCount,
		RegisteredAt:      timeOrZero(doc.RegisteredAt),
		RegistrationTx:    doc.RegistrationTx,
	}, nil
}

// EncodeManufacturer serialises a manufacturer record for the ledger.
func EncodeManufacturer(m model.ManufacturerRecord) ([]byte, error) {
	return json.Marshal(manufacturerDocument{
		OwnerAddress:          m.OwnerAddress.String(),
		Name:                  m.Name,
		ManufacturingLocation: m.ManufacturingLocation,
		Email:                 m.Email,
		Phone:                 m.Phone,
		FacilityAddress:       m.FacilityAddress,
		RegisteredAt:          unixOrZero(m.RegisteredAt),
		IsVerified:            m.IsVerified,
		IsFlagged:             m.IsFlagged,
		RequestedVerification: m.RequestedVerification,
	})
}

// DecodeManufacturer parses a ledger manufacturer document.
func DecodeManufacturer(data []byte) (model.ManufacturerRecord, error) {
	var doc manufacturerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.ManufacturerRecord{}, fmt.Errorf("failed to decode manufacturer document: %w", err)
	}

	return model.ManufacturerRecord{
		OwnerAddress:          model.Address(doc.OwnerAddress),
		Name:                  doc.Name,
		ManufacturingLocation: doc.ManufacturingLocation,
		Email:                 doc.Email,
		Phone:                 doc.Phone,
		FacilityAddress:       doc.FacilityAddress,
		RegisteredAt:          timeOrZero(doc.RegisteredAt),
		IsVerified:            doc.IsVerified,
		IsFlagged:             doc.IsFlagged,
		RequestedVerification: doc.RequestedVerification,
	}, nil
}

// Ledger timestamps are whole seconds.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
