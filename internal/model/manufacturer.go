package model

import "time"

// ManufacturerRecord represents one registered producing entity.
type ManufacturerRecord struct {
	OwnerAddress          Address   `json:"ownerAddress"`
	Name                  string    `json:"name"`
	ManufacturingLocation string    `json:"manufacturingLocation"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	FacilityAddress       string    `json:"facilityAddress"`
	RegisteredAt          time.Time `json:"registeredAt"`
	IsVerified            bool      `json:"isVerified"`
	IsFlagged             bool      `json:"isFlagged"`
	RequestedVerification bool      `json:"requestedVerification"`
}

// IsRegistered reports whether the record holds a completed registration.
// Flag updates may create a record for an address that never registered.
func (m *ManufacturerRecord) IsRegistered() bool {
	return m != nil && m.Name != ""
}

// Public returns the fields shown to consumers on a verification result.
func (m *ManufacturerRecord) Public() *ManufacturerPublic {
	if m == nil {
		return nil
	}
	return &ManufacturerPublic{
		OwnerAddress:          m.OwnerAddress,
		Name:                  m.Name,
		ManufacturingLocation: m.ManufacturingLocation,
		FacilityAddress:       m.FacilityAddress,
		IsVerified:            m.IsVerified,
		IsFlagged:             m.IsFlagged,
	}
}

// ManufacturerPublic is the consumer-facing subset of a ManufacturerRecord.
type ManufacturerPublic struct {
	OwnerAddress          Address `json:"ownerAddress"`
	Name                  string  `json:"name"`
	ManufacturingLocation string  `json:"manufacturingLocation"`
	FacilityAddress       string  `json:"facilityAddress"`
	IsVerified            bool    `json:"isVerified"`
	IsFlagged             bool    `json:"isFlagged"`
}

// ManufacturerProfile is the data a manufacturer submits when registering.
type ManufacturerProfile struct {
	Name                  string `json:"name"`
	ManufacturingLocation string `json:"manufacturingLocation"`
	Email                 string `json:"email"`
	Phone                 string `json:"phone"`
	FacilityAddress       string `json:"facilityAddress"`
}

// TrustFlags selects which trust latches an admin update touches. Nil leaves a latch unchanged.
type TrustFlags struct {
	Verified *bool `json:"verified,omitempty"`
	Flagged  *bool `json:"flagged,omitempty"`
}

// Empty reports whether the update touches no latch.
func (f TrustFlags) Empty() bool {
	return f.Verified == nil && f.Flagged == nil
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalManufacturers uint64 `json:"totalManufacturers"`
	Verified           uint64 `json:"verified"`
	Flagged            uint64 `json:"flagged"`
	Scanned            uint64 `json:"scanned"`
}
