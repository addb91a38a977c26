package model

// VerdictStatus is the classified outcome of a verification lookup.
type VerdictStatus string

const (
	VerdictGenuine       VerdictStatus = "GENUINE"
	VerdictNotRegistered VerdictStatus = "NOT_REGISTERED"
	VerdictInvalidToken  VerdictStatus = "INVALID_TOKEN"
)

// Verdict is returned to a consumer after a scan. Product always comes from
// the live ledger record, never from the scanned token.
type Verdict struct {
	Status       VerdictStatus       `json:"status"`
	ProductID    string              `json:"productId,omitempty"`
	Product      *ProductRecord      `json:"product,omitempty"`
	Manufacturer *ManufacturerPublic `json:"manufacturer,omitempty"`
	// Discrepancies lists token fields that disagree with the live record.
	Discrepancies []string `json:"discrepancies,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}
