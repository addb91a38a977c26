package service

import (
	"context"

	"veriscan/internal/model"
)

// RegistrationService registers products for verified manufacturers.
type RegistrationService interface {
	// Register validates input, anchors the product on the ledger and returns its token.
	Register(ctx context.Context, session model.Session, input model.ProductInput) (*model.RegistrationResult, error)

	// ListOwn returns the caller's products in registration order.
	ListOwn(ctx context.Context, session model.Session) ([]model.ProductRecord, error)

	// Get returns the live ledger record, or nil when the id is not registered.
	Get(ctx context.Context, id string) (*model.ProductRecord, error)

	// QRCode returns the PNG QR image of one of the caller's products.
	QRCode(ctx context.Context, session model.Session, id string) ([]byte, error)
}

// VerificationService answers authenticity checks for scanned tokens.
type VerificationService interface {
	// Verify classifies a raw scanned payload.
	Verify(ctx context.Context, raw string) (*model.Verdict, error)

	// VerifyImage scans an uploaded image and verifies its payload.
	VerifyImage(ctx context.Context, image []byte) (*model.Verdict, error)

	// Wait blocks until background scan-count updates have finished.
	Wait()
}

// ManufacturerService drives the manufacturer trust lifecycle.
type ManufacturerService interface {
	Register(ctx context.Context, session model.Session, profile model.ManufacturerProfile) (*model.ManufacturerRecord, error)
	Status(ctx context.Context, session model.Session) (*ManufacturerStatus, error)
	RequestVerification(ctx context.Context, session model.Session) (*model.ManufacturerRecord, error)

	// Admin operations.
	SetTrustFlags(ctx context.Context, session model.Session, target model.Address, flags model.TrustFlags) (*model.ManufacturerRecord, error)
	List(ctx context.Context, session model.Session) ([]model.ManufacturerRecord, error)
	Stats(ctx context.Context, session model.Session) (model.Stats, error)
	Products(ctx context.Context, session model.Session) ([]model.ProductRecord, error)
}

// ManufacturerStatus is a manufacturer's record with its derived lifecycle phase.
type ManufacturerStatus struct {
	Manufacturer        model.ManufacturerRecord `json:"manufacturer"`
	Phase               string                   `json:"phase"`
	CanRegisterProducts bool                     `json:"canRegisterProducts"`
}

func requireRole(session model.Session, role model.Role) error {
	if session.Anonymous() {
		return model.ErrUnauthorised.WithMessage("a caller address is required")
	}
	if session.Role != role {
		return model.ErrForbidden.WithMessage("this operation requires the %s role", role)
	}
	return nil
}
