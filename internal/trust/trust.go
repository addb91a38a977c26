// Package trust holds the manufacturer lifecycle transitions. The same
// functions run inside the ledger contract and as service pre-checks.
package trust

import (
	"strings"
	"time"

	"veriscan/internal/model"
)

// Phase is the display state of a manufacturer. Verified and flagged are
// independent latches on the record; Phase reports flagged first.
type Phase string

const (
	PhaseUnregistered Phase = "unregistered"
	PhasePending      Phase = "pending"
	PhaseRequested    Phase = "requested"
	PhaseVerified     Phase = "verified"
	PhaseFlagged      Phase = "flagged"
)

// PhaseOf reports the lifecycle phase of rec. A nil record is unregistered.
func PhaseOf(rec *model.ManufacturerRecord) Phase {
	switch {
	case !rec.IsRegistered():
		return PhaseUnregistered
	case rec.IsFlagged:
		return PhaseFlagged
	case rec.IsVerified:
		return PhaseVerified
	case rec.RequestedVerification:
		return PhaseRequested
	default:
		return PhasePending
	}
}

// Register creates the record for owner. Latches already set by an admin on
// an unregistered address are preserved.
func Register(existing *model.ManufacturerRecord, owner model.Address, profile model.ManufacturerProfile, at time.Time) (model.ManufacturerRecord, error) {
	if owner.IsZero() {
		return model.ManufacturerRecord{}, model.ErrInvalidAddress.WithMessage("manufacturer address is required")
	}
	if existing.IsRegistered() {
		return model.ManufacturerRecord{}, model.ErrAlreadyRegistered
	}
	if strings.TrimSpace(profile.Name) == "" {
		return model.ManufacturerRecord{}, model.ErrMissingField.WithMessage("manufacturer name is required")
	}

	rec := model.ManufacturerRecord{
		OwnerAddress:          owner,
		Name:                  strings.TrimSpace(profile.Name),
		ManufacturingLocation: strings.TrimSpace(profile.ManufacturingLocation),
		Email:                 strings.TrimSpace(profile.Email),
		Phone:                 strings.TrimSpace(profile.Phone),
		FacilityAddress:       strings.TrimSpace(profile.FacilityAddress),
		RegisteredAt:          at.UTC(),
	}
	if existing != nil {
		rec.IsVerified = existing.IsVerified
		rec.IsFlagged = existing.IsFlagged
	}
	return rec, nil
}

// RequestVerification sets the one-way request latch. It is only legal for a
// registered, unverified manufacturer that has not asked yet.
func RequestVerification(rec *model.ManufacturerRecord) (model.ManufacturerRecord, error) {
	switch {
	case !rec.IsRegistered():
		return model.ManufacturerRecord{}, model.ErrInvalidState.WithMessage("manufacturer is not registered")
	case rec.IsVerified:
		return model.ManufacturerRecord{}, model.ErrInvalidState.WithMessage("manufacturer is already verified")
	case rec.RequestedVerification:
		return model.ManufacturerRecord{}, model.ErrInvalidState.WithMessage("verification was already requested")
	}

	next := *rec
	next.RequestedVerification = true
	return next, nil
}

// ApplyFlags sets the selected latches on target's record, creating a bare
// record when the address never registered.
func ApplyFlags(rec *model.ManufacturerRecord, target model.Address, flags model.TrustFlags) (model.ManufacturerRecord, error) {
	if target.IsZero() {
		return model.ManufacturerRecord{}, model.ErrInvalidAddress.WithMessage("target address is required")
	}
	if flags.Empty() {
		return model.ManufacturerRecord{}, model.ErrInvalidInput.WithMessage("at least one of verified or flagged must be set")
	}

	next := model.ManufacturerRecord{OwnerAddress: target}
	if rec != nil {
		next = *rec
	}
	if flags.Verified != nil {
		next.IsVerified = *flags.Verified
	}
	if flags.Flagged != nil {
		next.IsFlagged = *flags.Flagged
	}
	return next, nil
}

// CanRegisterProducts reports whether rec may submit products.
func CanRegisterProducts(rec *model.ManufacturerRecord) bool {
	return rec.IsRegistered() && rec.IsVerified
}
