// Package ledger is the boundary to the system of record. Workflows only see
// Conn; Node is an embedded implementation that executes the registry
// contract over a StateStore.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"veriscan/internal/model"
)

// Contract method names.
const (
	MethodRegisterProduct      = "registerProduct"
	MethodRegisterManufacturer = "registerManufacturer"
	MethodRequestVerification  = "requestVerification"
	MethodSetTrustFlags        = "setTrustFlags"
	MethodRecordScan           = "recordScan"

	ViewProduct              = "product"
	ViewManufacturer         = "manufacturer"
	ViewManufacturerProducts = "manufacturerProducts"
	ViewAllProducts          = "allProducts"
	ViewAllManufacturers     = "allManufacturers"
	ViewStats                = "stats"
)

var (
	// ErrUnavailable means the transaction or query never reached the ledger.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrNotConfirmed means a submitted transaction was not confirmed before the wait ended.
	ErrNotConfirmed = errors.New("transaction not confirmed")
	// ErrUnknownMethod is returned for a method the contract does not expose.
	ErrUnknownMethod = errors.New("unknown contract method")
)

// Transaction is a state-changing contract call.
type Transaction struct {
	From   model.Address
	Method string
	Args   json.RawMessage
}

// Pending is a submitted transaction awaiting confirmation.
type Pending interface {
	Hash() string
	// Wait blocks until the transaction is confirmed or reverted, or ctx ends.
	Wait(ctx context.Context) (model.Receipt, error)
}

// Conn is a connection to a ledger hosting the registry contract.
type Conn interface {
	Submit(ctx context.Context, tx Transaction) (Pending, error)
	Query(ctx context.Context, method string, args json.RawMessage) (json.RawMessage, error)
}

// RevertError is a contract rejection. Code is one of the model error codes.
type RevertError struct {
	Code   string
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("execution reverted: %s: %s", e.Code, e.Reason)
}

func revert(code, format string, args ...any) *RevertError {
	return &RevertError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Argument documents for contract calls.
type (
	ProductArgs struct {
		ID string `json:"id"`
	}
	AddressArgs struct {
		Address model.Address `json:"address"`
	}
	TrustFlagArgs struct {
		Target   model.Address `json:"target"`
		Verified *bool         `json:"verified,omitempty"`
		Flagged  *bool         `json:"flagged,omitempty"`
	}
)
