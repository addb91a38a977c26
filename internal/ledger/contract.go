package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"veriscan/internal/codec"
	"veriscan/internal/model"
	"veriscan/internal/trust"
)

const (
	productPrefix      = "product/"
	manufacturerPrefix = "manufacturer/"
	ownerPrefix        = "owner/"
	scannedKey         = "stats/scanned"
)

func productKey(id string) string            { return productPrefix + id }
func manufacturerKey(a model.Address) string { return manufacturerPrefix + a.String() }
func ownerIndexPrefix(a model.Address) string {
	return ownerPrefix + a.String() + "/"
}

// RegistryContract holds the registry rules: product submission only by
// verified manufacturers, at most one registration per product id, trust
// flags only from the admin address.
type RegistryContract struct {
	admin model.Address
}

// NewRegistryContract creates the contract with the given admin account.
func NewRegistryContract(admin model.Address) *RegistryContract {
	return &RegistryContract{admin: admin}
}

// Admin returns the account allowed to change trust flags.
func (c *RegistryContract) Admin() model.Address {
	return c.admin
}

// Execute applies a state-changing call. A *RevertError leaves state untouched.
func (c *RegistryContract) Execute(ctx context.Context, st StateWriter, tx Transaction, hash string, at time.Time) error {
	caller, method, args := tx.From, tx.Method, tx.Args
	switch method {
	case MethodRegisterProduct:
		return c.registerProduct(ctx, st, caller, args, hash, at)
	case MethodRegisterManufacturer:
		return c.registerManufacturer(ctx, st, caller, args, at)
	case MethodRequestVerification:
		return c.requestVerification(ctx, st, caller)
	case MethodSetTrustFlags:
		return c.setTrustFlags(ctx, st, caller, args)
	case MethodRecordScan:
		return c.recordScan(ctx, st, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// Call runs a read-only view and returns its JSON result.
func (c *RegistryContract) Call(ctx context.Context, st StateReader, method string, args json.RawMessage) (json.RawMessage, error) {
	switch method {
	case ViewProduct:
		var a ProductArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		value, ok, err := st.Get(ctx, productKey(a.ID))
		if err != nil || !ok {
			return json.RawMessage("null"), err
		}
		return value, nil

	case ViewManufacturer:
		var a AddressArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		value, ok, err := st.Get(ctx, manufacturerKey(a.Address))
		if err != nil || !ok {
			return json.RawMessage("null"), err
		}
		return value, nil

	case ViewManufacturerProducts:
		var a AddressArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		entries, err := st.Scan(ctx, ownerIndexPrefix(a.Address))
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, string(e.Value))
		}
		return json.Marshal(ids)

	case ViewAllProducts:
		entries, err := st.Scan(ctx, productPrefix)
		if err != nil {
			return nil, err
		}
		return joinDocuments(entries), nil

	case ViewAllManufacturers:
		records, err := c.manufacturers(ctx, st)
		if err != nil {
			return nil, err
		}
		docs := make([]json.RawMessage, 0, len(records))
		for _, rec := range records {
			if !rec.IsRegistered() {
				continue
			}
			doc, err := codec.EncodeManufacturer(rec)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return json.Marshal(docs)

	case ViewStats:
		stats, err := c.stats(ctx, st)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stats)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (c *RegistryContract) registerProduct(ctx context.Context, st StateWriter, caller model.Address, args json.RawMessage, hash string, at time.Time) error {
	product, err := codec.DecodeProduct(args)
	if err != nil {
		return revert(model.ErrCodeInvalidInput, "%v", err)
	}
	if product.UniqueProductID == "" {
		return revert(model.ErrCodeMissingField, "product id is required")
	}

	manufacturer, err := c.manufacturer(ctx, st, caller)
	if err != nil {
		return err
	}
	if !trust.CanRegisterProducts(manufacturer) {
		return revert(model.ErrCodeUnauthorised, "caller %s is not a verified manufacturer", caller)
	}

	_, exists, err := st.Get(ctx, productKey(product.UniqueProductID))
	if err != nil {
		return err
	}
	if exists {
		return revert(model.ErrCodeDuplicateID, "product %s is already registered", product.UniqueProductID)
	}

	product.OwnerAddress = caller
	product.IsVerified = true
	product.IsFlagged = false
	product.ScannedCount = 0
	product.RegisteredAt = at.UTC().Truncate(time.Second)
	product.RegistrationTx = hash

	doc, err := codec.EncodeProduct(product)
	if err != nil {
		return err
	}
	if err := st.Put(ctx, productKey(product.UniqueProductID), doc); err != nil {
		return err
	}
	return st.Put(ctx, ownerIndexPrefix(caller)+product.UniqueProductID, []byte(product.UniqueProductID))
}

func (c *RegistryContract) registerManufacturer(ctx context.Context, st StateWriter, caller model.Address, args json.RawMessage, at time.Time) error {
	var profile model.ManufacturerProfile
	if err := decodeArgs(args, &profile); err != nil {
		return err
	}

	existing, err := c.manufacturer(ctx, st, caller)
	if err != nil {
		return err
	}
	rec, err := trust.Register(existing, caller, profile, at.Truncate(time.Second))
	if err != nil {
		return asRevert(err)
	}
	return c.putManufacturer(ctx, st, rec)
}

func (c *RegistryContract) requestVerification(ctx context.Context, st StateWriter, caller model.Address) error {
	existing, err := c.manufacturer(ctx, st, caller)
	if err != nil {
		return err
	}
	rec, err := trust.RequestVerification(existing)
	if err != nil {
		return asRevert(err)
	}
	return c.putManufacturer(ctx, st, rec)
}

func (c *RegistryContract) setTrustFlags(ctx context.Context, st StateWriter, caller model.Address, args json.RawMessage) error {
	if c.admin.IsZero() || !caller.Equal(c.admin) {
		return revert(model.ErrCodeUnauthorised, "caller %s is not the registry admin", caller)
	}

	var a TrustFlagArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}
	existing, err := c.manufacturer(ctx, st, a.Target)
	if err != nil {
		return err
	}
	rec, err := trust.ApplyFlags(existing, a.Target, model.TrustFlags{Verified: a.Verified, Flagged: a.Flagged})
	if err != nil {
		return asRevert(err)
	}
	return c.putManufacturer(ctx, st, rec)
}

func (c *RegistryContract) recordScan(ctx context.Context, st StateWriter, args json.RawMessage) error {
	var a ProductArgs
	if err := decodeArgs(args, &a); err != nil {
		return err
	}

	value, ok, err := st.Get(ctx, productKey(a.ID))
	if err != nil {
		return err
	}
	if !ok {
		return revert(model.ErrCodeProductNotFound, "product %s is not registered", a.ID)
	}
	product, err := codec.DecodeProduct(value)
	if err != nil {
		return err
	}
	product.ScannedCount++

	doc, err := codec.EncodeProduct(product)
	if err != nil {
		return err
	}
	if err := st.Put(ctx, productKey(a.ID), doc); err != nil {
		return err
	}

	scanned, err := readCounter(ctx, st, scannedKey)
	if err != nil {
		return err
	}
	return st.Put(ctx, scannedKey, encodeCounter(scanned+1))
}

func (c *RegistryContract) manufacturer(ctx context.Context, st StateReader, addr model.Address) (*model.ManufacturerRecord, error) {
	value, ok, err := st.Get(ctx, manufacturerKey(addr))
	if err != nil || !ok {
		return nil, err
	}
	rec, err := codec.DecodeManufacturer(value)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *RegistryContract) manufacturers(ctx context.Context, st StateReader) ([]model.ManufacturerRecord, error) {
	entries, err := st.Scan(ctx, manufacturerPrefix)
	if err != nil {
		return nil, err
	}
	records := make([]model.ManufacturerRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := codec.DecodeManufacturer(e.Value)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *RegistryContract) putManufacturer(ctx context.Context, st StateWriter, rec model.ManufacturerRecord) error {
	doc, err := codec.EncodeManufacturer(rec)
	if err != nil {
		return err
	}
	return st.Put(ctx, manufacturerKey(rec.OwnerAddress), doc)
}

// stats counts registered manufacturers only.
func (c *RegistryContract) stats(ctx context.Context, st StateReader) (model.Stats, error) {
	records, err := c.manufacturers(ctx, st)
	if err != nil {
		return model.Stats{}, err
	}

	var stats model.Stats
	for _, rec := range records {
		if !rec.IsRegistered() {
			continue
		}
		stats.TotalManufacturers++
		if rec.IsVerified {
			stats.Verified++
		}
		if rec.IsFlagged {
			stats.Flagged++
		}
	}

	stats.Scanned, err = readCounter(ctx, st, scannedKey)
	return stats, err
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return revert(model.ErrCodeInvalidInput, "missing call arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return revert(model.ErrCodeInvalidInput, "invalid call arguments: %v", err)
	}
	return nil
}

func asRevert(err error) error {
	var de *model.DomainError
	if errors.As(err, &de) {
		return &RevertError{Code: de.Code, Reason: de.Message}
	}
	return err
}

func joinDocuments(entries []Entry) json.RawMessage {
	docs := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		docs[i] = e.Value
	}
	out, _ := json.Marshal(docs)
	return out
}

func readCounter(ctx context.Context, st StateReader, key string) (uint64, error) {
	value, ok, err := st.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("corrupt counter %q", key)
	}
	return binary.BigEndian.Uint64(value), nil
}

func encodeCounter(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}
