// Package registry is the typed client for the product registry contract.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"veriscan/internal/codec"
	"veriscan/internal/ledger"
	"veriscan/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Client reads and writes registry records. Every write is one ledger
// transaction awaited to confirmation; absence on reads is nil, nil.
type Client interface {
	SubmitProduct(ctx context.Context, caller model.Address, record model.ProductRecord) (model.Receipt, error)
	GetProduct(ctx context.Context, id string) (*model.ProductRecord, error)
	ListProductsByOwner(ctx context.Context, owner model.Address) ([]model.ProductRecord, error)
	ListProducts(ctx context.Context) ([]model.ProductRecord, error)

	RegisterManufacturer(ctx context.Context, caller model.Address, profile model.ManufacturerProfile) (model.Receipt, error)
	GetManufacturer(ctx context.Context, addr model.Address) (*model.ManufacturerRecord, error)
	ListManufacturers(ctx context.Context) ([]model.ManufacturerRecord, error)
	RequestVerification(ctx context.Context, caller model.Address) (model.Receipt, error)
	SetTrustFlags(ctx context.Context, caller, target model.Address, flags model.TrustFlags) (model.Receipt, error)

	RecordScan(ctx context.Context, id string) (model.Receipt, error)
	GetStats(ctx context.Context) (model.Stats, error)
}

// Config bounds every ledger call.
type Config struct {
	SubmitTimeout    time.Duration
	QueryTimeout     time.Duration
	FetchConcurrency int
}

// DefaultConfig returns the timeouts used when none are configured.
func DefaultConfig() Config {
	return Config{
		SubmitTimeout:    30 * time.Second,
		QueryTimeout:     10 * time.Second,
		FetchConcurrency: 8,
	}
}

type client struct {
	conn   ledger.Conn
	cfg    Config
	logger zerolog.Logger
}

// NewClient creates a registry client over conn.
func NewClient(conn ledger.Conn, cfg Config, logger zerolog.Logger) Client {
	defaults := DefaultConfig()
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaults.SubmitTimeout
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaults.FetchConcurrency
	}
	return &client{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

func (c *client) SubmitProduct(ctx context.Context, caller model.Address, record model.ProductRecord) (model.Receipt, error) {
	doc, err := codec.EncodeProduct(record)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("failed to encode product: %w", err)
	}
	receipt, err := c.submit(ctx, ledger.Transaction{From: caller, Method: ledger.MethodRegisterProduct, Args: doc})
	if err != nil {
		var de *model.DomainError
		if errors.As(err, &de) {
			return model.Receipt{}, de.ForProduct(record.UniqueProductID)
		}
		return model.Receipt{}, err
	}
	return receipt, nil
}

func (c *client) GetProduct(ctx context.Context, id string) (*model.ProductRecord, error) {
	raw, err := c.query(ctx, ledger.ViewProduct, ledger.ProductArgs{ID: id})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		c.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, nil
	}
	product, err := codec.DecodeProduct(raw)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *client) ListProductsByOwner(ctx context.Context, owner model.Address) ([]model.ProductRecord, error) {
	raw, err := c.query(ctx, ledger.ViewManufacturerProducts, ledger.AddressArgs{Address: owner})
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode product ids: %w", err)
	}

	products := make([]*model.ProductRecord, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := c.GetProduct(gctx, id)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.ProductRecord, 0, len(products))
	for _, p := range products {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *client) ListProducts(ctx context.Context) ([]model.ProductRecord, error) {
	raw, err := c.query(ctx, ledger.ViewAllProducts, nil)
	if err != nil {
		return nil, err
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}
	out := make([]model.ProductRecord, 0, len(docs))
	for _, doc := range docs {
		p, err := codec.DecodeProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *client) RegisterManufacturer(ctx context.Context, caller model.Address, profile model.ManufacturerProfile) (model.Receipt, error) {
	args, err := json.Marshal(profile)
	if err != nil {
		return model.Receipt{}, err
	}
	return c.submit(ctx, ledger.Transaction{From: caller, Method: ledger.MethodRegisterManufacturer, Args: args})
}

func (c *client) GetManufacturer(ctx context.Context, addr model.Address) (*model.ManufacturerRecord, error) {
	raw, err := c.query(ctx, ledger.ViewManufacturer, ledger.AddressArgs{Address: addr})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	rec, err := codec.DecodeManufacturer(raw)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) ListManufacturers(ctx context.Context) ([]model.ManufacturerRecord, error) {
	raw, err := c.query(ctx, ledger.ViewAllManufacturers, nil)
	if err != nil {
		return nil, err
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode manufacturer list: %w", err)
	}
	out := make([]model.ManufacturerRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := codec.DecodeManufacturer(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *client) RequestVerification(ctx context.Context, caller model.Address) (model.Receipt, error) {
	return c.submit(ctx, ledger.Transaction{From: caller, Method: ledger.MethodRequestVerification, Args: json.RawMessage("{}")})
}

func (c *client) SetTrustFlags(ctx context.Context, caller, target model.Address, flags model.TrustFlags) (model.Receipt, error) {
	args, err := json.Marshal(ledger.TrustFlagArgs{Target: target, Verified: flags.Verified, Flagged: flags.Flagged})
	if err != nil {
		return model.Receipt{}, err
	}
	return c.submit(ctx, ledger.Transaction{From: caller, Method: ledger.MethodSetTrustFlags, Args: args})
}

func (c *client) RecordScan(ctx context.Context, id string) (model.Receipt, error) {
	args, err := json.Marshal(ledger.ProductArgs{ID: id})
	if err != nil {
		return model.Receipt{}, err
	}
	return c.submit(ctx, ledger.Transaction{Method: ledger.MethodRecordScan, Args: args})
}

func (c *client) GetStats(ctx context.Context) (model.Stats, error) {
	raw, err := c.query(ctx, ledger.ViewStats, nil)
	if err != nil {
		return model.Stats{}, err
	}
	var stats model.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return model.Stats{}, fmt.Errorf("failed to decode stats: %w", err)
	}
	return stats, nil
}

// submit sends tx and waits for its confirmation within SubmitTimeout.
// Once the ledger has accepted tx, any failure other than a revert is uncertain.
func (c *client) submit(ctx context.Context, tx ledger.Transaction) (model.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()

	pending, err := c.conn.Submit(ctx, tx)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", tx.Method).Msg("ledger rejected submission")
		return model.Receipt{}, mapRevert(err, model.ErrLedgerUnavailable)
	}

	receipt, err := pending.Wait(ctx)
	if err != nil {
		mapped := mapRevert(err, model.ErrSubmissionUncertain)
		if errors.Is(mapped, model.ErrSubmissionUncertain) {
			c.logger.Error().
				Err(err).
				Str("method", tx.Method).
				Str("tx_hash", pending.Hash()).
				Msg("submission outcome unknown")
		}
		return model.Receipt{}, mapped
	}

	c.logger.Info().
		Str("method", tx.Method).
		Str("tx_hash", receipt.TxHash).
		Uint64("block", receipt.BlockNumber).
		Msg("transaction confirmed")

	return receipt, nil
}

func (c *client) query(ctx context.Context, method string, args any) (json.RawMessage, error) {
	var encoded json.RawMessage
	if args != nil {
		var err error
		if encoded, err = json.Marshal(args); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.QueryTimeout)
	defer cancel()

	raw, err := c.conn.Query(ctx, method, encoded)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, model.ErrLookupTimedOut.Wrap(err)
		case errors.Is(err, ledger.ErrUnknownMethod):
			return nil, fmt.Errorf("query %s: %w", method, err)
		default:
			var rev *ledger.RevertError
			if errors.As(err, &rev) {
				return nil, mapRevert(err, model.ErrInvalidInput)
			}
			return nil, model.ErrLedgerUnavailable.Wrap(err)
		}
	}
	return raw, nil
}

var revertErrors = map[string]*model.DomainError{
	model.ErrCodeDuplicateID:          model.ErrDuplicateID,
	model.ErrCodeUnauthorised:         model.ErrUnauthorised,
	model.ErrCodeAlreadyRegistered:    model.ErrAlreadyRegistered,
	model.ErrCodeInvalidState:         model.ErrInvalidState,
	model.ErrCodeInvalidAddress:       model.ErrInvalidAddress,
	model.ErrCodeInvalidInput:         model.ErrInvalidInput,
	model.ErrCodeMissingField:         model.ErrMissingField,
	model.ErrCodeProductNotFound:      model.ErrProductNotFound,
	model.ErrCodeManufacturerNotFound: model.ErrManufacturerNotFound,
}

// mapRevert classifies a contract revert, or wraps err in fallback.
func mapRevert(err error, fallback *model.DomainError) error {
	var rev *ledger.RevertError
	if errors.As(err, &rev) {
		if sentinel, ok := revertErrors[rev.Code]; ok {
			return sentinel.Wrap(err)
		}
		return model.ErrInvalidInput.Wrap(err)
	}
	return fallback.Wrap(err)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
