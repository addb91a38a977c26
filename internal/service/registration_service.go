package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"veriscan/internal/archive"
	"veriscan/internal/codec"
	"veriscan/internal/identifier"
	"veriscan/internal/model"
	"veriscan/internal/qr"
	"veriscan/internal/registry"
	"veriscan/internal/trust"

	"github.com/rs/zerolog"
)

// registrationService implements RegistrationService.
type registrationService struct {
	registry registry.Client
	ids      *identifier.Generator
	archive  archive.Archive
	qrSize   int
	logger   zerolog.Logger
}

// NewRegistrationService creates a new registration service. archive may be nil.
func NewRegistrationService(
	registry registry.Client,
	ids *identifier.Generator,
	archive archive.Archive,
	qrSize int,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationService{
		registry: registry,
		ids:      ids,
		archive:  archive,
		qrSize:   qrSize,
		logger:   logger.With().Str("service", "registration").Logger(),
	}
}

// Register checks the caller's trust state and the input before any ledger write.
func (s *registrationService) Register(ctx context.Context, session model.Session, input model.ProductInput) (*model.RegistrationResult, error) {
	if err := requireRole(session, model.RoleManufacturer); err != nil {
		return nil, err
	}

	manufacturer, err := s.registry.GetManufacturer(ctx, session.Address)
	if err != nil {
		s.logger.Error().Err(err).Str("caller", session.Address.String()).Msg("failed to load manufacturer")
		return nil, err
	}
	if !trust.CanRegisterProducts(manufacturer) {
		s.logger.Warn().
			Str("caller", session.Address.String()).
			Str("phase", string(trust.PhaseOf(manufacturer))).
			Msg("registration refused for unverified manufacturer")
		return nil, model.ErrNotVerified
	}

	record, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	if err := s.assignIdentifiers(&record); err != nil {
		return nil, fmt.Errorf("failed to generate identifiers: %w", err)
	}

	receipt, err := s.registry.SubmitProduct(ctx, session.Address, record)
	if err != nil {
		event := s.logger.Warn()
		if errors.Is(err, model.ErrSubmissionUncertain) {
			event = s.logger.Error()
		}
		event.Err(err).Str("product_id", record.UniqueProductID).Msg("product submission failed")
		return nil, err
	}

	record.OwnerAddress = session.Address
	record.IsVerified = true
	record.RegisteredAt = receipt.ConfirmedAt.UTC().Truncate(time.Second)
	record.RegistrationTx = receipt.TxHash

	token, err := codec.EncodeToken(codec.TokenFor(record, manufacturer.Name, receipt))
	if err != nil {
		return nil, fmt.Errorf("failed to encode token for committed product %s: %w", record.UniqueProductID, err)
	}
	s.storeQR(ctx, record.UniqueProductID, token)

	s.logger.Info().
		Str("product_id", record.UniqueProductID).
		Str("tx_hash", receipt.TxHash).
		Uint64("block", receipt.BlockNumber).
		Msg("product registered successfully")

	return &model.RegistrationResult{
		Token:   token,
		Product: record,
		Receipt: receipt,
	}, nil
}

func (s *registrationService) ListOwn(ctx context.Context, session model.Session) ([]model.ProductRecord, error) {
	if err := requireRole(session, model.RoleManufacturer); err != nil {
		return nil, err
	}
	products, err := s.registry.ListProductsByOwner(ctx, session.Address)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", session.Address.String()).Msg("failed to list products")
		return nil, err
	}
	return products, nil
}

func (s *registrationService) Get(ctx context.Context, id string) (*model.ProductRecord, error) {
	if !identifier.IsProductID(id) {
		return nil, model.ErrInvalidInput.WithMessage("product id %q is not a valid identifier", id)
	}
	return s.registry.GetProduct(ctx, id)
}

// QRCode serves the archived image, re-rendering from the live record on a miss.
func (s *registrationService) QRCode(ctx context.Context, session model.Session, id string) ([]byte, error) {
	if session.Anonymous() {
		return nil, model.ErrUnauthorised.WithMessage("a caller address is required")
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound.ForProduct(id)
	}
	if session.Role != model.RoleAdmin && !product.OwnerAddress.Equal(session.Address) {
		return nil, model.ErrForbidden.WithMessage("product %s belongs to another manufacturer", id)
	}

	if s.archive != nil {
		png, err := s.archive.Get(ctx, archive.QRKey(id))
		if err == nil {
			return png, nil
		}
		if !errors.Is(err, archive.ErrNotFound) {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to read archived QR code")
		}
	}

	manufacturer, err := s.registry.GetManufacturer(ctx, product.OwnerAddress)
	if err != nil {
		return nil, err
	}
	var name string
	if manufacturer != nil {
		name = manufacturer.Name
	}
	token, err := codec.EncodeToken(codec.TokenFor(*product, name, model.Receipt{TxHash: product.RegistrationTx}))
	if err != nil {
		return nil, fmt.Errorf("failed to encode token for product %s: %w", id, err)
	}
	png, err := qr.Render(token, s.qrSize)
	if err != nil {
		return nil, err
	}
	s.archivePNG(ctx, id, png)
	return png, nil
}

// prepare validates manufacturer input. The first failing check wins.
func (s *registrationService) prepare(input model.ProductInput) (model.ProductRecord, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", input.Name},
		{"description", input.Description},
		{"category", input.Category},
		{"manufacturingDate", input.ManufacturingDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.ProductRecord{}, model.ErrMissingField.WithMessage("%s is required", r.field)
		}
	}

	category, ok := model.ParseCategory(input.Category)
	if !ok {
		return model.ProductRecord{}, model.ErrInvalidCategory.WithMessage("unknown product category %q", input.Category)
	}

	if id := strings.TrimSpace(input.UniqueProductID); id != "" && !identifier.IsProductID(id) {
		return model.ProductRecord{}, model.ErrInvalidInput.WithMessage("product id %q is not a valid identifier", id)
	}

	mfg, err := model.ParseDate(strings.TrimSpace(input.ManufacturingDate))
	if err != nil {
		return model.ProductRecord{}, model.ErrInvalidInput.WithMessage("manufacturingDate must be a YYYY-MM-DD date")
	}

	record := model.ProductRecord{
		UniqueProductID:   strings.TrimSpace(input.UniqueProductID),
		Name:              strings.TrimSpace(input.Name),
		Description:       strings.TrimSpace(input.Description),
		Category:          category,
		BatchNumber:       strings.TrimSpace(input.BatchNumber),
		SerialNumber:      strings.TrimSpace(input.SerialNumber),
		ManufacturingDate: mfg,
	}

	if expiry := strings.TrimSpace(input.ExpiryDate); expiry != "" {
		record.ExpiryDate, err = model.ParseDate(expiry)
		if err != nil {
			return model.ProductRecord{}, model.ErrInvalidInput.WithMessage("expiryDate must be a YYYY-MM-DD date")
		}
		if !record.ExpiryDate.After(record.ManufacturingDate) {
			return model.ProductRecord{}, model.ErrExpiryBeforeMfg
		}
	}

	return record, nil
}

func (s *registrationService) assignIdentifiers(record *model.ProductRecord) error {
	var err error
	if record.UniqueProductID == "" {
		if record.UniqueProductID, err = s.ids.NewProductID(); err != nil {
			return err
		}
	}
	if record.BatchNumber == "" {
		if record.BatchNumber, err = s.ids.NewBatchCode(); err != nil {
			return err
		}
	}
	if record.SerialNumber == "" {
		if record.SerialNumber, err = s.ids.NewSerialCode(); err != nil {
			return err
		}
	}
	return nil
}

// storeQR renders and archives the token image. Failures are logged only.
func (s *registrationService) storeQR(ctx context.Context, id, token string) {
	png, err := qr.Render(token, s.qrSize)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to render QR code")
		return
	}
	s.archivePNG(ctx, id, png)
}

func (s *registrationService) archivePNG(ctx context.Context, id string, png []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Put(ctx, archive.QRKey(id), png); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to archive QR code")
	}
}
