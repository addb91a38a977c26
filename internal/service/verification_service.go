package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"veriscan/internal/codec"
	"veriscan/internal/model"
	"veriscan/internal/registry"
	"veriscan/internal/scan"

	"github.com/rs/zerolog"
)

// DefaultScanCountTimeout bounds a background scan-count update.
const DefaultScanCountTimeout = 30 * time.Second

// verificationService implements VerificationService.
type verificationService struct {
	registry         registry.Client
	scanner          *scan.Scanner
	scanCountTimeout time.Duration
	logger           zerolog.Logger
	wg               sync.WaitGroup
}

// NewVerificationService creates a new verification service.
func NewVerificationService(
	registry registry.Client,
	scanner *scan.Scanner,
	scanCountTimeout time.Duration,
	logger zerolog.Logger,
) VerificationService {
	if scanCountTimeout <= 0 {
		scanCountTimeout = DefaultScanCountTimeout
	}
	return &verificationService{
		registry:         registry,
		scanner:          scanner,
		scanCountTimeout: scanCountTimeout,
		logger:           logger.With().Str("service", "verification").Logger(),
	}
}

// Verify decodes raw and looks the product up on the ledger. The token's own
// fields are never used for the verdict; a decode failure is a verdict, not an error.
func (s *verificationService) Verify(ctx context.Context, raw string) (*model.Verdict, error) {
	token, err := codec.DecodeToken(raw)
	if err != nil {
		reason := err.Error()
		var de *model.DomainError
		if errors.As(err, &de) {
			reason = de.Message
		}
		s.logger.Info().Err(err).Msg("scanned payload is not a valid token")
		return &model.Verdict{Status: model.VerdictInvalidToken, Reason: reason}, nil
	}

	product, err := s.registry.GetProduct(ctx, token.UniqueProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", token.UniqueProductID).Msg("failed to look up product")
		return nil, err
	}
	if product == nil {
		s.logger.Info().Str("product_id", token.UniqueProductID).Msg("scanned product is not registered")
		return &model.Verdict{
			Status:    model.VerdictNotRegistered,
			ProductID: token.UniqueProductID,
			Reason:    "no product is registered with this id",
		}, nil
	}

	manufacturer, err := s.registry.GetManufacturer(ctx, product.OwnerAddress)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", product.OwnerAddress.String()).Msg("failed to look up manufacturer")
		return nil, err
	}

	s.recordScan(ctx, product.UniqueProductID)

	verdict := &model.Verdict{
		Status:        model.VerdictGenuine,
		ProductID:     product.UniqueProductID,
		Product:       product,
		Manufacturer:  manufacturer.Public(),
		Discrepancies: discrepancies(token, product, manufacturer),
	}
	if len(verdict.Discrepancies) > 0 {
		s.logger.Warn().
			Str("product_id", product.UniqueProductID).
			Strs("fields", verdict.Discrepancies).
			Msg("scanned token disagrees with ledger record")
	}
	return verdict, nil
}

func (s *verificationService) VerifyImage(ctx context.Context, image []byte) (*model.Verdict, error) {
	if len(image) == 0 {
		return nil, model.ErrMissingField.WithMessage("an image is required")
	}
	payload, err := s.scanner.Scan(ctx, scan.ImageSource{Data: image})
	if err != nil {
		return nil, err
	}
	return s.Verify(ctx, payload)
}

func (s *verificationService) Wait() {
	s.wg.Wait()
}

// recordScan increments the scan count in the background. The verdict never waits for it.
func (s *verificationService) recordScan(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.scanCountTimeout)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		if _, err := s.registry.RecordScan(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to record scan")
			return
		}
		s.logger.Debug().Str("product_id", id).Msg("scan recorded")
	}()
}

// discrepancies lists token fields that disagree with the live record.
func discrepancies(token model.VerificationToken, product *model.ProductRecord, manufacturer *model.ManufacturerRecord) []string {
	var fields []string
	if token.ProductName != product.Name {
		fields = append(fields, "productName")
	}
	if token.BatchNumber != product.BatchNumber {
		fields = append(fields, "batchNumber")
	}
	if !token.ManufacturingDate.Equal(product.ManufacturingDate) {
		fields = append(fields, "manufacturingDate")
	}
	if !token.ExpiryDate.Equal(product.ExpiryDate) {
		fields = append(fields, "expiryDate")
	}
	if manufacturer != nil && token.ManufacturerName != manufacturer.Name {
		fields = append(fields, "manufacturerName")
	}
	if product.RegistrationTx != "" && token.SubmissionReceipt != product.RegistrationTx {
		fields = append(fields, "submissionReceipt")
	}
	return fields
}
