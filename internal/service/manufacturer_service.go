package service

import (
	"context"
	"time"

	"veriscan/internal/model"
	"veriscan/internal/registry"
	"veriscan/internal/trust"

	"github.com/rs/zerolog"
)

// manufacturerService implements ManufacturerService. Transitions are
// pre-checked with the trust rules so illegal requests never reach the ledger.
type manufacturerService struct {
	registry registry.Client
	logger   zerolog.Logger
	now      func() time.Time
}

// NewManufacturerService creates a new manufacturer service.
func NewManufacturerService(registry registry.Client, logger zerolog.Logger) ManufacturerService {
	return &manufacturerService{
		registry: registry,
		logger:   logger.With().Str("service", "manufacturer").Logger(),
		now:      time.Now,
	}
}

func (s *manufacturerService) Register(ctx context.Context, session model.Session, profile model.ManufacturerProfile) (*model.ManufacturerRecord, error) {
	if err := requireRole(session, model.RoleManufacturer); err != nil {
		return nil, err
	}

	existing, err := s.registry.GetManufacturer(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	if _, err := trust.Register(existing, session.Address, profile, s.now()); err != nil {
		return nil, err
	}

	if _, err := s.registry.RegisterManufacturer(ctx, session.Address, profile); err != nil {
		s.logger.Warn().Err(err).Str("address", session.Address.String()).Msg("manufacturer registration failed")
		return nil, err
	}

	s.logger.Info().
		Str("address", session.Address.String()).
		Str("name", profile.Name).
		Msg("manufacturer registered")

	return s.reload(ctx, session.Address)
}

func (s *manufacturerService) Status(ctx context.Context, session model.Session) (*ManufacturerStatus, error) {
	if session.Anonymous() {
		return nil, model.ErrUnauthorised.WithMessage("a caller address is required")
	}

	rec, err := s.registry.GetManufacturer(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	if !rec.IsRegistered() {
		return nil, model.ErrManufacturerNotFound
	}

	return &ManufacturerStatus{
		Manufacturer:        *rec,
		Phase:               string(trust.PhaseOf(rec)),
		CanRegisterProducts: trust.CanRegisterProducts(rec),
	}, nil
}

func (s *manufacturerService) RequestVerification(ctx context.Context, session model.Session) (*model.ManufacturerRecord, error) {
	if err := requireRole(session, model.RoleManufacturer); err != nil {
		return nil, err
	}

	existing, err := s.registry.GetManufacturer(ctx, session.Address)
	if err != nil {
		return nil, err
	}
	if _, err := trust.RequestVerification(existing); err != nil {
		return nil, err
	}

	if _, err := s.registry.RequestVerification(ctx, session.Address); err != nil {
		s.logger.Warn().Err(err).Str("address", session.Address.String()).Msg("verification request failed")
		return nil, err
	}

	s.logger.Info().Str("address", session.Address.String()).Msg("verification requested")

	return s.reload(ctx, session.Address)
}

func (s *manufacturerService) SetTrustFlags(ctx context.Context, session model.Session, target model.Address, flags model.TrustFlags) (*model.ManufacturerRecord, error) {
	if err := requireRole(session, model.RoleAdmin); err != nil {
		return nil, err
	}

	existing, err := s.registry.GetManufacturer(ctx, target)
	if err != nil {
		return nil, err
	}
	if _, err := trust.ApplyFlags(existing, target, flags); err != nil {
		return nil, err
	}

	if _, err := s.registry.SetTrustFlags(ctx, session.Address, target, flags); err != nil {
		s.logger.Warn().Err(err).Str("target", target.String()).Msg("trust flag update failed")
		return nil, err
	}

	event := s.logger.Info().Str("target", target.String()).Str("admin", session.Address.String())
	if flags.Verified != nil {
		event = event.Bool("verified", *flags.Verified)
	}
	if flags.Flagged != nil {
		event = event.Bool("flagged", *flags.Flagged)
	}
	event.Msg("trust flags updated")

	return s.reload(ctx, target)
}

func (s *manufacturerService) List(ctx context.Context, session model.Session) ([]model.ManufacturerRecord, error) {
	if err := requireRole(session, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.registry.ListManufacturers(ctx)
}

func (s *manufacturerService) Stats(ctx context.Context, session model.Session) (model.Stats, error) {
	if err := requireRole(session, model.RoleAdmin); err != nil {
		return model.Stats{}, err
	}
	return s.registry.GetStats(ctx)
}

func (s *manufacturerService) Products(ctx context.Context, session model.Session) ([]model.ProductRecord, error) {
	if err := requireRole(session, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.registry.ListProducts(ctx)
}

func (s *manufacturerService) reload(ctx context.Context, addr model.Address) (*model.ManufacturerRecord, error) {
	rec, err := s.registry.GetManufacturer(ctx, addr)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, model.ErrManufacturerNotFound
	}
	return rec, nil
}
