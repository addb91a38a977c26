package handler

import (
	"context"

	"veriscan/internal/model"
	"veriscan/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockRegistrationService is a mock implementation of service.RegistrationService.
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, session model.Session, input model.ProductInput) (*model.RegistrationResult, error) {
	args := m.Called(ctx, session, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegistrationResult), args.Error(1)
}

func (m *MockRegistrationService) ListOwn(ctx context.Context, session model.Session) ([]model.ProductRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductRecord), args.Error(1)
}

func (m *MockRegistrationService) Get(ctx context.Context, id string) (*model.ProductRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductRecord), args.Error(1)
}

func (m *MockRegistrationService) QRCode(ctx context.Context, session model.Session, id string) ([]byte, error) {
	args := m.Called(ctx, session, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockVerificationService is a mock implementation of service.VerificationService.
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Verify(ctx context.Context, raw string) (*model.Verdict, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockVerificationService) VerifyImage(ctx context.Context, image []byte) (*model.Verdict, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Verdict), args.Error(1)
}

func (m *MockVerificationService) Wait() {}

// MockManufacturerService is a mock implementation of service.ManufacturerService.
type MockManufacturerService struct {
	mock.Mock
}

func (m *MockManufacturerService) Register(ctx context.Context, session model.Session, profile model.ManufacturerProfile) (*model.ManufacturerRecord, error) {
	args := m.Called(ctx, session, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ManufacturerRecord), args.Error(1)
}

func (m *MockManufacturerService) Status(ctx context.Context, session model.Session) (*service.ManufacturerStatus, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ManufacturerStatus), args.Error(1)
}

func (m *MockManufacturerService) RequestVerification(ctx context.Context, session model.Session) (*model.ManufacturerRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ManufacturerRecord), args.Error(1)
}

func (m *MockManufacturerService) SetTrustFlags(ctx context.Context, session model.Session, target model.Address, flags model.TrustFlags) (*model.ManufacturerRecord, error) {
	args := m.Called(ctx, session, target, flags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ManufacturerRecord), args.Error(1)
}

func (m *MockManufacturerService) List(ctx context.Context, session model.Session) ([]model.ManufacturerRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ManufacturerRecord), args.Error(1)
}

func (m *MockManufacturerService) Stats(ctx context.Context, session model.Session) (model.Stats, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(model.Stats), args.Error(1)
}

func (m *MockManufacturerService) Products(ctx context.Context, session model.Session) ([]model.ProductRecord, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductRecord), args.Error(1)
}
