package service

import (
	"context"

	"veriscan/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockRegistry is a mock implementation of registry.Client.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) SubmitProduct(ctx context.Context, caller model.Address, record model.ProductRecord) (model.Receipt, error) {
	args := m.Called(ctx, caller, record)
	return args.Get(0).(model.Receipt), args.Error(1)
}

func (m *MockRegistry) GetProduct(ctx context.Context, id string) (*model.ProductRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductRecord), args.Error(1)
}

func (m *MockRegistry) ListProductsByOwner(ctx context.Context, owner model.Address) ([]model.ProductRecord, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductRecord), args.Error(1)
}

func (m *MockRegistry) ListProducts(ctx context.Context) ([]model.ProductRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductRecord), args.Error(1)
}

func (m *MockRegistry) RegisterManufacturer(ctx context.Context, caller model.Address, profile model.ManufacturerProfile) (model.Receipt, error) {
	args := m.Called(ctx, caller, profile)
	return args.Get(0).(model.Receipt), args.Error(1)
}

func (m *MockRegistry) GetManufacturer(ctx context.Context, addr model.Address) (*model.ManufacturerRecord, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ManufacturerRecord), args.Error(1)
}

func (m *MockRegistry) ListManufacturers(ctx context.Context) ([]model.ManufacturerRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ManufacturerRecord), args.Error(1)
}

func (m *MockRegistry) RequestVerification(ctx context.Context, caller model.Address) (model.Receipt, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(model.Receipt), args.Error(1)
}

func (m *MockRegistry) SetTrustFlags(ctx context.Context, caller, target model.Address, flags model.TrustFlags) (model.Receipt, error) {
	args := m.Called(ctx, caller, target, flags)
	return args.Get(0).(model.Receipt), args.Error(1)
}

func (m *MockRegistry) RecordScan(ctx context.Context, id string) (model.Receipt, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Receipt), args.Error(1)
}

func (m *MockRegistry) GetStats(ctx context.Context) (model.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Stats), args.Error(1)
}
