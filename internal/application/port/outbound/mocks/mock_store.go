package mocks

import (
	"context"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Database() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockStore) FindByID(ctx context.Context, collection, id string, out any) error {
	args := m.Called(ctx, collection, id, out)
	return args.Error(0)
}

func (m *MockStore) FindAll(ctx context.Context, collection string, out any) error {
	args := m.Called(ctx, collection, out)
	return args.Error(0)
}

func (m *MockStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	args := m.Called(ctx, collection, out)
	return args.Error(0)
}

func (m *MockStore) Begin(ctx context.Context) (outbound.StoreTx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(outbound.StoreTx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockStoreTx struct {
	mock.Mock
}

func (m *MockStoreTx) Insert(ctx context.Context, collection string, docs []entity.Entity) error {
	args := m.Called(ctx, collection, docs)
	return args.Error(0)
}

func (m *MockStoreTx) Replace(ctx context.Context, collection string, docs []entity.Entity) error {
	args := m.Called(ctx, collection, docs)
	return args.Error(0)
}

func (m *MockStoreTx) Delete(ctx context.Context, collection string, ids []string) error {
	args := m.Called(ctx, collection, ids)
	return args.Error(0)
}

func (m *MockStoreTx) Disable(ctx context.Context, collection string, ids []string, audit outbound.Audit) error {
	args := m.Called(ctx, collection, ids, audit)
	return args.Error(0)
}

func (m *MockStoreTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStoreTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
