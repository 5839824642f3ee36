package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/datatrail-io/sextant/core/catalog"
)

type CatalogRepository struct {
	mock.Mock
}

func (repo *CatalogRepository) CreateSource(ctx context.Context, name string) (catalog.Source, error) {
	args := repo.Called(ctx, name)
	return args.Get(0).(catalog.Source), args.Error(1)
}

func (repo *CatalogRepository) GetSourceByName(ctx context.Context, name string) (catalog.Source, error) {
	args := repo.Called(ctx, name)
	return args.Get(0).(catalog.Source), args.Error(1)
}

func (repo *CatalogRepository) UpsertObject(ctx context.Context, obj *catalog.Object) (int64, error) {
	args := repo.Called(ctx, obj)
	return args.Get(0).(int64), args.Error(1)
}

func (repo *CatalogRepository) SoftDeleteObject(ctx context.Context, id int64) error {
	args := repo.Called(ctx, id)
	return args.Error(0)
}

func (repo *CatalogRepository) ResolveByID(ctx context.Context, id int64) (catalog.Object, error) {
	args := repo.Called(ctx, id)
	return args.Get(0).(catalog.Object), args.Error(1)
}

func (repo *CatalogRepository) ResolveByName(ctx context.Context, sourceID int64, schema, name string) (catalog.Object, error) {
	args := repo.Called(ctx, sourceID, schema, name)
	return args.Get(0).(catalog.Object), args.Error(1)
}

func (repo *CatalogRepository) ResolveByRef(ctx context.Context, source, schema, name string) (catalog.Object, error) {
	args := repo.Called(ctx, source, schema, name)
	return args.Get(0).(catalog.Object), args.Error(1)
}

func (repo *CatalogRepository) ListForSource(ctx context.Context, sourceID int64) ([]catalog.Object, error) {
	args := repo.Called(ctx, sourceID)
	return args.Get(0).([]catalog.Object), args.Error(1)
}
