package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/datatrail-io/sextant/core/catalog"
	"github.com/datatrail-io/sextant/core/lineage"
)

type DependencyRepository struct {
	mock.Mock
}

func (repo *DependencyRepository) Upsert(ctx context.Context, dep lineage.Dependency) (lineage.Dependency, bool, error) {
	args := repo.Called(ctx, dep)
	return args.Get(0).(lineage.Dependency), args.Bool(1), args.Error(2)
}

func (repo *DependencyRepository) UpsertBatch(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (int, int, error) {
	args := repo.Called(ctx, sourceID, deps, parsingSource)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (repo *DependencyRepository) ReplaceParsingSource(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (int, int, error) {
	args := repo.Called(ctx, sourceID, deps, parsingSource)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (repo *DependencyRepository) GetUpstream(ctx context.Context, objectID int64, includeExternal bool) ([]lineage.Dependency, error) {
	args := repo.Called(ctx, objectID, includeExternal)
	return args.Get(0).([]lineage.Dependency), args.Error(1)
}

func (repo *DependencyRepository) GetDownstream(ctx context.Context, objectID int64) ([]lineage.Dependency, error) {
	args := repo.Called(ctx, objectID)
	return args.Get(0).([]lineage.Dependency), args.Error(1)
}

func (repo *DependencyRepository) GetByNaturalKey(ctx context.Context, objectID, targetID int64, parsingSource string) (lineage.Dependency, error) {
	args := repo.Called(ctx, objectID, targetID, parsingSource)
	return args.Get(0).(lineage.Dependency), args.Error(1)
}

func (repo *DependencyRepository) Delete(ctx context.Context, id int64) error {
	args := repo.Called(ctx, id)
	return args.Error(0)
}

func (repo *DependencyRepository) DeleteBySource(ctx context.Context, sourceID int64) error {
	args := repo.Called(ctx, sourceID)
	return args.Error(0)
}

func (repo *DependencyRepository) DeleteByParsingSource(ctx context.Context, sourceID int64, parsingSource string) error {
	args := repo.Called(ctx, sourceID, parsingSource)
	return args.Error(0)
}

func (repo *DependencyRepository) CountByObject(ctx context.Context, objectID int64) (lineage.Counts, error) {
	args := repo.Called(ctx, objectID)
	return args.Get(0).(lineage.Counts), args.Error(1)
}

type ObjectStore struct {
	mock.Mock
}

func (store *ObjectStore) ResolveByID(ctx context.Context, id int64) (catalog.Object, error) {
	args := store.Called(ctx, id)
	return args.Get(0).(catalog.Object), args.Error(1)
}

func (store *ObjectStore) ResolveByRef(ctx context.Context, source, schema, name string) (catalog.Object, error) {
	args := store.Called(ctx, source, schema, name)
	return args.Get(0).(catalog.Object), args.Error(1)
}

func (store *ObjectStore) ListForSource(ctx context.Context, sourceID int64) ([]catalog.Object, error) {
	args := store.Called(ctx, sourceID)
	return args.Get(0).([]catalog.Object), args.Error(1)
}
