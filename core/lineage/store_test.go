package lineage_test

import (
	"context"
	"sort"
	"time"

	"github.com/datatrail-io/sextant/core/catalog"
	"github.com/datatrail-io/sextant/core/lineage"
)

// inmemStore implements lineage.Repository and lineage.ObjectStore with
// the same upsert and listing semantics as the postgres repositories. It
// backs the behavioral tests for traversal and reconciliation.
type inmemStore struct {
	nextObjectID int64
	nextDepID    int64
	sources      map[int64]string
	objects      map[int64]catalog.Object
	deps         map[int64]lineage.Dependency
}

func newInmemStore() *inmemStore {
	return &inmemStore{
		sources: map[int64]string{},
		objects: map[int64]catalog.Object{},
		deps:    map[int64]lineage.Dependency{},
	}
}

func (s *inmemStore) addSource(id int64, name string) {
	s.sources[id] = name
}

func (s *inmemStore) addObject(sourceID int64, schema, name string) catalog.Object {
	s.nextObjectID++
	obj := catalog.Object{
		ID:         s.nextObjectID,
		SourceID:   sourceID,
		SourceName: s.sources[sourceID],
		SchemaName: schema,
		Name:       name,
		Type:       catalog.TypeTable,
	}
	s.objects[obj.ID] = obj
	return obj
}

func (s *inmemStore) softDeleteObject(id int64) {
	obj := s.objects[id]
	now := time.Now()
	obj.DeletedAt = &now
	s.objects[id] = obj
}

func (s *inmemStore) ResolveByID(_ context.Context, id int64) (catalog.Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return catalog.Object{}, catalog.NotFoundError{ObjectID: id}
	}
	return obj, nil
}

func (s *inmemStore) ResolveByRef(_ context.Context, source, schema, name string) (catalog.Object, error) {
	for _, obj := range s.objects {
		if obj.SourceName == source && obj.SchemaName == schema && obj.Name == name {
			return obj, nil
		}
	}
	return catalog.Object{}, catalog.NotFoundError{Ref: source + "." + schema + "." + name}
}

func (s *inmemStore) ListForSource(_ context.Context, sourceID int64) ([]catalog.Object, error) {
	var objs []catalog.Object
	for _, obj := range s.objects {
		if obj.SourceID == sourceID && obj.DeletedAt == nil {
			objs = append(objs, obj)
		}
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs, nil
}

func sameNaturalKey(a, b lineage.Dependency) bool {
	if a.ObjectID != b.ObjectID || a.ParsingSource != b.ParsingSource {
		return false
	}
	aID, aInternal := a.Target.Internal()
	bID, bInternal := b.Target.Internal()
	if aInternal != bInternal {
		return false
	}
	return !aInternal || aID == bID
}

func (s *inmemStore) Upsert(_ context.Context, dep lineage.Dependency) (lineage.Dependency, bool, error) {
	if dep.Target.IsZero() {
		return lineage.Dependency{}, false, lineage.ErrZeroTarget
	}
	for id, existing := range s.deps {
		if sameNaturalKey(existing, dep) {
			existing.Type = dep.Type
			existing.Confidence = dep.Confidence
			existing.Target = dep.Target
			existing.UpdatedAt = time.Now()
			s.deps[id] = existing
			return existing, false, nil
		}
	}

	s.nextDepID++
	dep.ID = s.nextDepID
	dep.CreatedAt = time.Now()
	dep.UpdatedAt = dep.CreatedAt
	s.deps[dep.ID] = dep
	return dep, true, nil
}

func (s *inmemStore) UpsertBatch(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (int, int, error) {
	var created, updated int
	for _, dep := range deps {
		dep.SourceID = sourceID
		dep.ParsingSource = parsingSource
		_, isNew, err := s.Upsert(ctx, dep)
		if err != nil {
			return created, updated, err
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// ReplaceParsingSource mirrors the transactional reconcile of the
// postgres repository: on error the snapshot is restored so the prior
// bucket contents survive.
func (s *inmemStore) ReplaceParsingSource(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (int, int, error) {
	snapshot := make(map[int64]lineage.Dependency, len(s.deps))
	for id, dep := range s.deps {
		snapshot[id] = dep
	}

	var created, updated int
	kept := map[int64]bool{}
	for _, dep := range deps {
		dep.SourceID = sourceID
		dep.ParsingSource = parsingSource
		out, isNew, err := s.Upsert(ctx, dep)
		if err != nil {
			s.deps = snapshot
			return 0, 0, err
		}
		if isNew {
			created++
		} else {
			updated++
		}
		kept[out.ID] = true
	}

	for id, dep := range s.deps {
		if dep.SourceID == sourceID && dep.ParsingSource == parsingSource && !kept[id] {
			delete(s.deps, id)
		}
	}
	return created, updated, nil
}

func (s *inmemStore) GetUpstream(_ context.Context, objectID int64, includeExternal bool) ([]lineage.Dependency, error) {
	var out []lineage.Dependency
	for _, dep := range s.deps {
		if dep.ObjectID != objectID {
			continue
		}
		if !includeExternal && dep.Target.IsExternal() {
			continue
		}
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inmemStore) GetDownstream(_ context.Context, objectID int64) ([]lineage.Dependency, error) {
	var out []lineage.Dependency
	for _, dep := range s.deps {
		if targetID, ok := dep.Target.Internal(); ok && targetID == objectID {
			out = append(out, dep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inmemStore) GetByNaturalKey(_ context.Context, objectID, targetID int64, parsingSource string) (lineage.Dependency, error) {
	for _, dep := range s.deps {
		tid, ok := dep.Target.Internal()
		if ok && dep.ObjectID == objectID && tid == targetID && dep.ParsingSource == parsingSource {
			return dep, nil
		}
	}
	return lineage.Dependency{}, lineage.NotFoundError{ObjectID: objectID, TargetID: targetID, ParsingSource: parsingSource}
}

func (s *inmemStore) Delete(_ context.Context, id int64) error {
	delete(s.deps, id)
	return nil
}

func (s *inmemStore) DeleteBySource(_ context.Context, sourceID int64) error {
	for id, dep := range s.deps {
		if dep.SourceID == sourceID {
			delete(s.deps, id)
		}
	}
	return nil
}

func (s *inmemStore) DeleteByParsingSource(_ context.Context, sourceID int64, parsingSource string) error {
	for id, dep := range s.deps {
		if dep.SourceID == sourceID && dep.ParsingSource == parsingSource {
			delete(s.deps, id)
		}
	}
	return nil
}

func (s *inmemStore) CountByObject(_ context.Context, objectID int64) (lineage.Counts, error) {
	var counts lineage.Counts
	for _, dep := range s.deps {
		if dep.ObjectID == objectID {
			counts.Upstream++
		}
		if targetID, ok := dep.Target.Internal(); ok && targetID == objectID {
			counts.Downstream++
		}
	}
	return counts, nil
}

// allDependencies returns every stored edge ordered by id.
func (s *inmemStore) allDependencies() []lineage.Dependency {
	var out []lineage.Dependency
	for _, dep := range s.deps {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
