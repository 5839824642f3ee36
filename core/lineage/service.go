package lineage

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/datatrail-io/sextant/core/catalog"
)

type Service struct {
	objects      ObjectStore
	dependencies Repository
	resolver     *Resolver
	ingestor     *Ingestor

	lineageOpCounter metric.Int64Counter
}

type ServiceDeps struct {
	Objects      ObjectStore
	Dependencies Repository
}

func NewService(deps ServiceDeps) *Service {
	lineageOpCounter, err := otel.Meter("github.com/datatrail-io/sextant/core/lineage").
		Int64Counter("sextant.lineage.operation")
	if err != nil {
		otel.Handle(err)
	}

	return &Service{
		objects:      deps.Objects,
		dependencies: deps.Dependencies,
		resolver:     NewResolver(deps.Objects, deps.Dependencies),
		ingestor:     NewIngestor(deps.Objects, deps.Dependencies),

		lineageOpCounter: lineageOpCounter,
	}
}

func (s *Service) GetLineage(ctx context.Context, rootID int64, dir Direction, depth int) (graph Graph, err error) {
	defer func() {
		s.instrumentLineageOp(ctx, "GetLineage", err)
	}()

	return s.resolver.Resolve(ctx, rootID, dir, depth)
}

func (s *Service) GetSummary(ctx context.Context, objectID int64) (Summary, error) {
	return s.ingestor.Summary(ctx, objectID)
}

func (s *Service) IngestDependencies(ctx context.Context, sourceID int64, raw []RawDependency, parsingSource string, clearExisting bool) (res IngestResult, err error) {
	defer func() {
		s.instrumentLineageOp(ctx, "IngestDependencies", err)
	}()

	return s.ingestor.Ingest(ctx, sourceID, raw, parsingSource, clearExisting)
}

// AddManualDependency records a user-authored edge between two objects,
// each given as a numeric id or a "source.schema.name" string. Manual
// edges live in their own provenance bucket and survive automated
// re-ingestion.
func (s *Service) AddManualDependency(ctx context.Context, objectIdent, targetIdent string, depType Type) (dep Dependency, err error) {
	defer func() {
		s.instrumentLineageOp(ctx, "AddManualDependency", err)
	}()

	if depType == "" {
		depType = TypeDirect
	}

	obj, err := s.resolveIdentifier(ctx, objectIdent)
	if err != nil {
		return Dependency{}, err
	}
	target, err := s.resolveIdentifier(ctx, targetIdent)
	if err != nil {
		return Dependency{}, err
	}
	if obj.ID == target.ID {
		return Dependency{}, ErrSelfDependency
	}

	dep, _, err = s.dependencies.Upsert(ctx, Dependency{
		SourceID:      obj.SourceID,
		ObjectID:      obj.ID,
		Target:        InternalTarget(target.ID),
		Type:          depType,
		ParsingSource: ParsingSourceManual,
		Confidence:    ConfidenceHigh,
	})
	if err != nil {
		return Dependency{}, err
	}

	return dep, nil
}

// RemoveManualDependency deletes the manual edge between two objects if
// one exists, reporting whether anything was removed. Edges from other
// provenances are never touched.
func (s *Service) RemoveManualDependency(ctx context.Context, objectID, targetID int64) (removed bool, err error) {
	defer func() {
		s.instrumentLineageOp(ctx, "RemoveManualDependency", err)
	}()

	dep, err := s.dependencies.GetByNaturalKey(ctx, objectID, targetID, ParsingSourceManual)
	if err != nil {
		if errors.As(err, &NotFoundError{}) {
			return false, nil
		}
		return false, err
	}

	if err := s.dependencies.Delete(ctx, dep.ID); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteSourceDependencies removes a source's edges: every provenance
// bucket when parsingSource is empty, otherwise only the named bucket.
// Used when the source itself is deleted or a scanner is retired.
func (s *Service) DeleteSourceDependencies(ctx context.Context, sourceID int64, parsingSource string) error {
	if parsingSource != "" {
		return s.dependencies.DeleteByParsingSource(ctx, sourceID, parsingSource)
	}
	return s.dependencies.DeleteBySource(ctx, sourceID)
}

func (s *Service) resolveIdentifier(ctx context.Context, ident string) (catalog.Object, error) {
	if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
		return s.objects.ResolveByID(ctx, id)
	}

	parts := strings.SplitN(ident, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return catalog.Object{}, InvalidIdentifierError{Identifier: ident}
	}

	return s.objects.ResolveByRef(ctx, parts[0], parts[1], parts[2])
}

func (s *Service) instrumentLineageOp(ctx context.Context, op string, err error) {
	s.lineageOpCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("lineage.operation", op),
		attribute.Bool("lineage.operation.success", err == nil),
	))
}
