package lineage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/datatrail-io/sextant/core/catalog"
)

type Type string

const (
	TypeDirect   Type = "direct"
	TypeIndirect Type = "indirect"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeDirect, TypeIndirect:
		return true
	default:
		return false
	}
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Well-known parsing sources. ParsingSource is an open string; adapters
// may report their own provenance tags.
const (
	ParsingSourceManual   = "manual"
	ParsingSourceMetadata = "source_metadata"
	ParsingSourceSQL      = "sql_parsing"
)

// ExternalRef describes a dependency target that is not cataloged,
// e.g. a table in a schema the scan has no access to.
type ExternalRef struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
}

// Target is the far end of a dependency edge. It is either internal,
// pointing at a cataloged object by id, or external, carrying a
// descriptive reference. Exactly one of the two holds; the zero Target
// is invalid and rejected by the store.
type Target struct {
	objectID int64
	external *ExternalRef
}

func InternalTarget(objectID int64) Target {
	return Target{objectID: objectID}
}

func ExternalTarget(ref ExternalRef) Target {
	return Target{external: &ref}
}

// Internal returns the target object id if the target is cataloged.
func (t Target) Internal() (int64, bool) {
	return t.objectID, t.objectID != 0
}

// External returns the external reference if the target is not cataloged.
func (t Target) External() (ExternalRef, bool) {
	if t.external == nil {
		return ExternalRef{}, false
	}
	return *t.external, true
}

func (t Target) IsExternal() bool {
	return t.external != nil
}

func (t Target) IsZero() bool {
	return t.objectID == 0 && t.external == nil
}

type targetJSON struct {
	ObjectID int64        `json:"object_id,omitempty"`
	External *ExternalRef `json:"external,omitempty"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(targetJSON{ObjectID: t.objectID, External: t.external})
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var tj targetJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return err
	}
	t.objectID = tj.ObjectID
	t.external = tj.External
	return nil
}

// Dependency is a directed edge recording that ObjectID depends on Target.
// Its natural key is (object_id, target_id-or-null, parsing_source); upserts
// keyed on it keep re-ingestion idempotent.
type Dependency struct {
	ID            int64      `json:"id"`
	SourceID      int64      `json:"source_id"`
	ObjectID      int64      `json:"object_id"`
	Target        Target     `json:"target"`
	Type          Type       `json:"dependency_type"`
	ParsingSource string     `json:"parsing_source"`
	Confidence    Confidence `json:"confidence"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Counts holds per-object edge tallies. Upstream counts edges where the
// object is the dependent, downstream counts edges that point at it.
type Counts struct {
	Upstream   int `json:"upstream"`
	Downstream int `json:"downstream"`
}

type Repository interface {
	Upsert(ctx context.Context, dep Dependency) (Dependency, bool, error)
	UpsertBatch(ctx context.Context, sourceID int64, deps []Dependency, parsingSource string) (created, updated int, err error)
	// ReplaceParsingSource atomically reconciles a source's provenance
	// bucket against the batch: edges in the batch are upserted, edges
	// absent from it are removed, and a failure leaves the prior bucket
	// intact.
	ReplaceParsingSource(ctx context.Context, sourceID int64, deps []Dependency, parsingSource string) (created, updated int, err error)
	GetUpstream(ctx context.Context, objectID int64, includeExternal bool) ([]Dependency, error)
	GetDownstream(ctx context.Context, objectID int64) ([]Dependency, error)
	GetByNaturalKey(ctx context.Context, objectID, targetID int64, parsingSource string) (Dependency, error)
	Delete(ctx context.Context, id int64) error
	DeleteBySource(ctx context.Context, sourceID int64) error
	DeleteByParsingSource(ctx context.Context, sourceID int64, parsingSource string) error
	CountByObject(ctx context.Context, objectID int64) (Counts, error)
}

// ObjectStore is the slice of the catalog the lineage engine consumes.
// Implemented by the catalog repository.
type ObjectStore interface {
	ResolveByID(ctx context.Context, id int64) (catalog.Object, error)
	ResolveByRef(ctx context.Context, source, schema, name string) (catalog.Object, error)
	ListForSource(ctx context.Context, sourceID int64) ([]catalog.Object, error)
}
