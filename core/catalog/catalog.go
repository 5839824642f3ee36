package catalog

import (
	"context"
	"fmt"
	"time"
)

type Type string

const (
	TypeTable            Type = "table"
	TypeView             Type = "view"
	TypeMaterializedView Type = "materialized_view"
)

// AllSupportedTypes is the list of object types a source scan may report.
var AllSupportedTypes = []Type{
	TypeTable,
	TypeView,
	TypeMaterializedView,
}

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case TypeTable, TypeView, TypeMaterializedView:
		return true
	default:
		return false
	}
}

// Source is a registered data source (a warehouse, database, etc.)
// that owns catalog objects.
type Source struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Object is a cataloged table or view belonging to a source.
// An object is soft deleted by setting DeletedAt; soft-deleted objects
// are excluded from per-source listings.
type Object struct {
	ID         int64      `json:"id"`
	SourceID   int64      `json:"source_id"`
	SourceName string     `json:"source_name"`
	SchemaName string     `json:"schema_name"`
	Name       string     `json:"name"`
	Type       Type       `json:"type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// QualifiedName returns the "source.schema.name" form of the object.
func (o Object) QualifiedName() string {
	return fmt.Sprintf("%s.%s.%s", o.SourceName, o.SchemaName, o.Name)
}

type Repository interface {
	CreateSource(ctx context.Context, name string) (Source, error)
	GetSourceByName(ctx context.Context, name string) (Source, error)
	UpsertObject(ctx context.Context, obj *Object) (int64, error)
	SoftDeleteObject(ctx context.Context, id int64) error
	ResolveByID(ctx context.Context, id int64) (Object, error)
	ResolveByName(ctx context.Context, sourceID int64, schema, name string) (Object, error)
	ResolveByRef(ctx context.Context, source, schema, name string) (Object, error)
	ListForSource(ctx context.Context, sourceID int64) ([]Object, error)
}
