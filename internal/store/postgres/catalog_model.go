package postgres

import (
	"database/sql"
	"time"

	"github.com/datatrail-io/sextant/core/catalog"
)

type SourceModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (m SourceModel) toSource() catalog.Source {
	return catalog.Source{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

type ObjectModel struct {
	ID         int64        `db:"id"`
	SourceID   int64        `db:"source_id"`
	SourceName string       `db:"source_name"`
	SchemaName string       `db:"schema_name"`
	Name       string       `db:"name"`
	Type       string       `db:"object_type"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	DeletedAt  sql.NullTime `db:"deleted_at"`
}

func (m ObjectModel) toObject() catalog.Object {
	obj := catalog.Object{
		ID:         m.ID,
		SourceID:   m.SourceID,
		SourceName: m.SourceName,
		SchemaName: m.SchemaName,
		Name:       m.Name,
		Type:       catalog.Type(m.Type),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		deletedAt := m.DeletedAt.Time
		obj.DeletedAt = &deletedAt
	}

	return obj
}
