package postgres

import (
	"database/sql"
	"time"

	"github.com/datatrail-io/sextant/core/lineage"
)

type DependencyModel struct {
	ID             int64          `db:"id"`
	SourceID       int64          `db:"source_id"`
	ObjectID       int64          `db:"object_id"`
	TargetID       sql.NullInt64  `db:"target_id"`
	TargetSchema   sql.NullString `db:"target_schema"`
	TargetName     sql.NullString `db:"target_name"`
	TargetType     sql.NullString `db:"target_type"`
	DependencyType string         `db:"dependency_type"`
	ParsingSource  string         `db:"parsing_source"`
	Confidence     string         `db:"confidence"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func newDependencyModel(dep lineage.Dependency) DependencyModel {
	m := DependencyModel{
		ID:             dep.ID,
		SourceID:       dep.SourceID,
		ObjectID:       dep.ObjectID,
		DependencyType: string(dep.Type),
		ParsingSource:  dep.ParsingSource,
		Confidence:     string(dep.Confidence),
	}
	if targetID, ok := dep.Target.Internal(); ok {
		m.TargetID = sql.NullInt64{Int64: targetID, Valid: true}
	} else if ref, ok := dep.Target.External(); ok {
		m.TargetSchema = sql.NullString{String: ref.Schema, Valid: true}
		m.TargetName = sql.NullString{String: ref.Name, Valid: true}
		if ref.Type != "" {
			m.TargetType = sql.NullString{String: ref.Type, Valid: true}
		}
	}

	return m
}

func (m DependencyModel) toDependency() lineage.Dependency {
	dep := lineage.Dependency{
		ID:            m.ID,
		SourceID:      m.SourceID,
		ObjectID:      m.ObjectID,
		Type:          lineage.Type(m.DependencyType),
		ParsingSource: m.ParsingSource,
		Confidence:    lineage.Confidence(m.Confidence),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.TargetID.Valid {
		dep.Target = lineage.InternalTarget(m.TargetID.Int64)
	} else {
		dep.Target = lineage.ExternalTarget(lineage.ExternalRef{
			Schema: m.TargetSchema.String,
			Name:   m.TargetName.String,
			Type:   m.TargetType.String,
		})
	}

	return dep
}
