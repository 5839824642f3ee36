package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/datatrail-io/sextant/core/catalog"
)

// CatalogRepository manages sources and cataloged objects in the primary
// database. It also serves as the lineage engine's object store.
type CatalogRepository struct {
	client *Client
}

// NewCatalogRepository initializes catalog repository
func NewCatalogRepository(client *Client) (*CatalogRepository, error) {
	if client == nil {
		return nil, errNilPostgresClient
	}
	return &CatalogRepository{
		client: client,
	}, nil
}

// CreateSource registers a source by name; registering an existing name
// returns the existing row.
func (r *CatalogRepository) CreateSource(ctx context.Context, name string) (catalog.Source, error) {
	var sm SourceModel
	if err := r.client.GetContext(ctx, &sm, `
		INSERT INTO sources (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING *
	`, name); err != nil {
		return catalog.Source{}, fmt.Errorf("error creating source: %w", checkPostgresError(err))
	}
	return sm.toSource(), nil
}

func (r *CatalogRepository) GetSourceByName(ctx context.Context, name string) (catalog.Source, error) {
	var sm SourceModel
	if err := r.client.GetContext(ctx, &sm, `
		SELECT * FROM sources WHERE name = $1
	`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Source{}, catalog.SourceNotFoundError{Name: name}
		}
		return catalog.Source{}, err
	}
	return sm.toSource(), nil
}

// UpsertObject inserts or refreshes an object by its (source, schema,
// name) key. Re-upserting a soft-deleted object revives it.
func (r *CatalogRepository) UpsertObject(ctx context.Context, obj *catalog.Object) (int64, error) {
	if obj == nil {
		return 0, catalog.ErrNilObject
	}
	if obj.SchemaName == "" {
		return 0, catalog.ErrEmptySchema
	}
	if obj.Name == "" {
		return 0, catalog.ErrEmptyName
	}

	objType := obj.Type
	if objType == "" {
		objType = catalog.TypeTable
	}

	var id int64
	if err := r.client.GetContext(ctx, &id, `
		INSERT INTO catalog_objects
			(source_id, schema_name, name, object_type)
		VALUES
			($1, $2, $3, $4)
		ON CONFLICT (source_id, schema_name, name)
		DO UPDATE SET object_type = EXCLUDED.object_type, updated_at = NOW(), deleted_at = NULL
		RETURNING id
	`, obj.SourceID, obj.SchemaName, obj.Name, objType.String()); err != nil {
		return 0, fmt.Errorf("error upserting object: %w", checkPostgresError(err))
	}
	return id, nil
}

func (r *CatalogRepository) SoftDeleteObject(ctx context.Context, id int64) error {
	result, err := r.client.ExecContext(ctx, `
		UPDATE catalog_objects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("error soft deleting object: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalog.NotFoundError{ObjectID: id}
	}
	return nil
}

// ResolveByID fetches an object whether or not it is soft deleted, so
// traversal can still name historical edge endpoints.
func (r *CatalogRepository) ResolveByID(ctx context.Context, id int64) (catalog.Object, error) {
	var om ObjectModel
	if err := r.client.GetContext(ctx, &om, `
		SELECT o.*, s.name AS source_name
		FROM catalog_objects o
		JOIN sources s ON s.id = o.source_id
		WHERE o.id = $1
	`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Object{}, catalog.NotFoundError{ObjectID: id}
		}
		return catalog.Object{}, err
	}
	return om.toObject(), nil
}

func (r *CatalogRepository) ResolveByName(ctx context.Context, sourceID int64, schema, name string) (catalog.Object, error) {
	var om ObjectModel
	if err := r.client.GetContext(ctx, &om, `
		SELECT o.*, s.name AS source_name
		FROM catalog_objects o
		JOIN sources s ON s.id = o.source_id
		WHERE o.source_id = $1 AND o.schema_name = $2 AND o.name = $3 AND o.deleted_at IS NULL
	`, sourceID, schema, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Object{}, catalog.NotFoundError{Ref: fmt.Sprintf("%d.%s.%s", sourceID, schema, name)}
		}
		return catalog.Object{}, err
	}
	return om.toObject(), nil
}

func (r *CatalogRepository) ResolveByRef(ctx context.Context, source, schema, name string) (catalog.Object, error) {
	var om ObjectModel
	if err := r.client.GetContext(ctx, &om, `
		SELECT o.*, s.name AS source_name
		FROM catalog_objects o
		JOIN sources s ON s.id = o.source_id
		WHERE s.name = $1 AND o.schema_name = $2 AND o.name = $3 AND o.deleted_at IS NULL
	`, source, schema, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.Object{}, catalog.NotFoundError{Ref: fmt.Sprintf("%s.%s.%s", source, schema, name)}
		}
		return catalog.Object{}, err
	}
	return om.toObject(), nil
}

// ListForSource returns a source's live objects; soft-deleted ones are
// excluded so ingestion cannot attach edges to them.
func (r *CatalogRepository) ListForSource(ctx context.Context, sourceID int64) ([]catalog.Object, error) {
	var models []ObjectModel
	if err := r.client.SelectContext(ctx, &models, `
		SELECT o.*, s.name AS source_name
		FROM catalog_objects o
		JOIN sources s ON s.id = o.source_id
		WHERE o.source_id = $1 AND o.deleted_at IS NULL
		ORDER BY o.id
	`, sourceID); err != nil {
		return nil, fmt.Errorf("error listing objects for source: %w", err)
	}

	objects := make([]catalog.Object, 0, len(models))
	for _, om := range models {
		objects = append(objects, om.toObject())
	}
	return objects, nil
}
