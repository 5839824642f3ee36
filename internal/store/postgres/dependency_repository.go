package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/datatrail-io/sextant/core/lineage"
)

// DependencyRepository persists dependency edges keyed on
// (object_id, target_id-or-null, parsing_source).
type DependencyRepository struct {
	client *Client
}

// NewDependencyRepository initializes dependency repository
func NewDependencyRepository(client *Client) (*DependencyRepository, error) {
	if client == nil {
		return nil, errNilPostgresClient
	}
	return &DependencyRepository{
		client: client,
	}, nil
}

// Upsert inserts an edge or, when its natural key exists, updates the
// existing row's type, confidence and external target in place; id and
// endpoints are never mutated. The returned flag reports an insert.
func (repo *DependencyRepository) Upsert(ctx context.Context, dep lineage.Dependency) (lineage.Dependency, bool, error) {
	var (
		out     lineage.Dependency
		created bool
	)
	err := repo.client.RunWithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		out, created, err = repo.upsertWithTx(ctx, tx, dep)
		return err
	})
	return out, created, err
}

// UpsertBatch applies Upsert per entry within one transaction; a failed
// entry rolls back the whole batch.
func (repo *DependencyRepository) UpsertBatch(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (created, updated int, err error) {
	err = repo.client.RunWithinTx(ctx, func(tx *sqlx.Tx) error {
		for _, dep := range deps {
			dep.SourceID = sourceID
			dep.ParsingSource = parsingSource

			_, isNew, err := repo.upsertWithTx(ctx, tx, dep)
			if err != nil {
				return err
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

// ReplaceParsingSource reconciles a source's provenance bucket against
// the given batch in one transaction: entries are upserted on their
// natural key so surviving edges keep their ids, then bucket rows absent
// from the batch are deleted. The commit is all-or-nothing; a failed
// entry leaves the prior bucket contents untouched.
func (repo *DependencyRepository) ReplaceParsingSource(ctx context.Context, sourceID int64, deps []lineage.Dependency, parsingSource string) (created, updated int, err error) {
	err = repo.client.RunWithinTx(ctx, func(tx *sqlx.Tx) error {
		kept := make([]int64, 0, len(deps))
		for _, dep := range deps {
			dep.SourceID = sourceID
			dep.ParsingSource = parsingSource

			out, isNew, err := repo.upsertWithTx(ctx, tx, dep)
			if err != nil {
				return err
			}
			if isNew {
				created++
			} else {
				updated++
			}
			kept = append(kept, out.ID)
		}

		builder := sq.Delete("dependencies").
			Where(sq.Eq{"source_id": sourceID, "parsing_source": parsingSource}).
			PlaceholderFormat(sq.Dollar)
		if len(kept) > 0 {
			builder = builder.Where(sq.NotEq{"id": kept})
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("error building stale dependency delete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error deleting stale dependencies: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

func (repo *DependencyRepository) upsertWithTx(ctx context.Context, tx *sqlx.Tx, dep lineage.Dependency) (lineage.Dependency, bool, error) {
	if dep.Target.IsZero() {
		return lineage.Dependency{}, false, lineage.ErrZeroTarget
	}

	m := newDependencyModel(dep)

	var existing DependencyModel
	err := tx.GetContext(ctx, &existing, `
		SELECT * FROM dependencies
		WHERE object_id = $1 AND target_id IS NOT DISTINCT FROM $2 AND parsing_source = $3
		FOR UPDATE
	`, m.ObjectID, m.TargetID, m.ParsingSource)

	switch {
	case err == nil:
		var updated DependencyModel
		if err := tx.GetContext(ctx, &updated, `
			UPDATE dependencies
			SET dependency_type = $1, confidence = $2, target_schema = $3, target_name = $4, target_type = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING *
		`, m.DependencyType, m.Confidence, m.TargetSchema, m.TargetName, m.TargetType, existing.ID); err != nil {
			return lineage.Dependency{}, false, lineage.StorageError{Op: "update dependency", Err: checkPostgresError(err)}
		}
		return updated.toDependency(), false, nil

	case errors.Is(err, sql.ErrNoRows):
		var inserted DependencyModel
		if err := tx.GetContext(ctx, &inserted, `
			INSERT INTO dependencies
				(source_id, object_id, target_id, target_schema, target_name, target_type, dependency_type, parsing_source, confidence)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		`, m.SourceID, m.ObjectID, m.TargetID, m.TargetSchema, m.TargetName, m.TargetType, m.DependencyType, m.ParsingSource, m.Confidence); err != nil {
			// a concurrent upsert of the same natural key loses the insert
			// race and surfaces the constraint violation
			return lineage.Dependency{}, false, lineage.StorageError{Op: "insert dependency", Err: checkPostgresError(err)}
		}
		return inserted.toDependency(), true, nil

	default:
		return lineage.Dependency{}, false, fmt.Errorf("error looking up dependency by natural key: %w", err)
	}
}

// GetUpstream returns the edges a given object depends on, ordered by id.
func (repo *DependencyRepository) GetUpstream(ctx context.Context, objectID int64, includeExternal bool) ([]lineage.Dependency, error) {
	builder := sq.Select("*").
		From("dependencies").
		Where(sq.Eq{"object_id": objectID}).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar)
	if !includeExternal {
		builder = builder.Where("target_id IS NOT NULL")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building upstream query: %w", err)
	}

	var models []DependencyModel
	if err := repo.client.SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("error running upstream query: %w", err)
	}

	return toDependencies(models), nil
}

// GetDownstream returns the edges of objects that depend on the given
// object, ordered by id.
func (repo *DependencyRepository) GetDownstream(ctx context.Context, objectID int64) ([]lineage.Dependency, error) {
	var models []DependencyModel
	if err := repo.client.SelectContext(ctx, &models, `
		SELECT * FROM dependencies WHERE target_id = $1 ORDER BY id
	`, objectID); err != nil {
		return nil, fmt.Errorf("error running downstream query: %w", err)
	}

	return toDependencies(models), nil
}

func (repo *DependencyRepository) GetByNaturalKey(ctx context.Context, objectID, targetID int64, parsingSource string) (lineage.Dependency, error) {
	var m DependencyModel
	if err := repo.client.GetContext(ctx, &m, `
		SELECT * FROM dependencies
		WHERE object_id = $1 AND target_id = $2 AND parsing_source = $3
	`, objectID, targetID, parsingSource); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lineage.Dependency{}, lineage.NotFoundError{ObjectID: objectID, TargetID: targetID, ParsingSource: parsingSource}
		}
		return lineage.Dependency{}, err
	}
	return m.toDependency(), nil
}

func (repo *DependencyRepository) Delete(ctx context.Context, id int64) error {
	if _, err := repo.client.ExecContext(ctx, `
		DELETE FROM dependencies WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("error deleting dependency: %w", err)
	}
	return nil
}

// DeleteBySource removes every edge owned by a source across all
// provenance buckets.
func (repo *DependencyRepository) DeleteBySource(ctx context.Context, sourceID int64) error {
	return repo.deleteWhere(ctx, sq.Eq{"source_id": sourceID})
}

// DeleteByParsingSource removes a source's edges from a single
// provenance bucket, leaving other buckets (notably manual) untouched.
func (repo *DependencyRepository) DeleteByParsingSource(ctx context.Context, sourceID int64, parsingSource string) error {
	return repo.deleteWhere(ctx, sq.Eq{"source_id": sourceID, "parsing_source": parsingSource})
}

func (repo *DependencyRepository) deleteWhere(ctx context.Context, pred interface{}) error {
	query, args, err := sq.Delete("dependencies").
		Where(pred).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building delete query: %w", err)
	}
	if _, err := repo.client.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error executing delete query: %w", err)
	}
	return nil
}

func (repo *DependencyRepository) CountByObject(ctx context.Context, objectID int64) (lineage.Counts, error) {
	var row struct {
		Upstream   int `db:"upstream"`
		Downstream int `db:"downstream"`
	}
	if err := repo.client.GetContext(ctx, &row, `
		SELECT
			COUNT(*) FILTER (WHERE object_id = $1) AS upstream,
			COUNT(*) FILTER (WHERE target_id = $1) AS downstream
		FROM dependencies
	`, objectID); err != nil {
		return lineage.Counts{}, fmt.Errorf("error counting dependencies: %w", err)
	}
	return lineage.Counts{Upstream: row.Upstream, Downstream: row.Downstream}, nil
}

func toDependencies(models []DependencyModel) []lineage.Dependency {
	deps := make([]lineage.Dependency, 0, len(models))
	for _, m := range models {
		deps = append(deps, m.toDependency())
	}
	return deps
}
