package lineage

import (
	"context"
)

// Ingestor reconciles adapter-reported raw dependency tuples against a
// source's stored edges, one provenance bucket at a time.
type Ingestor struct {
	objects      ObjectStore
	dependencies Repository
}

func NewIngestor(objects ObjectStore, dependencies Repository) *Ingestor {
	return &Ingestor{
		objects:      objects,
		dependencies: dependencies,
	}
}

type objectKey struct {
	schema string
	name   string
}

// Ingest resolves raw tuples into internal or external edges and upserts
// them under parsingSource. With clearExisting the source's prior edges
// in that provenance bucket are reconciled against the batch in a single
// repository transaction: surviving edges are updated in place, stale
// edges are dropped, and a mid-batch failure leaves the prior bucket
// intact. Manual (and any other) buckets are never touched.
//
// Raw entries whose dependent object is not cataloged are skipped and
// counted, as are self-referential tuples; ingestion never creates
// catalog objects. Unresolved targets become external references, never
// errors.
//
// Concurrent ingests of the same (source, parsingSource) are not
// self-serializing; the natural-key unique constraint is the backstop
// and surfaces as a StorageError. Schedulers re-scanning a source should
// serialize per (source, parsingSource).
func (i *Ingestor) Ingest(ctx context.Context, sourceID int64, raw []RawDependency, parsingSource string, clearExisting bool) (IngestResult, error) {
	if parsingSource == "" {
		return IngestResult{}, ErrNoParsingSource
	}

	// one bulk fetch, O(1) lookups per tuple
	objects, err := i.objects.ListForSource(ctx, sourceID)
	if err != nil {
		return IngestResult{}, err
	}
	index := make(map[objectKey]int64, len(objects))
	for _, obj := range objects {
		index[objectKey{schema: obj.SchemaName, name: obj.Name}] = obj.ID
	}

	var (
		deps    []Dependency
		skipped int
	)
	for _, rd := range raw {
		objectID, ok := index[objectKey{schema: rd.ObjectSchema, name: rd.ObjectName}]
		if !ok {
			// a dependency cannot be attached to an uncataloged object
			skipped++
			continue
		}

		dep := Dependency{
			SourceID:      sourceID,
			ObjectID:      objectID,
			Type:          rd.Type,
			ParsingSource: parsingSource,
			Confidence:    rd.Confidence,
		}
		if dep.Type == "" {
			dep.Type = TypeDirect
		}
		if dep.Confidence == "" {
			dep.Confidence = ConfidenceHigh
		}

		if targetID, ok := index[objectKey{schema: rd.TargetSchema, name: rd.TargetName}]; ok {
			if targetID == objectID {
				// a self-referential tuple is a scan artifact
				skipped++
				continue
			}
			dep.Target = InternalTarget(targetID)
		} else {
			dep.Target = ExternalTarget(ExternalRef{
				Schema: rd.TargetSchema,
				Name:   rd.TargetName,
				Type:   rd.TargetType,
			})
		}

		deps = append(deps, dep)
	}

	var created, updated int
	if clearExisting {
		created, updated, err = i.dependencies.ReplaceParsingSource(ctx, sourceID, deps, parsingSource)
	} else {
		created, updated, err = i.dependencies.UpsertBatch(ctx, sourceID, deps, parsingSource)
	}
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{Created: created, Updated: updated, Skipped: skipped}, nil
}

// Summary tallies an object's direct lineage. The external count comes
// from scanning the object's direct upstream edges for uncataloged
// targets.
func (i *Ingestor) Summary(ctx context.Context, objectID int64) (Summary, error) {
	counts, err := i.dependencies.CountByObject(ctx, objectID)
	if err != nil {
		return Summary{}, err
	}

	upstream, err := i.dependencies.GetUpstream(ctx, objectID, true)
	if err != nil {
		return Summary{}, err
	}
	var external int
	for _, dep := range upstream {
		if dep.Target.IsExternal() {
			external++
		}
	}

	return Summary{
		UpstreamCount:   counts.Upstream,
		DownstreamCount: counts.Downstream,
		ExternalCount:   external,
	}, nil
}
