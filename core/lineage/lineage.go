package lineage

import "github.com/datatrail-io/sextant/core/catalog"

type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

func (dir Direction) IsValid() bool {
	switch dir {
	case DirectionUpstream, DirectionDownstream, DirectionBoth, "":
		return true
	default:
		return false
	}
}

// Traversal depth is clamped into [MinDepth, MaxDepth]; out-of-range
// values are adjusted, not rejected.
const (
	MinDepth = 1
	MaxDepth = 10
)

// ClampDepth snaps a requested depth into the supported range.
func ClampDepth(depth int) int {
	if depth < MinDepth {
		return MinDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// Node is a cataloged object reached by a traversal. Distance is the
// number of edges from the root; the root itself sits at distance 0.
type Node struct {
	ID         int64        `json:"id"`
	SourceName string       `json:"source_name"`
	SchemaName string       `json:"schema_name"`
	ObjectName string       `json:"object_name"`
	ObjectType catalog.Type `json:"object_type"`
	Distance   int          `json:"distance"`
}

// ExternalNode is an uncataloged reference reached by a traversal.
type ExternalNode struct {
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Distance int    `json:"distance"`
}

// Edge is a traversal-output edge. Exactly one of ToID and ToExternal
// is set, mirroring the stored target.
type Edge struct {
	FromID     int64        `json:"from_id"`
	ToID       *int64       `json:"to_id,omitempty"`
	ToExternal *ExternalRef `json:"to_external,omitempty"`
	Type       Type         `json:"dependency_type"`
	Confidence Confidence   `json:"confidence"`
}

// Graph is the result of a bounded traversal. Nodes excludes the root
// and is ordered by non-decreasing distance. Truncated reports that at
// least one node was pruned at the depth boundary; it is conservative
// and may be set even when the pruned node had no further edges.
type Graph struct {
	Root          Node           `json:"root"`
	Nodes         []Node         `json:"nodes"`
	ExternalNodes []ExternalNode `json:"external_nodes"`
	Edges         []Edge         `json:"edges"`
	Direction     Direction      `json:"direction"`
	Depth         int            `json:"depth"`
	Truncated     bool           `json:"truncated"`
}

// Summary is the per-object lineage tally exposed to listings.
type Summary struct {
	UpstreamCount   int `json:"upstream_count"`
	DownstreamCount int `json:"downstream_count"`
	ExternalCount   int `json:"external_count"`
}

// RawDependency is the wire shape adapters hand over after a scan:
// already-extracted (dependent, target) name pairs, not SQL.
type RawDependency struct {
	ObjectSchema string     `json:"object_schema" validate:"required"`
	ObjectName   string     `json:"object_name" validate:"required"`
	TargetSchema string     `json:"target_schema" validate:"required"`
	TargetName   string     `json:"target_name" validate:"required"`
	Type         Type       `json:"dependency_type,omitempty" validate:"omitempty,oneof=direct indirect"`
	Confidence   Confidence `json:"confidence,omitempty" validate:"omitempty,oneof=high medium low"`
	TargetType   string     `json:"target_type,omitempty"`
}

// IngestResult reports what one reconciliation pass did. Skipped counts
// raw entries whose dependent object is not cataloged for the source.
type IngestResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
