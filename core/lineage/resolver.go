package lineage

import (
	"context"
	"errors"

	"github.com/datatrail-io/sextant/core/catalog"
)

// Resolver answers bounded-depth traversal queries over the dependency
// graph. It is stateless per call and read-only; concurrent calls are
// safe against a stable or growing graph.
type Resolver struct {
	objects      ObjectStore
	dependencies Repository
}

func NewResolver(objects ObjectStore, dependencies Repository) *Resolver {
	return &Resolver{
		objects:      objects,
		dependencies: dependencies,
	}
}

type queueItem struct {
	id   int64
	dist int
}

// Resolve walks the graph breadth-first from rootID up to depth edges
// away. Depth is clamped into [MinDepth, MaxDepth]. An empty direction
// means both. Nodes come out in non-decreasing distance order; every
// stored edge reached by the walk becomes exactly one output edge, with
// the visited set only gating node emission.
//
// Each expanded node costs one repository round-trip per requested
// direction plus one catalog lookup per newly discovered node; callers
// bound total cost via the depth cap and an external request deadline.
func (r *Resolver) Resolve(ctx context.Context, rootID int64, dir Direction, depth int) (Graph, error) {
	if !dir.IsValid() {
		return Graph{}, InvalidDirectionError{Direction: dir}
	}
	if dir == "" {
		dir = DirectionBoth
	}
	depth = ClampDepth(depth)

	root, err := r.objects.ResolveByID(ctx, rootID)
	if err != nil {
		return Graph{}, err
	}

	graph := Graph{
		Root:      nodeFromObject(root, 0),
		Direction: dir,
		Depth:     depth,
	}

	walk := &walkState{
		visited: map[int64]bool{rootID: true},
		seen:    map[int64]bool{},
		queue:   []queueItem{{id: rootID, dist: 0}},
	}

	for len(walk.queue) > 0 {
		current := walk.queue[0]
		walk.queue = walk.queue[1:]

		if current.dist >= depth {
			// pruned at the boundary; its edges, if any, are never queried
			graph.Truncated = true
			continue
		}

		if dir == DirectionUpstream || dir == DirectionBoth {
			if err := r.expandUpstream(ctx, &graph, walk, current); err != nil {
				return Graph{}, err
			}
		}
		if dir == DirectionDownstream || dir == DirectionBoth {
			if err := r.expandDownstream(ctx, &graph, walk, current); err != nil {
				return Graph{}, err
			}
		}
	}

	return graph, nil
}

// walkState carries only primitive ids and value-typed items; there is
// no retained pointer graph.
type walkState struct {
	visited map[int64]bool // object ids already emitted as nodes
	seen    map[int64]bool // dependency ids already emitted as edges
	queue   []queueItem
}

func (r *Resolver) expandUpstream(ctx context.Context, graph *Graph, walk *walkState, current queueItem) error {
	deps, err := r.dependencies.GetUpstream(ctx, current.id, true)
	if err != nil {
		return err
	}

	for _, dep := range deps {
		// in both-direction walks the same stored edge can come back from
		// each endpoint's query; emit it once
		if walk.seen[dep.ID] {
			continue
		}
		walk.seen[dep.ID] = true
		graph.Edges = append(graph.Edges, edgeFromDependency(dep))

		if ref, ok := dep.Target.External(); ok {
			// external refs are not deduplicated; two provenances reporting
			// the same uncataloged table yield two external nodes
			graph.ExternalNodes = append(graph.ExternalNodes, ExternalNode{
				Schema:   ref.Schema,
				Name:     ref.Name,
				Type:     ref.Type,
				Distance: current.dist + 1,
			})
			continue
		}

		targetID, _ := dep.Target.Internal()
		if err := r.visit(ctx, graph, walk, targetID, current.dist+1); err != nil {
			return err
		}
	}

	return nil
}

func (r *Resolver) expandDownstream(ctx context.Context, graph *Graph, walk *walkState, current queueItem) error {
	deps, err := r.dependencies.GetDownstream(ctx, current.id)
	if err != nil {
		return err
	}

	for _, dep := range deps {
		if walk.seen[dep.ID] {
			continue
		}
		walk.seen[dep.ID] = true
		graph.Edges = append(graph.Edges, edgeFromDependency(dep))

		// downstream edges point at current; the new node is the dependent
		if err := r.visit(ctx, graph, walk, dep.ObjectID, current.dist+1); err != nil {
			return err
		}
	}

	return nil
}

func (r *Resolver) visit(ctx context.Context, graph *Graph, walk *walkState, id int64, dist int) error {
	if walk.visited[id] {
		return nil
	}
	walk.visited[id] = true

	obj, err := r.objects.ResolveByID(ctx, id)
	if err != nil {
		// a dangling edge end keeps its edge but produces no node
		if errors.As(err, &catalog.NotFoundError{}) {
			return nil
		}
		return err
	}

	graph.Nodes = append(graph.Nodes, nodeFromObject(obj, dist))
	walk.queue = append(walk.queue, queueItem{id: id, dist: dist})
	return nil
}

func nodeFromObject(obj catalog.Object, dist int) Node {
	return Node{
		ID:         obj.ID,
		SourceName: obj.SourceName,
		SchemaName: obj.SchemaName,
		ObjectName: obj.Name,
		ObjectType: obj.Type,
		Distance:   dist,
	}
}

func edgeFromDependency(dep Dependency) Edge {
	edge := Edge{
		FromID:     dep.ObjectID,
		Type:       dep.Type,
		Confidence: dep.Confidence,
	}
	if ref, ok := dep.Target.External(); ok {
		edge.ToExternal = &ref
	} else if targetID, ok := dep.Target.Internal(); ok {
		edge.ToID = &targetID
	}

	return edge
}
