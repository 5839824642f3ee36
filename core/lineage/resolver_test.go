package lineage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrail-io/sextant/core/catalog"
	"github.com/datatrail-io/sextant/core/lineage"
)

const testSourceID = int64(1)

// scenarioStore builds raw_events <- orders <- order_summary:
// orders depends on raw_events, order_summary depends on orders.
func scenarioStore(t *testing.T) (store *inmemStore, rawEvents, orders, orderSummary catalog.Object) {
	t.Helper()

	store = newInmemStore()
	store.addSource(testSourceID, "warehouse")
	rawEvents = store.addObject(testSourceID, "analytics", "raw_events")
	orders = store.addObject(testSourceID, "analytics", "orders")
	orderSummary = store.addObject(testSourceID, "analytics", "order_summary")

	mustUpsert(t, store, orders.ID, rawEvents.ID)
	mustUpsert(t, store, orderSummary.ID, orders.ID)
	return store, rawEvents, orders, orderSummary
}

func mustUpsert(t *testing.T, store *inmemStore, objectID, targetID int64) lineage.Dependency {
	t.Helper()

	dep, _, err := store.Upsert(context.Background(), lineage.Dependency{
		SourceID:      testSourceID,
		ObjectID:      objectID,
		Target:        lineage.InternalTarget(targetID),
		Type:          lineage.TypeDirect,
		ParsingSource: lineage.ParsingSourceMetadata,
		Confidence:    lineage.ConfidenceHigh,
	})
	require.NoError(t, err)
	return dep
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("should return not found error if root cannot be resolved", func(t *testing.T) {
		store := newInmemStore()
		resolver := lineage.NewResolver(store, store)

		_, err := resolver.Resolve(ctx, 42, lineage.DirectionUpstream, 3)
		assert.True(t, errors.As(err, &catalog.NotFoundError{}))
	})

	t.Run("should return error for an unknown direction", func(t *testing.T) {
		store, _, _, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		_, err := resolver.Resolve(ctx, orderSummary.ID, "sideways", 3)
		assert.ErrorAs(t, err, &lineage.InvalidDirectionError{})
	})

	t.Run("should return direct upstream only at depth 1", func(t *testing.T) {
		store, _, orders, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 1)
		require.NoError(t, err)

		assert.Equal(t, orderSummary.ID, graph.Root.ID)
		assert.Equal(t, 0, graph.Root.Distance)
		assert.Empty(t, cmp.Diff([]lineage.Node{
			{ID: orders.ID, SourceName: "warehouse", SchemaName: "analytics", ObjectName: "orders", ObjectType: catalog.TypeTable, Distance: 1},
		}, graph.Nodes))
		require.Len(t, graph.Edges, 1)
		assert.Equal(t, orderSummary.ID, graph.Edges[0].FromID)
		require.NotNil(t, graph.Edges[0].ToID)
		assert.Equal(t, orders.ID, *graph.Edges[0].ToID)
		assert.True(t, graph.Truncated)
	})

	t.Run("should walk transitive upstream at depth 2", func(t *testing.T) {
		store, rawEvents, orders, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 2)
		require.NoError(t, err)

		require.Len(t, graph.Nodes, 2)
		assert.Equal(t, orders.ID, graph.Nodes[0].ID)
		assert.Equal(t, 1, graph.Nodes[0].Distance)
		assert.Equal(t, rawEvents.ID, graph.Nodes[1].ID)
		assert.Equal(t, 2, graph.Nodes[1].Distance)
		assert.Len(t, graph.Edges, 2)
	})

	t.Run("should walk downstream from the deepest upstream", func(t *testing.T) {
		store, rawEvents, orders, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, rawEvents.ID, lineage.DirectionDownstream, 2)
		require.NoError(t, err)

		require.Len(t, graph.Nodes, 2)
		assert.Equal(t, orders.ID, graph.Nodes[0].ID)
		assert.Equal(t, 1, graph.Nodes[0].Distance)
		assert.Equal(t, orderSummary.ID, graph.Nodes[1].ID)
		assert.Equal(t, 2, graph.Nodes[1].Distance)
	})

	t.Run("should clamp out-of-range depths instead of rejecting them", func(t *testing.T) {
		store, _, orders, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, graph.Depth)
		require.Len(t, graph.Nodes, 1)
		assert.Equal(t, orders.ID, graph.Nodes[0].ID)

		graph, err = resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 15)
		require.NoError(t, err)
		assert.Equal(t, 10, graph.Depth)
		assert.Len(t, graph.Nodes, 2)
		assert.False(t, graph.Truncated)
	})

	t.Run("should keep truncated conservative at the depth boundary", func(t *testing.T) {
		store, _, _, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		// raw_events sits exactly on the boundary; it has no further
		// edges but is still reported as pruned
		graph, err := resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 2)
		require.NoError(t, err)
		assert.True(t, graph.Truncated)

		graph, err = resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 3)
		require.NoError(t, err)
		assert.False(t, graph.Truncated)
	})

	t.Run("should default empty direction to both", func(t *testing.T) {
		store, _, orders, _ := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orders.ID, "", 2)
		require.NoError(t, err)
		assert.Equal(t, lineage.DirectionBoth, graph.Direction)
	})

	t.Run("should expand both directions with one visited set and no duplicate edges", func(t *testing.T) {
		store, rawEvents, orders, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orders.ID, lineage.DirectionBoth, 2)
		require.NoError(t, err)

		require.Len(t, graph.Nodes, 2)
		assert.Equal(t, rawEvents.ID, graph.Nodes[0].ID)
		assert.Equal(t, orderSummary.ID, graph.Nodes[1].ID)
		assert.Len(t, graph.Edges, 2)
	})

	t.Run("should emit a node once when reachable over two paths", func(t *testing.T) {
		store := newInmemStore()
		store.addSource(testSourceID, "warehouse")
		base := store.addObject(testSourceID, "analytics", "base")
		left := store.addObject(testSourceID, "analytics", "left")
		right := store.addObject(testSourceID, "analytics", "right")
		top := store.addObject(testSourceID, "analytics", "top")
		mustUpsert(t, store, left.ID, base.ID)
		mustUpsert(t, store, right.ID, base.ID)
		mustUpsert(t, store, top.ID, left.ID)
		mustUpsert(t, store, top.ID, right.ID)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, top.ID, lineage.DirectionUpstream, 5)
		require.NoError(t, err)

		ids := map[int64]int{}
		for _, node := range graph.Nodes {
			ids[node.ID]++
		}
		assert.Len(t, ids, len(graph.Nodes))
		assert.Len(t, graph.Nodes, 3)
		// every stored edge still shows up
		assert.Len(t, graph.Edges, 4)
	})

	t.Run("should order nodes breadth first by distance", func(t *testing.T) {
		store, _, _, orderSummary := scenarioStore(t)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orderSummary.ID, lineage.DirectionUpstream, 10)
		require.NoError(t, err)

		last := 0
		for _, node := range graph.Nodes {
			assert.GreaterOrEqual(t, node.Distance, last)
			assert.LessOrEqual(t, node.Distance, graph.Depth)
			last = node.Distance
		}
	})

	t.Run("should report uncataloged targets as external nodes only", func(t *testing.T) {
		store, _, orders, _ := scenarioStore(t)
		_, _, err := store.Upsert(ctx, lineage.Dependency{
			SourceID:      testSourceID,
			ObjectID:      orders.ID,
			Target:        lineage.ExternalTarget(lineage.ExternalRef{Schema: "ext", Name: "currency_rates", Type: "table"}),
			Type:          lineage.TypeDirect,
			ParsingSource: lineage.ParsingSourceMetadata,
			Confidence:    lineage.ConfidenceMedium,
		})
		require.NoError(t, err)
		resolver := lineage.NewResolver(store, store)

		graph, err := resolver.Resolve(ctx, orders.ID, lineage.DirectionUpstream, 2)
		require.NoError(t, err)

		require.Len(t, graph.ExternalNodes, 1)
		assert.Empty(t, cmp.Diff(lineage.ExternalNode{
			Schema: "ext", Name: "currency_rates", Type: "table", Distance: 1,
		}, graph.ExternalNodes[0]))
		for _, node := range graph.Nodes {
			assert.NotEqual(t, "currency_rates", node.ObjectName)
		}

		var externalEdges int
		for _, edge := range graph.Edges {
			if edge.ToExternal != nil {
				assert.Nil(t, edge.ToID)
				externalEdges++
			}
		}
		assert.Equal(t, 1, externalEdges)
	})
}
