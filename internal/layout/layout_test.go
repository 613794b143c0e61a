package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablescope/internal/models"
)

func cols(n int) []models.Column {
	c := make([]models.Column, n)
	for i := range c {
		c[i] = models.Column{Name: string(rune('a' + i)), DataType: "text"}
	}
	return c
}

func fk(holding, column, referenced string) models.ForeignKey {
	return models.ForeignKey{SourceTable: holding, SourceColumn: column, ReferencedTable: referenced, ReferencedColumn: "id"}
}

func byID(nodes []models.GraphNode) map[string]models.GraphNode {
	m := make(map[string]models.GraphNode, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func overlaps(a, b models.GraphNode) bool {
	return a.X-a.Width/2 < b.X+b.Width/2 && b.X-b.Width/2 < a.X+a.Width/2 &&
		a.Y-a.Height/2 < b.Y+b.Height/2 && b.Y-b.Height/2 < a.Y+a.Height/2
}

func assertNoOverlap(t *testing.T, nodes []models.GraphNode) {
	t.Helper()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			assert.False(t, overlaps(nodes[i], nodes[j]), "%s overlaps %s", nodes[i].ID, nodes[j].ID)
		}
	}
}

func TestBuildGraph(t *testing.T) {
	opts := DefaultOptions()
	tables := []string{"users", "orders", "order_items"}
	columns := map[string][]models.Column{
		"users":       cols(3),
		"orders":      cols(4),
		"order_items": cols(5),
	}
	fks := []models.ForeignKey{
		fk("orders", "user_id", "users"),
		fk("orders", "approved_by", "users"),
		fk("order_items", "order_id", "orders"),
		fk("order_items", "order_id", "orders"),
		fk("orders", "warehouse_id", "warehouses"),
	}

	nodes, edges := BuildGraph(tables, columns, fks, opts)

	require.Len(t, nodes, 3)
	assert.Equal(t, "users", nodes[0].ID)
	assert.Equal(t, 3*30.0+90, nodes[0].Height)
	assert.Equal(t, 5*30.0+90, nodes[2].Height)
	assert.Equal(t, 400.0, nodes[1].Width)

	require.Len(t, edges, 3)
	assert.Equal(t, models.GraphEdge{ID: "orders-user_id-users", Source: "users", Target: "orders", Label: "user_id"}, edges[0])
	assert.Equal(t, "orders-approved_by-users", edges[1].ID)
	assert.Equal(t, "orders", edges[2].Source)
	assert.Equal(t, "order_items", edges[2].Target)
}

func TestBuildGraph_Empty(t *testing.T) {
	nodes, edges := BuildGraph(nil, nil, nil, DefaultOptions())
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
	assert.Empty(t, Layout(nodes, edges, DefaultOptions()))
}

func TestLayout_ChainRanks(t *testing.T) {
	opts := DefaultOptions()
	// A referenced by B, B referenced by C
	nodes, edges := BuildGraph(
		[]string{"C", "B", "A"},
		map[string][]models.Column{"A": cols(2), "B": cols(6), "C": cols(1)},
		[]models.ForeignKey{fk("B", "a_id", "A"), fk("C", "b_id", "B")},
		opts,
	)

	laid := byID(Layout(nodes, edges, opts))

	assert.Less(t, laid["A"].Rank, laid["B"].Rank)
	assert.Less(t, laid["B"].Rank, laid["C"].Rank)
	assert.Less(t, laid["A"].Y, laid["B"].Y)
	assert.Less(t, laid["B"].Y, laid["C"].Y)

	// the gap between ranks accounts for the taller node above it
	bBottom := laid["B"].Y + laid["B"].Height/2
	cTop := laid["C"].Y - laid["C"].Height/2
	assert.InDelta(t, opts.RankSep, cTop-bBottom, 0.001)
}

func TestLayout_DisconnectedTablesDoNotOverlap(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph([]string{"X", "Y"}, map[string][]models.Column{"X": cols(3), "Y": cols(10)}, nil, opts)

	laid := Layout(nodes, edges, opts)

	require.Len(t, laid, 2)
	assertNoOverlap(t, laid)
	assert.Equal(t, 0, laid[0].Rank)
	assert.Equal(t, 0, laid[1].Rank)
	assert.Less(t, laid[0].X, laid[1].X)
}

func TestLayout_ComponentsPlacedSideBySide(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph(
		[]string{"users", "orders", "tags", "post_tags", "posts"},
		nil,
		[]models.ForeignKey{
			fk("orders", "user_id", "users"),
			fk("post_tags", "tag_id", "tags"),
			fk("post_tags", "post_id", "posts"),
		},
		opts,
	)

	laid := Layout(nodes, edges, opts)
	assertNoOverlap(t, laid)

	m := byID(laid)
	firstRight := max(m["users"].X, m["orders"].X) + opts.NodeWidth/2
	secondLeft := min(m["tags"].X, m["post_tags"].X, m["posts"].X) - opts.NodeWidth/2
	assert.GreaterOrEqual(t, secondLeft-firstRight, opts.ComponentSep)
}

func TestLayout_CyclesAndSelfReferences(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph(
		[]string{"employees", "departments"},
		nil,
		[]models.ForeignKey{
			fk("employees", "manager_id", "employees"),
			fk("employees", "department_id", "departments"),
			fk("departments", "head_id", "employees"),
		},
		opts,
	)

	laid := byID(Layout(nodes, edges, opts))

	assert.NotEqual(t, laid["employees"].Rank, laid["departments"].Rank)
	assertNoOverlap(t, []models.GraphNode{laid["employees"], laid["departments"]})
}

func TestLayout_LongEdgesAndCrossings(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph(
		[]string{"a", "b", "c", "d", "e", "f"},
		nil,
		[]models.ForeignKey{
			fk("c", "a_id", "a"),
			fk("d", "b_id", "b"),
			fk("e", "c_id", "c"),
			fk("f", "d_id", "d"),
			fk("f", "a_id", "a"),
			fk("e", "b_id", "b"),
		},
		opts,
	)

	laid := Layout(nodes, edges, opts)
	assertNoOverlap(t, laid)

	m := byID(laid)
	assert.Equal(t, 0, m["a"].Rank)
	assert.Equal(t, 0, m["b"].Rank)
	assert.Equal(t, 1, m["c"].Rank)
	assert.Equal(t, 2, m["f"].Rank)
}

func TestLayout_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	tables := []string{"users", "accounts", "orders", "invoices", "payments", "audit"}
	fks := []models.ForeignKey{
		fk("orders", "user_id", "users"),
		fk("orders", "account_id", "accounts"),
		fk("invoices", "order_id", "orders"),
		fk("payments", "invoice_id", "invoices"),
		fk("payments", "user_id", "users"),
	}

	nodes, edges := BuildGraph(tables, nil, fks, opts)
	first := Layout(nodes, edges, opts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Layout(nodes, edges, opts))
	}
}

func TestLayout_TiesKeepInputOrder(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph(
		[]string{"users", "orders", "reviews", "sessions"},
		nil,
		[]models.ForeignKey{
			fk("orders", "user_id", "users"),
			fk("reviews", "user_id", "users"),
			fk("sessions", "user_id", "users"),
		},
		opts,
	)

	m := byID(Layout(nodes, edges, opts))
	assert.Less(t, m["orders"].X, m["reviews"].X)
	assert.Less(t, m["reviews"].X, m["sessions"].X)
	assert.Equal(t, 0, m["orders"].Order)
	assert.Equal(t, 2, m["sessions"].Order)
}

func TestLayout_DoesNotMutateInput(t *testing.T) {
	opts := DefaultOptions()
	nodes, edges := BuildGraph([]string{"a", "b"}, nil, []models.ForeignKey{fk("b", "a_id", "a")}, opts)

	_ = Layout(nodes, edges, opts)

	for _, n := range nodes {
		assert.Zero(t, n.X)
		assert.Zero(t, n.Y)
	}
}
