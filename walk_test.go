package queries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nanosim/queries"
)

func TestWalk_PreOrder(t *testing.T) {
	t.Parallel()

	q := queries.MustParse("(prev!(a), agent!(B).c)")

	var kinds []queries.Kind

	queries.Walk(q, func(n queries.Query) bool {
		kinds = append(kinds, n.Kind())

		return true
	})

	assert.Equal(t, []queries.Kind{
		queries.KindTuple,
		queries.KindPrev, queries.KindBase,
		queries.KindAccess, queries.KindAgent,
	}, kinds)
}

func TestWalk_SkipChildren(t *testing.T) {
	t.Parallel()

	q := queries.MustParse("(prev!(a), b)")

	var visited []string

	queries.Walk(q, func(n queries.Query) bool {
		visited = append(visited, n.String())

		return n.Kind() != queries.KindPrev
	})

	assert.Equal(t, []string{"(prev!(a), b)", "prev!(a)", "b"}, visited)
}

func TestAgentsAndBases(t *testing.T) {
	t.Parallel()

	q := queries.MustParse("(agent!(Body2).position, agent!(Body1).mass, agent!(Body2).mass, prev!(time), time, dt)")

	assert.Equal(t, []string{"Body1", "Body2"}, queries.Agents(q))
	assert.Equal(t, []string{"dt", "time"}, queries.Bases(q))
	assert.Empty(t, queries.Agents(queries.Root{}))
	assert.Empty(t, queries.Bases(queries.NewTuple()))
}

func TestDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		depth int
	}{
		{input: "root!", depth: 1},
		{input: "()", depth: 1},
		{input: "(a)", depth: 2},
		{input: "prev!(prev!(a))", depth: 3},
		{input: "agent!(x).y.z", depth: 3},
		{input: "(a, (b, prev!(c)))", depth: 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.depth, queries.Depth(queries.MustParse(tt.input)))
		})
	}
}

func TestWalk_MissingAndPointerQueries(t *testing.T) {
	t.Parallel()

	q := queries.NewTuple(queries.Prev{}, &queries.Agent{Name: "a"}, nil)

	var kinds []queries.Kind

	queries.Walk(q, func(n queries.Query) bool {
		kinds = append(kinds, n.Kind())

		return true
	})

	assert.Equal(t, []queries.Kind{queries.KindTuple, queries.KindPrev, queries.KindAgent}, kinds)
	assert.Equal(t, []string{"a"}, queries.Agents(q))
	assert.Equal(t, 0, queries.Depth(nil))
	assert.Equal(t, 1, queries.Depth(queries.Prev{}))
	assert.Equal(t, 2, queries.Depth(&queries.Access{Base: queries.Root{}, Field: "x"}))
}
