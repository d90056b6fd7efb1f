package model_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/nanosim/queries"
	"github.com/nanosim/queries/model"
)

const orbitModel = `agents:
  Body2:
    - name: velocity
      consumed: "(prev!(timeStep), prev!(position), prev!(velocity), agent!(Body1).position, agent!(Body1).mass)"
      produced: velocity
    - name: position
      consumed: "(prev!(timeStep), prev!(position), velocity)"
      produced: position
  Body1:
    - name: velocity
      consumed: |
        (
          prev!(timeStep),
          prev!(position),
          prev!(velocity),
          agent!(Body2).position,
          agent!(Body2).mass,
        )
      produced: velocity
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := model.Parse([]byte(orbitModel), "orbit.yaml")
	require.NoError(t, err)

	require.Len(t, m.Agents, 2)
	assert.Equal(t, "Body1", m.Agents[0].Name)
	assert.Equal(t, "Body2", m.Agents[1].Name)

	fns := m.Functions()
	require.Len(t, fns, 3)
	assert.Equal(t, []string{"Body1.velocity", "Body2.velocity", "Body2.position"}, []string{
		fns[0].Agent + "." + fns[0].Name,
		fns[1].Agent + "." + fns[1].Name,
		fns[2].Agent + "." + fns[2].Name,
	})

	assert.Equal(t, queries.Base{Name: "velocity"}, fns[0].Produced)
	assert.Equal(t, queries.NewTuple(
		queries.Prev{Query: queries.Base{Name: "timeStep"}},
		queries.Prev{Query: queries.Base{Name: "position"}},
		queries.Prev{Query: queries.Base{Name: "velocity"}},
		queries.Path(queries.Agent{Name: "Body2"}, "position"),
		queries.Path(queries.Agent{Name: "Body2"}, "mass"),
	), fns[0].Consumed)
	assert.Contains(t, fns[0].ConsumedText, "agent!(Body2).mass,")

	body2 := m.Agent("Body2")
	require.NotNil(t, body2)
	assert.Equal(t, "position", body2.Functions[1].Name)
	assert.Nil(t, m.Agent("Body3"))
}

func TestModel_Queries(t *testing.T) {
	t.Parallel()

	src := `agents:
  A:
    - name: f
      consumed: "prev!(x)"
      produced: x
    - name: g
      consumed: x
      produced: y
  B:
    - name: f
      consumed: "agent!(A).y"
      produced: "prev!(x)"
`

	m, err := model.Parse([]byte(src), "")
	require.NoError(t, err)

	assert.Equal(t, []queries.Query{
		queries.Prev{Query: queries.Base{Name: "x"}},
		queries.Path(queries.Agent{Name: "A"}, "y"),
		queries.Base{Name: "x"},
		queries.Base{Name: "y"},
	}, m.Queries())
}

func TestParse_EmptyAgent(t *testing.T) {
	t.Parallel()

	m, err := model.Parse([]byte("agents:\n  Idle:\n  Busy: []\n"), "m.yaml")
	require.NoError(t, err)
	require.Len(t, m.Agents, 2)
	assert.Empty(t, m.Functions())
	assert.Empty(t, m.Queries())
}

func TestParse_QueryErrorsAreCollected(t *testing.T) {
	t.Parallel()

	src := `agents:
  Body1:
    - name: velocity
      consumed: "(prev!(timeStep),, velocity)"
      produced: velocity
    - name: position
      consumed: position
      produced: "agent!(Body1"
`

	m, err := model.Parse([]byte(src), "broken.yaml")
	require.Error(t, err)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, queries.ErrSyntax)
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	var first, second *model.QueryError
	require.ErrorAs(t, errs[0], &first)
	require.ErrorAs(t, errs[1], &second)

	assert.Equal(t, "broken.yaml", first.Path)
	assert.Equal(t, "velocity", first.Function)
	assert.Equal(t, model.FieldConsumed, first.Field)
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, 17, first.Column)

	assert.Equal(t, "position", second.Function)
	assert.Equal(t, model.FieldProduced, second.Field)
	assert.Equal(t, 8, second.Line)

	var syntaxErr *queries.SyntaxError
	require.ErrorAs(t, second, &syntaxErr)
	assert.Equal(t, "<EOF>", syntaxErr.Unexpected)

	assert.Contains(t, first.Error(), "broken.yaml:4:17: Body1.velocity consumed:")
}

func TestParse_ShapeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "empty", input: "", message: "empty document"},
		{name: "not a mapping", input: "- a\n- b\n", message: "top level must be a mapping"},
		{name: "missing agents", input: "{}\n", message: "missing 'agents'"},
		{name: "unknown key", input: "agents: {}\nversion: 2\n", message: `unknown top-level key "version"`},
		{name: "agents not a mapping", input: "agents: [a]\n", message: "'agents' must be a mapping"},
		{name: "functions not a list", input: "agents:\n  A: f\n", message: `functions of agent "A" must be a list`},
		{name: "function not a mapping", input: "agents:\n  A: [f]\n", message: `function of agent "A" must be a mapping`},
		{
			name:    "missing produced",
			input:   "agents:\n  A:\n    - name: f\n      consumed: x\n",
			message: `is missing "produced"`,
		},
		{
			name:    "unknown function key",
			input:   "agents:\n  A:\n    - name: f\n      consumed: x\n      produced: y\n      kind: step\n",
			message: `unknown function key "kind"`,
		},
		{
			name:    "query must be a string",
			input:   "agents:\n  A:\n    - name: f\n      consumed: [x]\n      produced: y\n",
			message: `"consumed" must be a string`,
		},
		{name: "duplicate agent", input: "agents:\n  A: []\n  A: []\n", message: `duplicate agent "A"`},
		{name: "bad yaml", input: "agents: [\n", message: "decoding bad.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := model.Parse([]byte(tt.input), "bad.yaml")
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, model.ErrInvalidModel), "%v", err)
			assert.Contains(t, err.Error(), tt.message)
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "orbit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(orbitModel), 0o600))

	t.Run("load by path", func(t *testing.T) {
		t.Parallel()

		m, err := model.NewLoader().Load(path)
		require.NoError(t, err)
		assert.Equal(t, path, m.Path)
		assert.Len(t, m.Functions(), 3)
	})

	t.Run("caching", func(t *testing.T) {
		t.Parallel()

		loader := model.NewLoader()

		m1, err := loader.Load(path)
		require.NoError(t, err)

		m2, err := loader.Load(filepath.Join(dir, ".", "orbit.yaml"))
		require.NoError(t, err)

		assert.Same(t, m1, m2)
		assert.Len(t, loader.Cached(), 1)

		loader.Clear()
		assert.Empty(t, loader.Cached())

		m3, err := loader.Load(path)
		require.NoError(t, err)
		assert.NotSame(t, m1, m3)
	})

	t.Run("concurrent loads share one parse", func(t *testing.T) {
		t.Parallel()

		var (
			mu    sync.Mutex
			calls int
		)

		loader := model.NewLoader()
		loader.Parser = func(data []byte, path string) (*model.Model, error) {
			mu.Lock()
			calls++
			mu.Unlock()

			return model.Parse(data, path)
		}

		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				_, err := loader.Load(path)
				assert.NoError(t, err)
			})
		}

		wg.Wait()
		assert.Equal(t, 1, calls)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := model.NewLoader().Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)

		var loadErr *model.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.True(t, errors.Is(err, model.ErrModelNotFound))
		assert.True(t, stderrors.Is(err, os.ErrNotExist))
		assert.NotEmpty(t, errors.GetAllHints(err))
	})

	t.Run("parse failure is not cached", func(t *testing.T) {
		t.Parallel()

		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("agents:\n  A:\n    - {name: f, consumed: '(', produced: x}\n"), 0o600))

		loader := model.NewLoader()

		_, err := loader.Load(bad)
		require.Error(t, err)
		assert.ErrorIs(t, err, queries.ErrSyntax)
		assert.Empty(t, loader.Cached())
	})
}
