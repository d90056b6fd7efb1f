package queries_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanosim/queries"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected queries.Query
	}{
		{name: "root", input: "root!", expected: queries.Root{}},
		{name: "base", input: "velocity", expected: queries.Base{Name: "velocity"}},
		{name: "agent", input: "agent!(Body2)", expected: queries.Agent{Name: "Body2"}},
		{name: "quoted agent", input: `agent!("x")`, expected: queries.Agent{Name: "x"}},
		{name: "quoted agent with space", input: `agent!("Body 2")`, expected: queries.Agent{Name: "Body 2"}},
		{name: "quoted base", input: `"time step"`, expected: queries.Base{Name: "time step"}},
		{name: "prev", input: "prev!(root!)", expected: queries.Prev{Query: queries.Root{}}},
		{name: "prev of base", input: "prev!(timeStep)", expected: queries.Prev{Query: queries.Base{Name: "timeStep"}}},
		{
			name:  "nested prev",
			input: "prev!(prev!(mass))",
			expected: queries.Prev{Query: queries.Prev{
				Query: queries.Base{Name: "mass"},
			}},
		},
		{
			name:  "access",
			input: "agent!(Body2).position",
			expected: queries.Access{
				Base:  queries.Agent{Name: "Body2"},
				Field: "position",
			},
		},
		{
			name:  "access chain is left associative",
			input: `agent!("x").a.b`,
			expected: queries.Access{
				Base: queries.Access{
					Base:  queries.Agent{Name: "x"},
					Field: "a",
				},
				Field: "b",
			},
		},
		{
			name:  "access off root",
			input: "root!.Body1.mass",
			expected: queries.Access{
				Base:  queries.Access{Base: queries.Root{}, Field: "Body1"},
				Field: "mass",
			},
		},
		{
			name:  "quoted field",
			input: `position."x axis"`,
			expected: queries.Access{
				Base:  queries.Base{Name: "position"},
				Field: "x axis",
			},
		},
		{
			name:  "prev wraps the whole chain",
			input: "prev!(position.x)",
			expected: queries.Prev{Query: queries.Access{
				Base:  queries.Base{Name: "position"},
				Field: "x",
			}},
		},
		{
			name:  "access off prev",
			input: "prev!(position).x",
			expected: queries.Access{
				Base:  queries.Prev{Query: queries.Base{Name: "position"}},
				Field: "x",
			},
		},
		{name: "empty tuple", input: "()", expected: queries.NewTuple()},
		{
			name:     "single item tuple",
			input:    "(velocity)",
			expected: queries.NewTuple(queries.Base{Name: "velocity"}),
		},
		{
			name:     "single item tuple with trailing comma",
			input:    "(velocity,)",
			expected: queries.NewTuple(queries.Base{Name: "velocity"}),
		},
		{
			name:  "tuple",
			input: `(root!, agent!("x"))`,
			expected: queries.NewTuple(
				queries.Root{},
				queries.Agent{Name: "x"},
			),
		},
		{
			name:  "nested tuple",
			input: "((a, b), c)",
			expected: queries.NewTuple(
				queries.NewTuple(queries.Base{Name: "a"}, queries.Base{Name: "b"}),
				queries.Base{Name: "c"},
			),
		},
		{
			name:  "access off tuple",
			input: "(a, b).c",
			expected: queries.Access{
				Base:  queries.NewTuple(queries.Base{Name: "a"}, queries.Base{Name: "b"}),
				Field: "c",
			},
		},
		{
			name: "model file layout",
			input: `(
				prev!(timeStep),
				prev!(position),
				prev!(velocity),
				agent!(Body2).position,
				agent!(Body2).mass,
			)`,
			expected: queries.NewTuple(
				queries.Prev{Query: queries.Base{Name: "timeStep"}},
				queries.Prev{Query: queries.Base{Name: "position"}},
				queries.Prev{Query: queries.Base{Name: "velocity"}},
				queries.Access{Base: queries.Agent{Name: "Body2"}, Field: "position"},
				queries.Access{Base: queries.Agent{Name: "Body2"}, Field: "mass"},
			),
		},
		{name: "keyword stem is a name", input: "prev", expected: queries.Base{Name: "prev"}},
		{name: "root stem is a name", input: "root", expected: queries.Base{Name: "root"}},
		{name: "surrounding whitespace", input: "\n\t agent!( x ) . y \n", expected: queries.Access{
			Base:  queries.Agent{Name: "x"},
			Field: "y",
		}},
		{name: "unicode name", input: "größe", expected: queries.Base{Name: "größe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := queries.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}

			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: " \n\t"},
		{name: "missing close paren", input: `agent!("x"`},
		{name: "unterminated prev", input: "prev!("},
		{name: "agent without name", input: "agent!()"},
		{name: "agent with query", input: "agent!(root!)"},
		{name: "trailing dot", input: "position."},
		{name: "leading dot", input: ".position"},
		{name: "double comma", input: "(a,,b)"},
		{name: "leading comma", input: "(,a)"},
		{name: "lone comma", input: "(,)"},
		{name: "missing comma", input: "(a b)"},
		{name: "two queries", input: "a b"},
		{name: "unbalanced close", input: "a)"},
		{name: "unknown character", input: "a + b"},
		{name: "bang without keyword", input: "foo!(x)"},
		{name: "unterminated string", input: `agent!("x)`},
		{name: "invalid escape", input: `"\q"`},
		{name: "keyword needs bang adjacent", input: "agent !(x)"},
		{name: "number is not a name", input: "1"},
		{name: "root takes no arguments", input: "root!(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := queries.Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, queries.ErrSyntax)

			var syntaxErr *queries.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.NotEmpty(t, syntaxErr.Message)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	t.Parallel()

	t.Run("missing close paren reports EOF", func(t *testing.T) {
		t.Parallel()

		_, err := queries.Parse(`agent!("x"`)

		var syntaxErr *queries.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, "<EOF>", syntaxErr.Unexpected)
		assert.Contains(t, syntaxErr.Expected, ")")
		assert.Equal(t, 1, syntaxErr.Pos.Line)
		assert.Equal(t, 11, syntaxErr.Pos.Column)
		assert.Equal(t, 10, syntaxErr.Pos.Offset)
	})

	t.Run("unexpected character on second line", func(t *testing.T) {
		t.Parallel()

		_, err := queries.Parse("(\n  a;\n)")

		var syntaxErr *queries.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, 2, syntaxErr.Pos.Line)
		assert.Equal(t, 4, syntaxErr.Pos.Column)
		assert.Contains(t, syntaxErr.Error(), "2:4")
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, err := queries.Parse("\n  ")

		var syntaxErr *queries.SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, "<EOF>", syntaxErr.Unexpected)
		assert.Equal(t, 2, syntaxErr.Pos.Line)
		assert.Equal(t, 3, syntaxErr.Pos.Column)
	})

	t.Run("filename is recorded", func(t *testing.T) {
		t.Parallel()

		_, err := queries.ParseFile("velocity.q", "(a,,b)")
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "velocity.q:"), err.Error())
	})
}

func TestParse_ErrorInsideTuple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		offset     int
		unexpected string
		expected   string
	}{
		{name: "missing field", input: "(a.)", offset: 3, unexpected: ")", expected: "name"},
		{name: "missing comma", input: "((a b)", offset: 4, unexpected: "b", expected: `"." or "," or ")"`},
		{name: "missing comma in nested tuple", input: "(a, (b c))", offset: 7, unexpected: "c", expected: `"." or "," or ")"`},
		{name: "unclosed tuples", input: "(((", offset: 3, unexpected: "<EOF>", expected: `query or ")"`},
		{name: "double comma", input: "(a,,b)", offset: 3, unexpected: ",", expected: `query or ")"`},
		{name: "missing field at top level", input: "a.", offset: 2, unexpected: "<EOF>", expected: "name"},
		{name: "second query", input: "a b", offset: 2, unexpected: "b", expected: `"." or <EOF>`},
		{name: "missing field in prev", input: "prev!(a.)", offset: 8, unexpected: ")", expected: "name"},
		{name: "query as agent name", input: "agent!(root!)", offset: 7, unexpected: "root!", expected: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := queries.Parse(tt.input)

			var syntaxErr *queries.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.offset, syntaxErr.Pos.Offset)
			assert.Equal(t, tt.offset+1, syntaxErr.Pos.Column)
			assert.Equal(t, tt.unexpected, syntaxErr.Unexpected)
			assert.Equal(t, tt.expected, syntaxErr.Expected)
			assert.Contains(t, syntaxErr.Message, tt.expected)
		})
	}
}

func TestLocateSyntaxError_AgreesWithParser(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"root!", "velocity", `"Body 2"`, "prev!(prev!(mass))", "agent!(Body2).position.x",
		"()", "(a)", "(a,)", "(a, b).c", " ( a ,\n\tb , ) . c ", "((), root!)",
		"", "(", ")", "a)", "(a,,b)", "(,)", "(a b)", "agent!()", "root!(x)",
		"prev!(", "a + b", `agent!("x)`, "(a.)", "(((",
	}

	for _, input := range inputs {
		_, parseErr := queries.Parse(input)
		if input == "" {
			continue
		}

		locateErr := queries.LocateSyntaxError(input)
		assert.Equal(t, parseErr == nil, locateErr == nil, "input %q: parse=%v locate=%v", input, parseErr, locateErr)
	}
}

func TestParse_Deterministic(t *testing.T) {
	t.Parallel()

	const src = "(prev!(time), agent!(Body1).position.x, (root!, mass,))"

	first, err := queries.Parse(src)
	require.NoError(t, err)

	second, err := queries.Parse(src)
	require.NoError(t, err)

	assert.True(t, queries.Equal(first, second))
	assert.Empty(t, cmp.Diff(first, second))
}

func TestParse_TupleOrderMatters(t *testing.T) {
	t.Parallel()

	a := queries.MustParse(`(root!, agent!("x"))`)
	b := queries.MustParse(`(agent!("x"), root!)`)

	assert.Equal(t, queries.NewTuple(queries.Root{}, queries.Agent{Name: "x"}), a)
	assert.Equal(t, queries.NewTuple(queries.Agent{Name: "x"}, queries.Root{}), b)
	assert.False(t, queries.Equal(a, b))
}

func TestParse_Concurrent(t *testing.T) {
	t.Parallel()

	inputs := []string{"root!", "prev!(a.b)", "(x, y, z)", `agent!("q").r`}

	for i := range 8 {
		t.Run(inputs[i%len(inputs)], func(t *testing.T) {
			t.Parallel()

			for range 50 {
				_, err := queries.Parse(inputs[i%len(inputs)])
				if err != nil {
					t.Errorf("Parse() error: %v", err)
				}
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device not ready")
}

func TestParseReader(t *testing.T) {
	t.Parallel()

	t.Run("reads and parses", func(t *testing.T) {
		t.Parallel()

		q, err := queries.ParseReader("stdin", strings.NewReader("prev!(mass)"))
		require.NoError(t, err)
		assert.Equal(t, queries.Prev{Query: queries.Base{Name: "mass"}}, q)
	})

	t.Run("read failure is an input error", func(t *testing.T) {
		t.Parallel()

		q, err := queries.ParseReader("stdin", failingReader{})
		require.Error(t, err)
		assert.Nil(t, q)
		assert.ErrorIs(t, err, queries.ErrInput)
		assert.NotErrorIs(t, err, queries.ErrSyntax)
		assert.Contains(t, err.Error(), "device not ready")
	})
}

func TestMustParse_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { queries.MustParse("(") })
	assert.NotPanics(t, func() { queries.MustParse("()") })
}

func TestGrammar(t *testing.T) {
	t.Parallel()

	g := queries.Grammar()
	assert.Contains(t, g, "prev!")
	assert.Contains(t, g, "agent!")
	assert.Contains(t, g, "root!")
}
