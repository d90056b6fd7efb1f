// Package queries provides the parser and syntax tree for the path query
// language used to describe what an agent function consumes and produces.
//
// A query names a location in the simulation data model: the root, a named
// agent, a base value of the current agent, a field projected off another
// query, the previous value of a query, or a tuple of queries.
package queries

import "strconv"

// Kind identifies the variant of a Query. Kinds are declared in rank order;
// Compare orders queries of different kinds by this rank.
type Kind int

// Query kinds.
const (
	KindPrev Kind = iota
	KindRoot
	KindAgent
	KindAccess
	KindBase
	KindTuple
)

var kindNames = [...]string{
	KindPrev:   "Prev",
	KindRoot:   "Root",
	KindAgent:  "Agent",
	KindAccess: "Access",
	KindBase:   "Base",
	KindTuple:  "Tuple",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindNames[k]
}

// kindByName is the inverse of kindNames, used when decoding tagged trees.
var kindByName = map[string]Kind{
	"Prev":   KindPrev,
	"Root":   KindRoot,
	"Agent":  KindAgent,
	"Access": KindAccess,
	"Base":   KindBase,
	"Tuple":  KindTuple,
}

// Query is a node of the syntax tree. The set of implementations is closed:
// Prev, Root, Agent, Access, Base and Tuple.
//
// Query values are immutable; sub-queries are owned by their parent and never
// shared. Pointers to the variants also satisfy Query because the methods
// have value receivers; the functions in this package treat them as the
// value they point to, and a nil pointer like a nil Query.
type Query interface {
	Kind() Kind
	String() string
	isQuery()
}

// Prev is the previous value of the wrapped query.
type Prev struct {
	Query Query
}

// Root is the root of the data model.
type Root struct{}

// Agent references a named agent.
type Agent struct {
	Name string
}

// Access projects a named field off another query.
type Access struct {
	Base  Query
	Field string
}

// Base references a named base value.
type Base struct {
	Name string
}

// Tuple groups sibling queries. Item order is significant.
type Tuple struct {
	Items []Query
}

func (Prev) Kind() Kind   { return KindPrev }
func (Root) Kind() Kind   { return KindRoot }
func (Agent) Kind() Kind  { return KindAgent }
func (Access) Kind() Kind { return KindAccess }
func (Base) Kind() Kind   { return KindBase }
func (Tuple) Kind() Kind  { return KindTuple }

func (Prev) isQuery()   {}
func (Root) isQuery()   {}
func (Agent) isQuery()  {}
func (Access) isQuery() {}
func (Base) isQuery()   {}
func (Tuple) isQuery()  {}

func (q Prev) String() string   { return Format(q) }
func (q Root) String() string   { return Format(q) }
func (q Agent) String() string  { return Format(q) }
func (q Access) String() string { return Format(q) }
func (q Base) String() string   { return Format(q) }
func (q Tuple) String() string  { return Format(q) }

// NewTuple builds a tuple from the given items.
func NewTuple(items ...Query) Tuple {
	if items == nil {
		items = []Query{}
	}

	return Tuple{Items: items}
}

// Path builds a left-associative access chain: Path(q, "a", "b") is
// Access{Access{q, "a"}, "b"}.
func Path(base Query, fields ...string) Query { //nolint:ireturn
	q := base
	for _, f := range fields {
		q = Access{Base: q, Field: f}
	}

	return q
}

// resolve returns q as one of the six value variants. ok is false for a nil
// Query, a nil variant pointer, or a type declared outside this package.
func resolve(q Query) (Query, bool) { //nolint:ireturn
	switch n := q.(type) {
	case Prev, Root, Agent, Access, Base, Tuple:
		return n, true
	case *Prev:
		return deref(n)
	case *Root:
		return deref(n)
	case *Agent:
		return deref(n)
	case *Access:
		return deref(n)
	case *Base:
		return deref(n)
	case *Tuple:
		return deref(n)
	default:
		return nil, false
	}
}

func deref[T Query](p *T) (Query, bool) { //nolint:ireturn
	if p == nil {
		return nil, false
	}

	return *p, true
}
