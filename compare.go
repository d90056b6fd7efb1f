package queries

import (
	"slices"
	"strings"
)

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b.
//
// Queries of different kinds order by kind rank (Prev < Root < Agent <
// Access < Base < Tuple). Within a kind payloads compare structurally: names
// by byte order, Access by base then field, tuples element-wise with the
// shorter tuple first when one is a prefix of the other. A nil query,
// including a nil sub-query of a zero Prev or Access, sorts before every
// other query and equals only another nil.
func Compare(a, b Query) int {
	a, aok := resolve(a)
	b, bok := resolve(b)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	if ka, kb := a.Kind(), b.Kind(); ka != kb {
		if ka < kb {
			return -1
		}

		return 1
	}

	switch x := a.(type) {
	case Prev:
		return Compare(x.Query, b.(Prev).Query)
	case Agent:
		return strings.Compare(x.Name, b.(Agent).Name)
	case Access:
		y := b.(Access)
		if c := Compare(x.Base, y.Base); c != 0 {
			return c
		}

		return strings.Compare(x.Field, y.Field)
	case Base:
		return strings.Compare(x.Name, b.(Base).Name)
	case Tuple:
		return slices.CompareFunc(x.Items, b.(Tuple).Items, Compare)
	default:
		return 0 // Root
	}
}

// Equal reports whether a and b are structurally identical, including the
// order of tuple items.
func Equal(a, b Query) bool {
	return Compare(a, b) == 0
}

// Key returns a string that identifies q up to structural equality:
// Key(a) == Key(b) exactly when Equal(a, b). Use it to key maps by query.
func Key(q Query) string {
	return Format(q)
}

// Sort sorts qs in place by Compare.
func Sort(qs []Query) {
	slices.SortFunc(qs, Compare)
}

// Unique returns the sorted set of distinct queries in qs. The input slice is
// not modified.
func Unique(qs []Query) []Query {
	out := slices.Clone(qs)
	Sort(out)

	return slices.CompactFunc(out, Equal)
}
