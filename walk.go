package queries

import (
	"slices"
)

// Walk visits q and its sub-queries in pre-order. If fn returns false the
// children of the current node are skipped. fn always receives value
// variants; nil queries are not visited.
func Walk(q Query, fn func(Query) bool) {
	q, ok := resolve(q)
	if !ok {
		return
	}

	if !fn(q) {
		return
	}

	switch n := q.(type) {
	case Prev:
		Walk(n.Query, fn)
	case Access:
		Walk(n.Base, fn)
	case Tuple:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	}
}

// Agents returns the sorted, distinct names of agents referenced by q.
func Agents(q Query) []string {
	var names []string

	Walk(q, func(n Query) bool {
		if a, ok := n.(Agent); ok {
			names = append(names, a.Name)
		}

		return true
	})

	return sortedSet(names)
}

// Bases returns the sorted, distinct names of base values referenced by q.
func Bases(q Query) []string {
	var names []string

	Walk(q, func(n Query) bool {
		if b, ok := n.(Base); ok {
			names = append(names, b.Name)
		}

		return true
	})

	return sortedSet(names)
}

// Depth returns the nesting depth of q. Leaves have depth 1; an empty tuple
// counts as a leaf. A nil query has depth 0.
func Depth(q Query) int {
	q, ok := resolve(q)
	if !ok {
		return 0
	}

	switch n := q.(type) {
	case Prev:
		return 1 + Depth(n.Query)
	case Access:
		return 1 + Depth(n.Base)
	case Tuple:
		deepest := 0
		for _, item := range n.Items {
			deepest = max(deepest, Depth(item))
		}

		return 1 + deepest
	default:
		return 1
	}
}

func sortedSet(names []string) []string {
	slices.Sort(names)

	return slices.Compact(names)
}

// complete reports whether q and all of its sub-queries are present.
func complete(q Query) bool {
	q, ok := resolve(q)
	if !ok {
		return false
	}

	switch n := q.(type) {
	case Prev:
		return complete(n.Query)
	case Access:
		return complete(n.Base)
	case Tuple:
		for _, item := range n.Items {
			if !complete(item) {
				return false
			}
		}
	}

	return true
}
