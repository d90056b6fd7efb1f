package queries

// The types in this file are the participle grammar. They mirror the surface
// syntax one-to-one and are lowered into Query values by the parser. String
// tokens arrive already unquoted.
//
//	Query   := Primary ( "." Name )*
//	Primary := "prev!" "(" Query ")"
//	         | "root!"
//	         | "agent!" "(" Name ")"
//	         | "(" [ Query ( "," Query )* [","] ] ")"
//	         | Name
//	Name    := Ident | String

// queryExpr is a primary followed by a (possibly empty) chain of field
// accesses. Access is left-associative, so the chain is folded in source order.
type queryExpr struct {
	Head   *primaryExpr `parser:"@@"`
	Fields []string     `parser:"( '.' @(Ident | String) )*"`
}

// primaryExpr is a union - exactly one field is set.
type primaryExpr struct {
	Prev  *queryExpr `parser:"  'prev!' '(' @@ ')'"`
	Root  bool       `parser:"| @'root!'"`
	Agent *string    `parser:"| 'agent!' '(' @(Ident | String) ')'"`
	Tuple *tupleExpr `parser:"| @@"`
	Base  *string    `parser:"| @(Ident | String)"`
}

// tupleExpr is a parenthesised, comma separated list with an optional
// trailing comma.
type tupleExpr struct {
	Open  bool         `parser:"@'('"`
	Items []*queryExpr `parser:"( @@ ( ',' @@ )* ','? )? ')'"`
}

func (e *queryExpr) lower() Query { //nolint:ireturn
	q := e.Head.lower()
	for _, f := range e.Fields {
		q = Access{Base: q, Field: f}
	}

	return q
}

func (e *primaryExpr) lower() Query { //nolint:ireturn
	switch {
	case e.Prev != nil:
		return Prev{Query: e.Prev.lower()}
	case e.Root:
		return Root{}
	case e.Agent != nil:
		return Agent{Name: *e.Agent}
	case e.Tuple != nil:
		items := make([]Query, len(e.Tuple.Items))
		for i, item := range e.Tuple.Items {
			items[i] = item.lower()
		}

		return Tuple{Items: items}
	default:
		return Base{Name: *e.Base}
	}
}
