package backend

// Predicate is a storage-neutral filter tree. Query building and access
// control compose predicates; each index implementation compiles them to its
// native query language.
type Predicate interface {
	isPredicate()
}

// All matches every document.
type All struct{}

// Term matches documents whose field equals the value exactly.
type Term struct {
	Field string
	Value interface{}
}

// Terms matches documents whose field equals any of the values. An empty
// value list matches nothing.
type Terms struct {
	Field  string
	Values []string
}

// Range matches documents whose field lies within [From, To]. A nil bound
// leaves that side open.
type Range struct {
	Field string
	From  interface{}
	To    interface{}
}

// Match matches documents whose text field contains the given words,
// case-insensitively.
type Match struct {
	Field string
	Text  string
}

// EmptyList matches documents whose list field is absent, null or empty.
type EmptyList struct {
	Field string
}

// Nested applies inner predicates to elements of a list-of-objects field.
// All inner predicates must hold on the same element. Inner field names are
// relative to Path.
type Nested struct {
	Path  string
	Inner []Predicate
}

// And requires every child to hold.
type And struct {
	Children []Predicate
}

// Or requires at least one child to hold.
type Or struct {
	Children []Predicate
}

func (All) isPredicate()       {}
func (Term) isPredicate()      {}
func (Terms) isPredicate()     {}
func (Range) isPredicate()     {}
func (Match) isPredicate()     {}
func (EmptyList) isPredicate() {}
func (Nested) isPredicate()    {}
func (And) isPredicate()       {}
func (Or) isPredicate()        {}

// Conjoin folds predicates into a single predicate, dropping All terms.
func Conjoin(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil {
			continue
		}
		if _, ok := p.(All); ok {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return All{}
	case 1:
		return kept[0]
	default:
		return And{Children: kept}
	}
}
