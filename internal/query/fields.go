package query

import (
	apperrors "notifstore/pkg/errors"
)

// FieldClass drives how a filter value is parsed and which predicate it
// compiles to.
type FieldClass int

const (
	ClassRange FieldClass = iota
	ClassBoolean
	ClassKeyword
	ClassText
	ClassNestedKeyword
	ClassNestedText
)

// FieldSpec maps one external filter name onto the stored document.
// For nested classes, Path is relative to NestedPath.
type FieldSpec struct {
	Class      FieldClass
	Path       string
	NestedPath string
	Sortable   bool
}

// Table is the closed set of filterable and sortable fields for one store.
// Anything outside the table is rejected, never passed through.
type Table struct {
	fields      map[string]FieldSpec
	textFields  []string
	allFields   []string
	defaultSort string
}

// NewTable builds a field table. defaultSort is the stored path used when no
// sort field is requested. textFields feeds the text-only free-text mode;
// allFields additionally spans keyword fields but never range or boolean
// ones, which live under metadata.
func NewTable(defaultSort string, fields map[string]FieldSpec) *Table {
	t := &Table{fields: fields, defaultSort: defaultSort}
	for name, spec := range fields {
		switch spec.Class {
		case ClassText, ClassNestedText:
			t.textFields = append(t.textFields, name)
			t.allFields = append(t.allFields, name)
		case ClassKeyword, ClassNestedKeyword:
			t.allFields = append(t.allFields, name)
		}
	}
	return t
}

// Classify resolves an external filter name to its spec.
func (t *Table) Classify(name string) (FieldSpec, error) {
	spec, ok := t.fields[name]
	if !ok {
		return FieldSpec{}, apperrors.ErrValidation.WithMessage("Query on %s not acceptable", name)
	}
	return spec, nil
}

// SortPath resolves a sort field to its stored path. An empty name selects
// the default sort.
func (t *Table) SortPath(name string) (string, error) {
	if name == "" {
		return t.defaultSort, nil
	}
	spec, ok := t.fields[name]
	if !ok || !spec.Sortable {
		return "", apperrors.ErrValidation.WithMessage("Sort on %s not acceptable", name)
	}
	if spec.NestedPath != "" {
		return spec.NestedPath + "." + spec.Path, nil
	}
	return spec.Path, nil
}
