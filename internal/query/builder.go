package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"notifstore/internal/backend"
	apperrors "notifstore/pkg/errors"
)

const rangeSeparator = ".."

// Build compiles external filter parameters into a predicate tree. query,
// when non-empty, is matched against every text and keyword field of the
// table; textQuery is the narrower mode spanning text fields only. Unknown
// parameters are rejected; parameters are processed in sorted order so the
// resulting tree is deterministic.
func Build(t *Table, params map[string]string, query, textQuery string) (backend.Predicate, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	top := make([]backend.Predicate, 0, len(names))
	nested := make(map[string][]backend.Predicate)
	nestedPaths := make([]string, 0)

	for _, name := range names {
		spec, err := t.Classify(name)
		if err != nil {
			return nil, err
		}
		pred, err := buildOne(spec, params[name])
		if err != nil {
			return nil, err
		}
		if spec.NestedPath != "" {
			if _, seen := nested[spec.NestedPath]; !seen {
				nestedPaths = append(nestedPaths, spec.NestedPath)
			}
			nested[spec.NestedPath] = append(nested[spec.NestedPath], pred)
			continue
		}
		top = append(top, pred)
	}

	// All nested predicates on the same path must hold on one element.
	for _, path := range nestedPaths {
		top = append(top, backend.Nested{Path: path, Inner: nested[path]})
	}

	if query != "" {
		top = append(top, t.freeTextPredicate(query, t.allFields))
	}
	if textQuery != "" {
		top = append(top, t.freeTextPredicate(textQuery, t.textFields))
	}

	return backend.Conjoin(top...), nil
}

func buildOne(spec FieldSpec, value string) (backend.Predicate, error) {
	switch spec.Class {
	case ClassRange:
		return buildRange(spec.Path, value)
	case ClassBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, apperrors.ErrValidation.WithMessage("invalid boolean value %s for %s", value, spec.Path)
		}
		return backend.Term{Field: spec.Path, Value: b}, nil
	case ClassKeyword, ClassNestedKeyword:
		return backend.Terms{Field: spec.Path, Values: splitCSV(value)}, nil
	case ClassText, ClassNestedText:
		return backend.Match{Field: spec.Path, Text: value}, nil
	default:
		return nil, apperrors.ErrValidation.WithMessage("Query on %s not acceptable", spec.Path)
	}
}

// buildRange accepts either an exact value or "from..to". Range fields hold
// millisecond epoch timestamps.
func buildRange(field, value string) (backend.Predicate, error) {
	if !strings.Contains(value, rangeSeparator) {
		at, err := parseEpochMillis(value)
		if err != nil {
			return nil, err
		}
		return backend.Term{Field: field, Value: at}, nil
	}
	parts := strings.Split(value, rangeSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, apperrors.ErrValidation.WithMessage(
			"Invalid Range format %s, allowed format 'exact' or 'from..to'", value)
	}
	from, err := parseEpochMillis(parts[0])
	if err != nil {
		return nil, err
	}
	to, err := parseEpochMillis(parts[1])
	if err != nil {
		return nil, err
	}
	return backend.Range{Field: field, From: from, To: to}, nil
}

func parseEpochMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return time.Time{}, apperrors.ErrValidation.WithMessage(
			"Invalid Range format %s, allowed format 'exact' or 'from..to'", value)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// splitCSV interprets a comma-separated value as an OR over its parts.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// freeTextPredicate matches the text against each of the given fields,
// nested ones wrapped in their nested scope.
func (t *Table) freeTextPredicate(text string, fieldNames []string) backend.Predicate {
	names := make([]string, len(fieldNames))
	copy(names, fieldNames)
	sort.Strings(names)

	children := make([]backend.Predicate, 0, len(names))
	for _, name := range names {
		spec := t.fields[name]
		match := backend.Match{Field: spec.Path, Text: text}
		if spec.NestedPath != "" {
			children = append(children, backend.Nested{Path: spec.NestedPath, Inner: []backend.Predicate{match}})
			continue
		}
		children = append(children, match)
	}
	if len(children) == 1 {
		return children[0]
	}
	return backend.Or{Children: children}
}
