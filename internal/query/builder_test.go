package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifstore/internal/backend"
	apperrors "notifstore/pkg/errors"
)

func testTable() *Table {
	return NewTable("metadata.last_update_time", map[string]FieldSpec{
		"last_updated_time_ms": {Class: ClassRange, Path: "metadata.last_update_time", Sortable: true},
		"is_enabled":           {Class: ClassBoolean, Path: "config.is_enabled", Sortable: true},
		"config_type":          {Class: ClassKeyword, Path: "config.config_type", Sortable: true},
		"name":                 {Class: ClassText, Path: "config.name", Sortable: true},
		"description":          {Class: ClassText, Path: "config.description"},
		"status_list.config_id": {Class: ClassNestedKeyword, Path: "config_id",
			NestedPath: "event.status_list"},
		"status_list.config_name": {Class: ClassNestedText, Path: "config_name",
			NestedPath: "event.status_list"},
	})
}

func TestClassifyRejectsUnknownField(t *testing.T) {
	_, err := testTable().Classify("metadata.access")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Query on metadata.access not acceptable")
}

func TestSortPath(t *testing.T) {
	table := testTable()

	path, err := table.SortPath("")
	require.NoError(t, err)
	assert.Equal(t, "metadata.last_update_time", path)

	path, err = table.SortPath("config_type")
	require.NoError(t, err)
	assert.Equal(t, "config.config_type", path)

	_, err = table.SortPath("description")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sort on description not acceptable")

	_, err = table.SortPath("no_such_field")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuildKeywordCSV(t *testing.T) {
	pred, err := Build(testTable(), map[string]string{"config_type": "slack, chime"}, "", "")
	require.NoError(t, err)

	terms, ok := pred.(backend.Terms)
	require.True(t, ok)
	assert.Equal(t, "config.config_type", terms.Field)
	assert.Equal(t, []string{"slack", "chime"}, terms.Values)
}

func TestBuildBoolean(t *testing.T) {
	pred, err := Build(testTable(), map[string]string{"is_enabled": "true"}, "", "")
	require.NoError(t, err)

	term, ok := pred.(backend.Term)
	require.True(t, ok)
	assert.Equal(t, "config.is_enabled", term.Field)
	assert.Equal(t, true, term.Value)

	_, err = Build(testTable(), map[string]string{"is_enabled": "yes please"}, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuildRangeFromTo(t *testing.T) {
	pred, err := Build(testTable(), map[string]string{"last_updated_time_ms": "1000..2000"}, "", "")
	require.NoError(t, err)

	rng, ok := pred.(backend.Range)
	require.True(t, ok)
	assert.Equal(t, "metadata.last_update_time", rng.Field)
	assert.Equal(t, time.UnixMilli(1000).UTC(), rng.From)
	assert.Equal(t, time.UnixMilli(2000).UTC(), rng.To)
}

func TestBuildRangeExact(t *testing.T) {
	pred, err := Build(testTable(), map[string]string{"last_updated_time_ms": "1500"}, "", "")
	require.NoError(t, err)

	term, ok := pred.(backend.Term)
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(1500).UTC(), term.Value)
}

func TestBuildRangeRejectsMalformed(t *testing.T) {
	for _, value := range []string{"1000..", "..2000", "1000..2000..3000", "abc", "a..b"} {
		_, err := Build(testTable(), map[string]string{"last_updated_time_ms": value}, "", "")
		require.Error(t, err, "value %q", value)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "Invalid Range format")
	}
}

func TestBuildNestedGrouping(t *testing.T) {
	pred, err := Build(testTable(), map[string]string{
		"status_list.config_id":   "cfg-1",
		"status_list.config_name": "ops channel",
	}, "", "")
	require.NoError(t, err)

	nested, ok := pred.(backend.Nested)
	require.True(t, ok, "both nested filters must land on one element")
	assert.Equal(t, "event.status_list", nested.Path)
	assert.Len(t, nested.Inner, 2)
}

func TestBuildTextQueryCoversTextFieldsOnly(t *testing.T) {
	pred, err := Build(testTable(), nil, "", "weekly report")
	require.NoError(t, err)

	or, ok := pred.(backend.Or)
	require.True(t, ok)
	// name, description and status_list.config_name
	assert.Len(t, or.Children, 3)
	for _, child := range or.Children {
		if m, ok := child.(backend.Match); ok {
			assert.NotEqual(t, "config.config_type", m.Field)
		}
	}
}

func TestBuildQuerySpansKeywordAndNestedKeywordFields(t *testing.T) {
	pred, err := Build(testTable(), nil, "slack", "")
	require.NoError(t, err)

	or, ok := pred.(backend.Or)
	require.True(t, ok)
	// config_type, name, description, status_list.config_id and
	// status_list.config_name; range and boolean fields stay out.
	require.Len(t, or.Children, 5)

	fields := make(map[string]bool)
	for _, child := range or.Children {
		switch m := child.(type) {
		case backend.Match:
			fields[m.Field] = true
		case backend.Nested:
			require.Len(t, m.Inner, 1)
			inner, ok := m.Inner[0].(backend.Match)
			require.True(t, ok)
			fields[m.Path+"."+inner.Field] = true
		}
	}
	assert.True(t, fields["config.config_type"])
	assert.True(t, fields["event.status_list.config_id"])
	assert.False(t, fields["metadata.last_update_time"])
	assert.False(t, fields["config.is_enabled"])
}

func TestBuildBothFreeTextModesCombine(t *testing.T) {
	pred, err := Build(testTable(), nil, "slack", "report")
	require.NoError(t, err)

	and, ok := pred.(backend.And)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}

func TestBuildDeterministic(t *testing.T) {
	params := map[string]string{
		"config_type": "slack",
		"is_enabled":  "true",
		"name":        "alerts",
	}
	first, err := Build(testTable(), params, "", "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		next, err := Build(testTable(), params, "", "")
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestBuildEmpty(t *testing.T) {
	pred, err := Build(testTable(), nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, backend.All{}, pred)
}
