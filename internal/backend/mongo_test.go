package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConjoin(t *testing.T) {
	assert.Equal(t, All{}, Conjoin())
	assert.Equal(t, All{}, Conjoin(All{}, nil, All{}))

	term := Term{Field: "f", Value: 1}
	assert.Equal(t, term, Conjoin(All{}, term))

	and, ok := Conjoin(term, Terms{Field: "g"}).(And)
	require.True(t, ok)
	assert.Len(t, and.Children, 2)
}

func TestCompileTerm(t *testing.T) {
	filter := compile(Term{Field: "config.is_enabled", Value: true})
	assert.Equal(t, bson.M{"config.is_enabled": true}, filter)
}

func TestCompileTerms(t *testing.T) {
	filter := compile(Terms{Field: "config.config_type", Values: []string{"slack", "chime"}})
	assert.Equal(t, bson.M{"config.config_type": bson.M{"$in": []string{"slack", "chime"}}}, filter)
}

func TestCompileRange(t *testing.T) {
	from := time.UnixMilli(1000).UTC()
	to := time.UnixMilli(2000).UTC()
	filter := compile(Range{Field: "metadata.last_update_time", From: from, To: to})
	assert.Equal(t, bson.M{"metadata.last_update_time": bson.M{"$gte": from, "$lte": to}}, filter)
}

func TestCompileMatchIsCaseInsensitiveAndEscaped(t *testing.T) {
	filter := compile(Match{Field: "config.name", Text: "ops (prod)"})
	rx, ok := filter["config.name"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, "i", rx.Options)
	assert.Contains(t, rx.Pattern, `\(prod\)`)
}

func TestCompileEmptyListMatchesMissingNullOrEmpty(t *testing.T) {
	filter := compile(EmptyList{Field: "metadata.access"})
	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"metadata.access": bson.M{"$size": 0}}, or[0])
	// Nil access slices are stored as null; {field: null} also matches a
	// document without the field at all.
	assert.Equal(t, bson.M{"metadata.access": nil}, or[1])
}

func TestCompileNestedSingle(t *testing.T) {
	filter := compile(Nested{
		Path:  "event.status_list",
		Inner: []Predicate{Terms{Field: "config_id", Values: []string{"cfg-1"}}},
	})
	elem, ok := filter["event.status_list"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"config_id": bson.M{"$in": []string{"cfg-1"}}}, elem["$elemMatch"])
}

func TestCompileNestedMultipleHoldOnSameElement(t *testing.T) {
	filter := compile(Nested{
		Path: "event.status_list",
		Inner: []Predicate{
			Terms{Field: "config_id", Values: []string{"cfg-1"}},
			Term{Field: "config_type", Value: "slack"},
		},
	})
	elem := filter["event.status_list"].(bson.M)["$elemMatch"].(bson.M)
	and, ok := elem["$and"].(bson.A)
	require.True(t, ok)
	assert.Len(t, and, 2)
}

func TestCompileBooleanOperators(t *testing.T) {
	filter := compile(Or{Children: []Predicate{
		Term{Field: "a", Value: 1},
		And{Children: []Predicate{Term{Field: "b", Value: 2}, Term{Field: "c", Value: 3}}},
	}})
	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"a": 1}, or[0])
}

func TestCompileAllAndNil(t *testing.T) {
	assert.Equal(t, bson.M{}, compile(All{}))
	assert.Equal(t, bson.M{}, compile(nil))
}
