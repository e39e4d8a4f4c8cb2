package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifstore/internal/backend"
	"notifstore/internal/model"
)

func TestVisibilityPredicateInternalCaller(t *testing.T) {
	pred := VisibilityPredicate(nil)
	assert.Equal(t, backend.All{}, pred)
}

func TestVisibilityPredicateUser(t *testing.T) {
	user := &User{Name: "alice", Access: []string{"role-a", "be-1"}}

	pred := VisibilityPredicate(user)
	or, ok := pred.(backend.Or)
	require.True(t, ok)
	require.Len(t, or.Children, 2)

	terms, ok := or.Children[0].(backend.Terms)
	require.True(t, ok)
	assert.Equal(t, "metadata.access", terms.Field)
	assert.Equal(t, user.Access, terms.Values)

	empty, ok := or.Children[1].(backend.EmptyList)
	require.True(t, ok)
	assert.Equal(t, "metadata.access", empty.Field)
}

func TestVisibilityPredicateEmptyAccessSeesOnlyPublic(t *testing.T) {
	// A user with no access entries still gets the Or: the Terms branch
	// matches nothing and only public documents remain visible.
	pred := VisibilityPredicate(&User{Name: "bob"})
	or, ok := pred.(backend.Or)
	require.True(t, ok)
	terms := or.Children[0].(backend.Terms)
	assert.Empty(t, terms.Values)
}

func TestHasAccess(t *testing.T) {
	meta := model.DocMetadata{Tenant: "acme", Access: []string{"role-a"}}

	assert.True(t, HasAccess(nil, meta), "internal caller bypasses checks")
	assert.True(t, HasAccess(&User{Tenant: "acme", Access: []string{"role-a", "role-b"}}, meta))
	assert.False(t, HasAccess(&User{Tenant: "acme", Access: []string{"role-b"}}, meta))
	assert.False(t, HasAccess(&User{Tenant: "other", Access: []string{"role-a"}}, meta),
		"tenant mismatch hides the document")
}

func TestHasAccessPublicDocument(t *testing.T) {
	meta := model.DocMetadata{Tenant: "acme"}
	assert.True(t, HasAccess(&User{Tenant: "acme"}, meta))
	assert.True(t, HasAccess(&User{Tenant: "acme", Access: []string{"role-x"}}, meta))
}

func TestVisibleToIgnoresTenant(t *testing.T) {
	meta := model.DocMetadata{Tenant: "acme", Access: []string{"role-a"}}
	assert.True(t, VisibleTo(&User{Tenant: "other", Access: []string{"role-a"}}, meta))
	assert.False(t, VisibleTo(&User{Tenant: "acme", Access: []string{"role-b"}}, meta))
}

func TestTenantPredicate(t *testing.T) {
	assert.Equal(t, backend.All{}, TenantPredicate(nil))

	pred := TenantPredicate(&User{Tenant: "acme"})
	term, ok := pred.(backend.Term)
	require.True(t, ok)
	assert.Equal(t, "metadata.tenant", term.Field)
	assert.Equal(t, "acme", term.Value)
}
