package access

import (
	"notifstore/internal/backend"
	"notifstore/internal/model"
)

// User is the acting caller. A nil *User denotes a trusted internal caller
// that bypasses access control entirely; a non-nil user with an empty Access
// list sees only public documents.
type User struct {
	Name   string
	Tenant string
	Access []string
}

// VisibilityPredicate restricts a search to documents the user may see: any
// overlap between the user's access entries and the document's access list,
// or a document with no access list at all, which is public.
func VisibilityPredicate(user *User) backend.Predicate {
	if user == nil {
		return backend.All{}
	}
	field := model.MetadataField(model.AccessListTag)
	return backend.Or{Children: []backend.Predicate{
		backend.Terms{Field: field, Values: user.Access},
		backend.EmptyList{Field: field},
	}}
}

// TenantPredicate restricts a search to the user's tenant. Internal callers
// see every tenant.
func TenantPredicate(user *User) backend.Predicate {
	if user == nil {
		return backend.All{}
	}
	return backend.Term{Field: model.MetadataField(model.TenantTag), Value: user.Tenant}
}

// HasAccess decides post-fetch visibility of a single config document:
// the tenant must match and the access lists must overlap.
func HasAccess(user *User, meta model.DocMetadata) bool {
	if user == nil {
		return true
	}
	if meta.Tenant != user.Tenant {
		return false
	}
	return VisibleTo(user, meta)
}

// VisibleTo checks access-list overlap only. Documents with an empty access
// list are public. Event documents are checked this way; tenant scoping
// applies to configs only.
func VisibleTo(user *User, meta model.DocMetadata) bool {
	if user == nil {
		return true
	}
	if len(meta.Access) == 0 {
		return true
	}
	for _, have := range user.Access {
		for _, want := range meta.Access {
			if have == want {
				return true
			}
		}
	}
	return false
}
