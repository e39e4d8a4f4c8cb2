package backend

import "context"

// SearchQuery describes one paginated, filtered, sorted lookup against an
// index.
type SearchQuery struct {
	Predicate Predicate
	SortField string
	SortAsc   bool
	From      int64
	Size      int64
}

// Doc is one raw document returned by an index, keyed by its id.
type Doc struct {
	ID   string
	Body []byte
}

// SearchResult is a page of documents plus total hit accounting.
type SearchResult struct {
	TotalHits   int64
	HitRelation string
	Docs        []Doc
}

// DeleteStatus is the per-id outcome of a bulk delete.
type DeleteStatus string

const (
	DeleteStatusOK       DeleteStatus = "OK"
	DeleteStatusNotFound DeleteStatus = "NOT_FOUND"
)

// Index is the document-store capability the stores are written against.
// Implementations must return pkg/errors values: ErrConflict for duplicate
// ids on Put, ErrInternal for backend failures.
type Index interface {
	// Ensure creates the index if it does not exist. Concurrent creation
	// by another node is not an error.
	Ensure(ctx context.Context) error

	// Put stores a new document. Fails with ErrConflict if the id exists.
	Put(ctx context.Context, id string, body []byte) error

	// Get fetches one document. Returns (nil, nil) when the id is absent.
	Get(ctx context.Context, id string) (*Doc, error)

	// MultiGet fetches many documents by id. Absent ids are simply missing
	// from the result; the result preserves no particular order.
	MultiGet(ctx context.Context, ids []string) (map[string]Doc, error)

	// Search runs a filtered, sorted, paginated query.
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)

	// Update replaces the body of an existing document. Returns
	// ErrNotFound if the id is absent.
	Update(ctx context.Context, id string, body []byte) error

	// Delete removes one document. Returns ErrNotFound if the id is absent.
	Delete(ctx context.Context, id string) error

	// BulkDelete removes many documents and reports a per-id outcome.
	BulkDelete(ctx context.Context, ids []string) (map[string]DeleteStatus, error)
}
