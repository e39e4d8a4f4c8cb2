package backend

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notifstore/internal/logger"
	apperrors "notifstore/pkg/errors"
	"notifstore/pkg/metrics"
)

// MongoIndex implements Index on a MongoDB collection. Documents are stored
// as BSON with the caller-supplied id under _id.
type MongoIndex struct {
	coll    *mongo.Collection
	timeout time.Duration
	log     logger.Logger
}

// NewMongoIndex wires an Index onto the named collection. Every operation
// runs under the given timeout.
func NewMongoIndex(db *mongo.Database, collection string, timeout time.Duration, log logger.Logger) *MongoIndex {
	return &MongoIndex{
		coll:    db.Collection(collection),
		timeout: timeout,
		log:     log,
	}
}

func (m *MongoIndex) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IncStoreQuery(m.coll.Name(), operation, status)
	metrics.ObserveStoreQueryDuration(m.coll.Name(), operation, time.Since(start))
}

func (m *MongoIndex) Ensure(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.coll.Database().CreateCollection(ctx, m.coll.Name()); err != nil {
		// Another node may have created the collection first.
		cmdErr, ok := err.(mongo.CommandError)
		alreadyExists := (ok && cmdErr.Code == 48) || strings.Contains(err.Error(), "already exists")
		if !alreadyExists {
			return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to create collection %s", m.coll.Name()))
		}
		m.log.DebugwCtx(ctx, "collection already exists", "collection", m.coll.Name())
	}

	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "metadata.tenant", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.access", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.last_update_time", Value: -1}}},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to create indexes on %s", m.coll.Name()))
	}
	return nil
}

func (m *MongoIndex) Put(ctx context.Context, id string, body []byte) (err error) {
	start := time.Now()
	defer func() { m.observe("put", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc bson.M
	if err := bson.Unmarshal(body, &doc); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to decode document body"))
	}
	doc["_id"] = id

	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrConflict.WithMessage("document %s already exists", id)
		}
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to store document %s", id))
	}
	return nil
}

func (m *MongoIndex) Get(ctx context.Context, id string) (doc *Doc, err error) {
	start := time.Now()
	defer func() { m.observe("get", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var raw bson.Raw
	err = m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to fetch document %s", id))
	}
	return &Doc{ID: id, Body: raw}, nil
}

func (m *MongoIndex) MultiGet(ctx context.Context, ids []string) (found map[string]Doc, err error) {
	start := time.Now()
	defer func() { m.observe("multi_get", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cursor, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to fetch documents"))
	}
	defer cursor.Close(ctx)

	found = make(map[string]Doc, len(ids))
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		id, ok := raw.Lookup("_id").StringValueOK()
		if !ok {
			continue
		}
		found[id] = Doc{ID: id, Body: raw}
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to read documents"))
	}
	return found, nil
}

func (m *MongoIndex) Search(ctx context.Context, q SearchQuery) (result *SearchResult, err error) {
	start := time.Now()
	defer func() { m.observe("search", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := compile(q.Predicate)

	total, err := m.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to count documents"))
	}

	dir := -1
	if q.SortAsc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortField, Value: dir}}).
		SetSkip(q.From).
		SetLimit(q.Size)

	cursor, err := m.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to search documents"))
	}
	defer cursor.Close(ctx)

	result = &SearchResult{TotalHits: total, HitRelation: "eq"}
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		id, ok := raw.Lookup("_id").StringValueOK()
		if !ok {
			continue
		}
		result.Docs = append(result.Docs, Doc{ID: id, Body: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to read search results"))
	}
	return result, nil
}

func (m *MongoIndex) Update(ctx context.Context, id string, body []byte) (err error) {
	start := time.Now()
	defer func() { m.observe("update", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc bson.M
	if err := bson.Unmarshal(body, &doc); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to decode document body"))
	}
	doc["_id"] = id

	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to update document %s", id))
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNotFound.WithMessage("document %s not found", id)
	}
	return nil
}

func (m *MongoIndex) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { m.observe("delete", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to delete document %s", id))
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound.WithMessage("document %s not found", id)
	}
	return nil
}

func (m *MongoIndex) BulkDelete(ctx context.Context, ids []string) (status map[string]DeleteStatus, err error) {
	start := time.Now()
	defer func() { m.observe("bulk_delete", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cursor, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to check documents"))
	}
	existing := make(map[string]bool, len(ids))
	for cursor.Next(ctx) {
		if id, ok := bson.Raw(cursor.Current).Lookup("_id").StringValueOK(); ok {
			existing[id] = true
		}
	}
	closeErr := cursor.Err()
	cursor.Close(ctx)
	if closeErr != nil {
		return nil, apperrors.Wrap(closeErr, apperrors.ErrInternal.WithMessage("failed to check documents"))
	}

	if _, err := m.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to delete documents"))
	}

	status = make(map[string]DeleteStatus, len(ids))
	for _, id := range ids {
		if existing[id] {
			status[id] = DeleteStatusOK
		} else {
			status[id] = DeleteStatusNotFound
		}
	}
	return status, nil
}

// compile lowers a predicate tree to a MongoDB filter document.
func compile(p Predicate) bson.M {
	switch t := p.(type) {
	case nil, All:
		return bson.M{}
	case Term:
		return bson.M{t.Field: t.Value}
	case Terms:
		return bson.M{t.Field: bson.M{"$in": t.Values}}
	case Range:
		bounds := bson.M{}
		if t.From != nil {
			bounds["$gte"] = t.From
		}
		if t.To != nil {
			bounds["$lte"] = t.To
		}
		return bson.M{t.Field: bounds}
	case Match:
		return bson.M{t.Field: primitive.Regex{Pattern: regexp.QuoteMeta(t.Text), Options: "i"}}
	case EmptyList:
		// A nil slice marshals to BSON null, so "no list" appears as an
		// empty array, a null, or a missing field. {field: null} matches
		// the latter two.
		return bson.M{"$or": bson.A{
			bson.M{t.Field: bson.M{"$size": 0}},
			bson.M{t.Field: nil},
		}}
	case Nested:
		inner := make(bson.A, 0, len(t.Inner))
		for _, child := range t.Inner {
			inner = append(inner, compile(child))
		}
		if len(inner) == 1 {
			return bson.M{t.Path: bson.M{"$elemMatch": inner[0]}}
		}
		return bson.M{t.Path: bson.M{"$elemMatch": bson.M{"$and": inner}}}
	case And:
		children := make(bson.A, 0, len(t.Children))
		for _, child := range t.Children {
			children = append(children, compile(child))
		}
		return bson.M{"$and": children}
	case Or:
		children := make(bson.A, 0, len(t.Children))
		for _, child := range t.Children {
			children = append(children, compile(child))
		}
		return bson.M{"$or": children}
	default:
		return bson.M{}
	}
}
