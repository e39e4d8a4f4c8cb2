package eventstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"notifstore/internal/access"
	"notifstore/internal/backend"
	"notifstore/internal/constants"
	"notifstore/internal/logger"
	"notifstore/internal/model"
	"notifstore/internal/query"
	apperrors "notifstore/pkg/errors"
	"notifstore/pkg/metrics"
)

type service struct {
	index           backend.Index
	log             logger.Logger
	defaultMaxItems int64
}

type ServiceOption func(*service)

func WithDefaultMaxItems(n int64) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.defaultMaxItems = n
		}
	}
}

func NewService(index backend.Index, log logger.Logger, opts ...ServiceOption) Service {
	s := &service{
		index:           index,
		log:             log,
		defaultMaxItems: constants.DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) observe(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IncEventOperation(operation, status)
	metrics.ObserveEventOperationDuration(operation, time.Since(start))
}

func (s *service) Create(ctx context.Context, user *access.User, req CreateEventRequest) (id string, err error) {
	start := time.Now()
	defer func() { s.observe("create", start, err) }()

	if err = req.Event.Validate(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrValidation.WithMessage("%s", err.Error()))
	}

	id = req.EventID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := model.EventDoc{
		Metadata: model.DocMetadata{
			LastUpdateTime: now,
			CreatedTime:    now,
		},
		Event: req.Event,
	}
	if user != nil {
		doc.Metadata.Tenant = user.Tenant
		doc.Metadata.Access = user.Access
	}

	body, err := bson.Marshal(doc)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to encode event"))
	}
	if err = s.index.Put(ctx, id, body); err != nil {
		if apperrors.IsConflict(err) {
			return "", apperrors.ErrConflict.WithMessage("Event %s already exists", id)
		}
		return "", err
	}

	s.log.InfowCtx(ctx, "notification event created", "event_id", id,
		"feature", req.Event.EventSource.Feature)
	return id, nil
}

func (s *service) Get(ctx context.Context, user *access.User, ids []string, q GetEventsQuery) (result *model.EventSearchResult, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, err) }()

	switch len(ids) {
	case 0:
		result, err = s.search(ctx, user, q)
	case 1:
		result, err = s.getSingle(ctx, user, ids[0])
	default:
		result, err = s.getMultiple(ctx, user, ids)
	}
	return result, err
}

func (s *service) getSingle(ctx context.Context, user *access.User, id string) (*model.EventSearchResult, error) {
	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperrors.ErrNotFound.WithMessage("NotificationEvent %s not found", id)
	}

	parsed, err := decodeEventDoc(doc.Body)
	if err != nil {
		return nil, err
	}
	if !access.VisibleTo(user, parsed.Metadata) {
		return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationEvent %s", id)
	}

	return &model.EventSearchResult{
		StartIndex:       0,
		TotalHits:        1,
		TotalHitRelation: model.HitRelationEqual,
		Items:            []model.NotificationEventInfo{toEventInfo(id, parsed)},
	}, nil
}

func (s *service) getMultiple(ctx context.Context, user *access.User, ids []string) (*model.EventSearchResult, error) {
	found, err := s.index.MultiGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.ErrNotFound.WithMessage("Event IDs not found: %s", strings.Join(missing, ","))
	}

	items := make([]model.NotificationEventInfo, 0, len(ids))
	for _, id := range ids {
		doc := found[id]
		parsed, err := decodeEventDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		if !access.VisibleTo(user, parsed.Metadata) {
			return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationEvent %s", id)
		}
		items = append(items, toEventInfo(id, parsed))
	}

	return &model.EventSearchResult{
		StartIndex:       0,
		TotalHits:        int64(len(items)),
		TotalHitRelation: model.HitRelationEqual,
		Items:            items,
	}, nil
}

func (s *service) search(ctx context.Context, user *access.User, q GetEventsQuery) (*model.EventSearchResult, error) {
	filter, err := query.Build(eventFields, q.Filters, q.Query, q.TextQuery)
	if err != nil {
		return nil, err
	}
	sortPath, err := eventFields.SortPath(q.SortField)
	if err != nil {
		return nil, err
	}

	from, size := clampPage(q.FromIndex, q.MaxItems, s.defaultMaxItems)
	sq := backend.SearchQuery{
		Predicate: backend.Conjoin(filter, access.VisibilityPredicate(user)),
		SortField: sortPath,
		SortAsc:   strings.EqualFold(q.SortOrder, "asc"),
		From:      from,
		Size:      size,
	}

	res, err := s.index.Search(ctx, sq)
	if err != nil {
		return nil, err
	}

	items := make([]model.NotificationEventInfo, 0, len(res.Docs))
	for _, doc := range res.Docs {
		parsed, err := decodeEventDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		items = append(items, toEventInfo(doc.ID, parsed))
	}

	return &model.EventSearchResult{
		StartIndex:       from,
		TotalHits:        res.TotalHits,
		TotalHitRelation: res.HitRelation,
		Items:            items,
	}, nil
}

func (s *service) Update(ctx context.Context, user *access.User, id string, event model.NotificationEvent) (updatedID string, err error) {
	start := time.Now()
	defer func() { s.observe("update", start, err) }()

	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", apperrors.ErrNotFound.WithMessage("NotificationEvent %s not found", id)
	}
	existing, err := decodeEventDoc(doc.Body)
	if err != nil {
		return "", err
	}
	if !access.VisibleTo(user, existing.Metadata) {
		return "", apperrors.ErrForbidden.WithMessage("Permission denied for NotificationEvent %s", id)
	}

	if err = event.Validate(); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrValidation.WithMessage("%s", err.Error()))
	}

	updated := model.EventDoc{
		Metadata: model.DocMetadata{
			LastUpdateTime: time.Now().UTC().Truncate(time.Millisecond),
			CreatedTime:    existing.Metadata.CreatedTime,
			Tenant:         existing.Metadata.Tenant,
			Access:         existing.Metadata.Access,
		},
		Event: event,
	}
	if err = s.replace(ctx, id, updated); err != nil {
		return "", err
	}

	s.log.InfowCtx(ctx, "notification event updated", "event_id", id)
	return id, nil
}

// RecordDeliveryStatus merges per-channel delivery outcomes into an existing
// event: a status for an already recorded channel replaces it, others append.
func (s *service) RecordDeliveryStatus(ctx context.Context, user *access.User, id string, statuses []model.ChannelStatus) (err error) {
	start := time.Now()
	defer func() { s.observe("record_delivery_status", start, err) }()

	if len(statuses) == 0 {
		return apperrors.ErrValidation.WithMessage("status list is empty")
	}
	for i := range statuses {
		if err = statuses[i].Validate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrValidation.WithMessage("%s", err.Error()))
		}
	}

	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return apperrors.ErrNotFound.WithMessage("NotificationEvent %s not found", id)
	}
	existing, err := decodeEventDoc(doc.Body)
	if err != nil {
		return err
	}
	if !access.VisibleTo(user, existing.Metadata) {
		return apperrors.ErrForbidden.WithMessage("Permission denied for NotificationEvent %s", id)
	}

	byConfig := make(map[string]int, len(existing.Event.StatusList))
	for i, st := range existing.Event.StatusList {
		byConfig[st.ConfigID] = i
	}
	for _, st := range statuses {
		if i, ok := byConfig[st.ConfigID]; ok {
			existing.Event.StatusList[i] = st
			continue
		}
		existing.Event.StatusList = append(existing.Event.StatusList, st)
		byConfig[st.ConfigID] = len(existing.Event.StatusList) - 1
	}
	existing.Metadata.LastUpdateTime = time.Now().UTC().Truncate(time.Millisecond)

	if err = s.replace(ctx, id, *existing); err != nil {
		return err
	}

	s.log.InfowCtx(ctx, "delivery status recorded", "event_id", id, "channels", len(statuses))
	return nil
}

func (s *service) Delete(ctx context.Context, user *access.User, ids []string) (result map[string]string, err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()

	if len(ids) == 0 {
		return nil, apperrors.ErrValidation.WithMessage("event id list is empty")
	}

	found, err := s.index.MultiGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	// All ids must exist and be visible before anything is removed.
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.ErrNotFound.WithMessage("Event IDs not found: %s", strings.Join(missing, ","))
	}
	for _, id := range ids {
		doc := found[id]
		parsed, err := decodeEventDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		if !access.VisibleTo(user, parsed.Metadata) {
			return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationEvent %s", id)
		}
	}

	deleted, err := s.index.BulkDelete(ctx, ids)
	if err != nil {
		return nil, err
	}

	result = make(map[string]string, len(deleted))
	for id, st := range deleted {
		result[id] = string(st)
	}
	s.log.InfowCtx(ctx, "notification events deleted", "count", len(ids))
	return result, nil
}

func (s *service) replace(ctx context.Context, id string, doc model.EventDoc) error {
	body, err := bson.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to encode event"))
	}
	return s.index.Update(ctx, id, body)
}

func decodeEventDoc(body []byte) (*model.EventDoc, error) {
	var doc model.EventDoc
	if err := bson.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to decode event document"))
	}
	return &doc, nil
}

func toEventInfo(id string, doc *model.EventDoc) model.NotificationEventInfo {
	return model.NotificationEventInfo{
		EventID:        id,
		LastUpdateTime: doc.Metadata.LastUpdateTime.UnixMilli(),
		CreatedTime:    doc.Metadata.CreatedTime.UnixMilli(),
		Event:          doc.Event,
	}
}

func clampPage(from, size, defaultSize int64) (int64, int64) {
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > constants.MaxMaxItems {
		size = constants.MaxMaxItems
	}
	return from, size
}
