package configstore

import (
	"context"
	"sort"
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
	cache           *DocCache
	notifier        *ChangeNotifier
	log             logger.Logger
	defaultMaxItems int64
}

type ServiceOption func(*service)

func WithCache(cache *DocCache) ServiceOption {
	return func(s *service) {
		s.cache = cache
	}
}

func WithChangeNotifier(notifier *ChangeNotifier) ServiceOption {
	return func(s *service) {
		s.notifier = notifier
	}
}

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
	metrics.IncConfigOperation(operation, status)
	metrics.ObserveConfigOperationDuration(operation, time.Since(start))
}

func (s *service) Create(ctx context.Context, user *access.User, req CreateConfigRequest) (id string, err error) {
	start := time.Now()
	defer func() { s.observe("create", start, err) }()

	if err = validateConfig(&req.Config); err != nil {
		return "", err
	}
	if req.Config.Email != nil {
		if err = s.validateEmailReferences(ctx, user, req.ConfigID, &req.Config); err != nil {
			return "", err
		}
	}

	id = req.ConfigID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := model.ConfigDoc{
		Metadata: model.DocMetadata{
			LastUpdateTime: now,
			CreatedTime:    now,
		},
		Config: req.Config,
	}
	if user != nil {
		doc.Metadata.Tenant = user.Tenant
		doc.Metadata.Access = user.Access
	}

	body, err := bson.Marshal(doc)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to encode config"))
	}
	if err = s.index.Put(ctx, id, body); err != nil {
		if apperrors.IsConflict(err) {
			return "", apperrors.ErrConflict.WithMessage("Config %s already exists", id)
		}
		return "", err
	}

	s.log.InfowCtx(ctx, "notification config created", "config_id", id, "config_type", req.Config.ConfigType)
	s.notifier.publish(ctx, "created", id, req.Config.ConfigType, user)
	return id, nil
}

func (s *service) Get(ctx context.Context, user *access.User, ids []string, q GetConfigsQuery) (result *model.ConfigSearchResult, err error) {
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

func (s *service) getSingle(ctx context.Context, user *access.User, id string) (*model.ConfigSearchResult, error) {
	body := s.cache.get(ctx, id)
	if body == nil {
		doc, err := s.index.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, apperrors.ErrNotFound.WithMessage("NotificationConfig %s not found", id)
		}
		body = doc.Body
		s.cache.set(ctx, id, body)
	}

	parsed, err := decodeConfigDoc(body)
	if err != nil {
		return nil, err
	}
	if !access.HasAccess(user, parsed.Metadata) {
		return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
	}

	return &model.ConfigSearchResult{
		StartIndex:       0,
		TotalHits:        1,
		TotalHitRelation: model.HitRelationEqual,
		Items:            []model.NotificationConfigInfo{toConfigInfo(id, parsed)},
	}, nil
}

func (s *service) getMultiple(ctx context.Context, user *access.User, ids []string) (*model.ConfigSearchResult, error) {
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
		return nil, apperrors.ErrNotFound.WithMessage("Config IDs not found: %s", strings.Join(missing, ","))
	}

	items := make([]model.NotificationConfigInfo, 0, len(ids))
	for _, id := range ids {
		doc := found[id]
		parsed, err := decodeConfigDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		if !access.HasAccess(user, parsed.Metadata) {
			return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
		}
		items = append(items, toConfigInfo(id, parsed))
	}

	return &model.ConfigSearchResult{
		StartIndex:       0,
		TotalHits:        int64(len(items)),
		TotalHitRelation: model.HitRelationEqual,
		Items:            items,
	}, nil
}

func (s *service) search(ctx context.Context, user *access.User, q GetConfigsQuery) (*model.ConfigSearchResult, error) {
	filter, err := query.Build(configFields, q.Filters, q.Query, q.TextQuery)
	if err != nil {
		return nil, err
	}
	sortPath, err := configFields.SortPath(q.SortField)
	if err != nil {
		return nil, err
	}

	from, size := clampPage(q.FromIndex, q.MaxItems, s.defaultMaxItems)
	sq := backend.SearchQuery{
		Predicate: backend.Conjoin(
			filter,
			access.VisibilityPredicate(user),
			access.TenantPredicate(user),
		),
		SortField: sortPath,
		SortAsc:   strings.EqualFold(q.SortOrder, "asc"),
		From:      from,
		Size:      size,
	}

	res, err := s.index.Search(ctx, sq)
	if err != nil {
		return nil, err
	}

	items := make([]model.NotificationConfigInfo, 0, len(res.Docs))
	for _, doc := range res.Docs {
		parsed, err := decodeConfigDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		items = append(items, toConfigInfo(doc.ID, parsed))
	}

	return &model.ConfigSearchResult{
		StartIndex:       from,
		TotalHits:        res.TotalHits,
		TotalHitRelation: res.HitRelation,
		Items:            items,
	}, nil
}

func (s *service) Update(ctx context.Context, user *access.User, id string, cfg model.NotificationConfig) (updatedID string, err error) {
	start := time.Now()
	defer func() { s.observe("update", start, err) }()

	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", apperrors.ErrNotFound.WithMessage("NotificationConfig %s not found", id)
	}
	existing, err := decodeConfigDoc(doc.Body)
	if err != nil {
		return "", err
	}
	if !access.HasAccess(user, existing.Metadata) {
		return "", apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
	}
	if cfg.ConfigType != existing.Config.ConfigType {
		return "", apperrors.ErrConflict.WithMessage("Config type cannot be changed after creation")
	}

	if err = validateConfig(&cfg); err != nil {
		return "", err
	}
	if cfg.Email != nil {
		if err = s.validateEmailReferences(ctx, user, id, &cfg); err != nil {
			return "", err
		}
	}

	// Creation time, tenant and access list are immutable.
	updated := model.ConfigDoc{
		Metadata: model.DocMetadata{
			LastUpdateTime: time.Now().UTC().Truncate(time.Millisecond),
			CreatedTime:    existing.Metadata.CreatedTime,
			Tenant:         existing.Metadata.Tenant,
			Access:         existing.Metadata.Access,
		},
		Config: cfg,
	}
	body, err := bson.Marshal(updated)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to encode config"))
	}
	if err = s.index.Update(ctx, id, body); err != nil {
		return "", err
	}

	s.cache.invalidate(ctx, id)
	s.log.InfowCtx(ctx, "notification config updated", "config_id", id)
	s.notifier.publish(ctx, "updated", id, cfg.ConfigType, user)
	return id, nil
}

func (s *service) Delete(ctx context.Context, user *access.User, id string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()

	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return apperrors.ErrNotFound.WithMessage("NotificationConfig %s not found", id)
	}
	existing, err := decodeConfigDoc(doc.Body)
	if err != nil {
		return err
	}
	if !access.HasAccess(user, existing.Metadata) {
		return apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
	}

	if err = s.index.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.invalidate(ctx, id)
	s.log.InfowCtx(ctx, "notification config deleted", "config_id", id)
	s.notifier.publish(ctx, "deleted", id, existing.Config.ConfigType, user)
	return nil
}

func (s *service) DeleteBulk(ctx context.Context, user *access.User, ids []string) (statuses map[string]string, err error) {
	start := time.Now()
	defer func() { s.observe("delete_bulk", start, err) }()

	if len(ids) == 1 {
		if err = s.Delete(ctx, user, ids[0]); err != nil {
			return nil, err
		}
		return map[string]string{ids[0]: string(backend.DeleteStatusOK)}, nil
	}

	found, err := s.index.MultiGet(ctx, ids)
	if err != nil {
		return nil, err
	}

	// All ids must exist and be accessible before anything is removed.
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.ErrNotFound.WithMessage("Config IDs not found: %s", strings.Join(missing, ","))
	}

	types := make(map[string]model.ConfigType, len(ids))
	for _, id := range ids {
		doc := found[id]
		parsed, err := decodeConfigDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		if !access.HasAccess(user, parsed.Metadata) {
			return nil, apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
		}
		types[id] = parsed.Config.ConfigType
	}

	result, err := s.index.BulkDelete(ctx, ids)
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx, ids...)
	statuses = make(map[string]string, len(result))
	for id, st := range result {
		statuses[id] = string(st)
		if st == backend.DeleteStatusOK {
			s.notifier.publish(ctx, "deleted", id, types[id], user)
		}
	}
	s.log.InfowCtx(ctx, "notification configs deleted", "count", len(ids))
	return statuses, nil
}

func (s *service) GetFeatureChannelList(ctx context.Context, user *access.User, feature string) (channels *model.ChannelList, err error) {
	start := time.Now()
	defer func() { s.observe("get_feature_channel_list", start, err) }()

	if !allowedFeatures[feature] {
		return nil, apperrors.ErrForbidden.WithMessage("Some Features not available")
	}

	channelTypes := make([]string, 0, len(model.ChannelConfigTypes))
	for t := range model.ChannelConfigTypes {
		channelTypes = append(channelTypes, string(t))
	}
	sort.Strings(channelTypes)

	sq := backend.SearchQuery{
		Predicate: backend.Conjoin(
			backend.Terms{Field: configPath("feature_list"), Values: []string{feature}},
			backend.Terms{Field: configPath("config_type"), Values: channelTypes},
			access.VisibilityPredicate(user),
			access.TenantPredicate(user),
		),
		SortField: configPath("name"),
		SortAsc:   true,
		From:      0,
		Size:      constants.MaxMaxItems,
	}

	res, err := s.index.Search(ctx, sq)
	if err != nil {
		return nil, err
	}

	list := make([]model.Channel, 0, len(res.Docs))
	for _, doc := range res.Docs {
		parsed, err := decodeConfigDoc(doc.Body)
		if err != nil {
			return nil, err
		}
		list = append(list, model.Channel{
			ConfigID:    doc.ID,
			Name:        parsed.Config.Name,
			Description: parsed.Config.Description,
			ConfigType:  parsed.Config.ConfigType,
			IsEnabled:   parsed.Config.IsEnabled,
		})
	}

	return &model.ChannelList{
		StartIndex:       0,
		TotalHits:        res.TotalHits,
		TotalHitRelation: res.HitRelation,
		Channels:         list,
	}, nil
}

func decodeConfigDoc(body []byte) (*model.ConfigDoc, error) {
	var doc model.ConfigDoc
	if err := bson.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal.WithMessage("failed to decode config document"))
	}
	return &doc, nil
}

func toConfigInfo(id string, doc *model.ConfigDoc) model.NotificationConfigInfo {
	return model.NotificationConfigInfo{
		ConfigID:       id,
		LastUpdateTime: doc.Metadata.LastUpdateTime.UnixMilli(),
		CreatedTime:    doc.Metadata.CreatedTime.UnixMilli(),
		Config:         doc.Config,
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
