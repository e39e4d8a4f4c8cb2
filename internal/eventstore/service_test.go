package eventstore

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifstore/internal/access"
	"notifstore/internal/backend"
	"notifstore/internal/logger"
	"notifstore/internal/model"
	apperrors "notifstore/pkg/errors"
)

type fakeIndex struct {
	docs map[string][]byte
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string][]byte)}
}

func (f *fakeIndex) Ensure(ctx context.Context) error { return nil }

func (f *fakeIndex) Put(ctx context.Context, id string, body []byte) error {
	if _, ok := f.docs[id]; ok {
		return apperrors.ErrConflict.WithMessage("document %s already exists", id)
	}
	f.docs[id] = body
	return nil
}

func (f *fakeIndex) Get(ctx context.Context, id string) (*backend.Doc, error) {
	body, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	return &backend.Doc{ID: id, Body: body}, nil
}

func (f *fakeIndex) MultiGet(ctx context.Context, ids []string) (map[string]backend.Doc, error) {
	found := make(map[string]backend.Doc)
	for _, id := range ids {
		if body, ok := f.docs[id]; ok {
			found[id] = backend.Doc{ID: id, Body: body}
		}
	}
	return found, nil
}

func (f *fakeIndex) Search(ctx context.Context, q backend.SearchQuery) (*backend.SearchResult, error) {
	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &backend.SearchResult{TotalHits: int64(len(ids)), HitRelation: "eq"}
	for _, id := range ids {
		result.Docs = append(result.Docs, backend.Doc{ID: id, Body: f.docs[id]})
	}
	return result, nil
}

func (f *fakeIndex) Update(ctx context.Context, id string, body []byte) error {
	if _, ok := f.docs[id]; !ok {
		return apperrors.ErrNotFound.WithMessage("document %s not found", id)
	}
	f.docs[id] = body
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return apperrors.ErrNotFound.WithMessage("document %s not found", id)
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) BulkDelete(ctx context.Context, ids []string) (map[string]backend.DeleteStatus, error) {
	status := make(map[string]backend.DeleteStatus, len(ids))
	for _, id := range ids {
		if _, ok := f.docs[id]; ok {
			delete(f.docs, id)
			status[id] = backend.DeleteStatusOK
		} else {
			status[id] = backend.DeleteStatusNotFound
		}
	}
	return status, nil
}

func newTestService(t *testing.T) (Service, *fakeIndex) {
	t.Helper()
	index := newFakeIndex()
	return NewService(index, logger.NopLogger()), index
}

func sampleEvent() model.NotificationEvent {
	return model.NotificationEvent{
		EventSource: model.EventSource{
			Title:       "disk watermark breached",
			ReferenceID: "monitor-7",
			Feature:     "alerting",
			Severity:    model.SeverityHigh,
		},
		StatusList: []model.ChannelStatus{
			{
				ConfigID:       "chan-1",
				ConfigName:     "ops slack",
				ConfigType:     model.ConfigTypeSlack,
				DeliveryStatus: &model.DeliveryStatus{StatusCode: "200", StatusText: "Success"},
			},
		},
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	result, err := svc.Get(ctx, nil, []string{id}, GetEventsQuery{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, id, result.Items[0].EventID)
	assert.Equal(t, "disk watermark breached", result.Items[0].Event.EventSource.Title)
	assert.Greater(t, result.Items[0].CreatedTime, int64(0))
}

func TestCreateRejectsEmptyStatusList(t *testing.T) {
	svc, _ := newTestService(t)
	event := sampleEvent()
	event.StatusList = nil

	_, err := svc.Create(context.Background(), nil, CreateEventRequest{Event: event})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateRejectsNonChannelStatusType(t *testing.T) {
	svc, _ := newTestService(t)
	event := sampleEvent()
	event.StatusList[0].ConfigType = model.ConfigTypeSmtpAccount

	_, err := svc.Create(context.Background(), nil, CreateEventRequest{Event: event})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetMissingNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	user := &access.User{Name: "bob", Tenant: "acme"}

	_, err := svc.Get(context.Background(), user, []string{"ghost"}, GetEventsQuery{})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetForbiddenForNonOverlappingAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := &access.User{Name: "alice", Tenant: "acme", Access: []string{"role-a"}}

	id, err := svc.Create(ctx, owner, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	outsider := &access.User{Name: "bob", Tenant: "acme", Access: []string{"role-b"}}
	_, err = svc.Get(ctx, outsider, []string{id}, GetEventsQuery{})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Contains(t, err.Error(), "Permission denied for NotificationEvent "+id)

	// internal callers bypass visibility entirely
	_, err = svc.Get(ctx, nil, []string{id}, GetEventsQuery{})
	require.NoError(t, err)
}

func TestEventVisibilityIgnoresTenant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := &access.User{Name: "alice", Tenant: "acme", Access: []string{"role-a"}}

	id, err := svc.Create(ctx, owner, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	// same access list, different tenant: events are not tenant scoped
	other := &access.User{Name: "carol", Tenant: "globex", Access: []string{"role-a"}}
	_, err = svc.Get(ctx, other, []string{id}, GetEventsQuery{})
	require.NoError(t, err)
}

func TestRecordDeliveryStatusMerges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	err = svc.RecordDeliveryStatus(ctx, nil, id, []model.ChannelStatus{
		{
			// replaces the existing chan-1 entry
			ConfigID:       "chan-1",
			ConfigName:     "ops slack",
			ConfigType:     model.ConfigTypeSlack,
			DeliveryStatus: &model.DeliveryStatus{StatusCode: "503", StatusText: "Service Unavailable"},
		},
		{
			ConfigID:       "chan-2",
			ConfigName:     "ops webhook",
			ConfigType:     model.ConfigTypeWebhook,
			DeliveryStatus: &model.DeliveryStatus{StatusCode: "200", StatusText: "Success"},
		},
	})
	require.NoError(t, err)

	result, err := svc.Get(ctx, nil, []string{id}, GetEventsQuery{})
	require.NoError(t, err)
	statusList := result.Items[0].Event.StatusList
	require.Len(t, statusList, 2)
	assert.Equal(t, "chan-1", statusList[0].ConfigID)
	assert.Equal(t, "503", statusList[0].DeliveryStatus.StatusCode)
	assert.Equal(t, "chan-2", statusList[1].ConfigID)
}

func TestRecordDeliveryStatusRejectsEmptyList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	err = svc.RecordDeliveryStatus(ctx, nil, id, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRecordDeliveryStatusMissingEvent(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.RecordDeliveryStatus(context.Background(), nil, "ghost", []model.ChannelStatus{
		{
			ConfigID:       "chan-1",
			ConfigType:     model.ConfigTypeSlack,
			DeliveryStatus: &model.DeliveryStatus{StatusCode: "200", StatusText: "Success"},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdatePreservesCreationMetadata(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	before, err := svc.Get(ctx, nil, []string{id}, GetEventsQuery{})
	require.NoError(t, err)

	updated := sampleEvent()
	updated.EventSource.Severity = model.SeverityCritical
	_, err = svc.Update(ctx, nil, id, updated)
	require.NoError(t, err)

	after, err := svc.Get(ctx, nil, []string{id}, GetEventsQuery{})
	require.NoError(t, err)
	assert.Equal(t, model.SeverityCritical, after.Items[0].Event.EventSource.Severity)
	assert.Equal(t, before.Items[0].CreatedTime, after.Items[0].CreatedTime)
	assert.GreaterOrEqual(t, after.Items[0].LastUpdateTime, before.Items[0].LastUpdateTime)
}

func TestDeleteAllOrNothing(t *testing.T) {
	svc, index := newTestService(t)
	ctx := context.Background()

	id1, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)
	id2, err := svc.Create(ctx, nil, CreateEventRequest{Event: sampleEvent()})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, nil, []string{id1, id2, "ghost"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, index.docs, id1)
	assert.Contains(t, index.docs, id2)

	statuses, err := svc.Delete(ctx, nil, []string{id1, id2})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{id1: "OK", id2: "OK"}, statuses)
	assert.Empty(t, index.docs)
}

func TestDeleteEmptyIDListRejected(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Delete(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
