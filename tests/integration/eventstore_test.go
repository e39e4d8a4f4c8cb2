package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifstore/internal/constants"
	"notifstore/internal/eventstore"
	"notifstore/internal/model"
	apperrors "notifstore/pkg/errors"
)

func setupEventService(t *testing.T) eventstore.Service {
	infra := SetupTestInfraWithOptions(t, true, false)
	ctx := context.Background()

	index := createTestIndex(infra, constants.EventCollection)
	require.NoError(t, index.Ensure(ctx))

	return eventstore.NewService(index, createTestLogger())
}

func TestEventService_CreateAndGetRoundTrip(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()

	event := createTestEvent("cpu spike", "alerting", model.SeverityHigh)
	id, err := svc.Create(ctx, nil, eventstore.CreateEventRequest{Event: event})
	require.NoError(t, err)

	result, err := svc.Get(ctx, nil, []string{id}, eventstore.GetEventsQuery{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	got := result.Items[0]
	assert.Equal(t, id, got.EventID)
	assert.Equal(t, "cpu spike", got.Event.EventSource.Title)
	assert.Equal(t, model.SeverityHigh, got.Event.EventSource.Severity)
	require.Len(t, got.Event.StatusList, 1)
	assert.Equal(t, "200", got.Event.StatusList[0].DeliveryStatus.StatusCode)
}

func TestEventService_FilterBySeverityAndFeature(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, eventstore.CreateEventRequest{
		Event: createTestEvent("report done", "reports", model.SeverityInfo),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, eventstore.CreateEventRequest{
		Event: createTestEvent("disk full", "alerting", model.SeverityCritical),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, eventstore.CreateEventRequest{
		Event: createTestEvent("heap warning", "alerting", model.SeverityHigh),
	})
	require.NoError(t, err)

	result, err := svc.Get(ctx, nil, nil, eventstore.GetEventsQuery{
		Filters: map[string]string{"event_source.feature": "alerting"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalHits)

	result, err = svc.Get(ctx, nil, nil, eventstore.GetEventsQuery{
		Filters: map[string]string{
			"event_source.feature":  "alerting",
			"event_source.severity": "critical",
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalHits)
	assert.Equal(t, "disk full", result.Items[0].Event.EventSource.Title)
}

func TestEventService_FilterByNestedStatusFields(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()

	ok := createTestEvent("delivered", "alerting", model.SeverityInfo)
	_, err := svc.Create(ctx, nil, eventstore.CreateEventRequest{Event: ok})
	require.NoError(t, err)

	failed := createTestEvent("undelivered", "alerting", model.SeverityInfo)
	failed.StatusList[0].ConfigID = "chan-9"
	failed.StatusList[0].DeliveryStatus = &model.DeliveryStatus{StatusCode: "503", StatusText: "Service Unavailable"}
	_, err = svc.Create(ctx, nil, eventstore.CreateEventRequest{Event: failed})
	require.NoError(t, err)

	result, err := svc.Get(ctx, nil, nil, eventstore.GetEventsQuery{
		Filters: map[string]string{"status_list.delivery_status.status_code": "503"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), result.TotalHits)
	assert.Equal(t, "undelivered", result.Items[0].Event.EventSource.Title)

	// both nested conditions must hold on the same status entry
	result, err = svc.Get(ctx, nil, nil, eventstore.GetEventsQuery{
		Filters: map[string]string{
			"status_list.config_id":                   "chan-1",
			"status_list.delivery_status.status_code": "503",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalHits)
}

func TestEventService_RecordDeliveryStatus(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, nil, eventstore.CreateEventRequest{
		Event: createTestEvent("retrying", "alerting", model.SeverityHigh),
	})
	require.NoError(t, err)

	err = svc.RecordDeliveryStatus(ctx, nil, id, []model.ChannelStatus{
		{
			ConfigID:       "chan-1",
			ConfigName:     "ops slack",
			ConfigType:     model.ConfigTypeSlack,
			DeliveryStatus: &model.DeliveryStatus{StatusCode: "429", StatusText: "Too Many Requests"},
		},
		{
			ConfigID:       "chan-2",
			ConfigName:     "fallback webhook",
			ConfigType:     model.ConfigTypeWebhook,
			DeliveryStatus: &model.DeliveryStatus{StatusCode: "200", StatusText: "Success"},
		},
	})
	require.NoError(t, err)

	result, err := svc.Get(ctx, nil, []string{id}, eventstore.GetEventsQuery{})
	require.NoError(t, err)
	statusList := result.Items[0].Event.StatusList
	require.Len(t, statusList, 2)
	assert.Equal(t, "429", statusList[0].DeliveryStatus.StatusCode)
	assert.Equal(t, "chan-2", statusList[1].ConfigID)
}

func TestEventService_DeleteAllOrNothing(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := svc.Create(ctx, nil, eventstore.CreateEventRequest{
			Event: createTestEvent(fmt.Sprintf("event-%d", i), "alerting", model.SeverityInfo),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := svc.Delete(ctx, nil, append(append([]string{}, ids...), "ghost"))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	result, err := svc.Get(ctx, nil, nil, eventstore.GetEventsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalHits)

	statuses, err := svc.Delete(ctx, nil, ids)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.Equal(t, "OK", st)
	}
}

func TestEventService_VisibilityWithoutTenantScoping(t *testing.T) {
	svc := setupEventService(t)
	ctx := context.Background()
	owner := userWithAccess("alice", "acme", "roleA")

	id, err := svc.Create(ctx, owner, eventstore.CreateEventRequest{
		Event: createTestEvent("scoped", "alerting", model.SeverityInfo),
	})
	require.NoError(t, err)

	// other tenant, shared role: events are visible across tenants
	other := userWithAccess("carol", "globex", "roleA")
	_, err = svc.Get(ctx, other, []string{id}, eventstore.GetEventsQuery{})
	require.NoError(t, err)

	outsider := userWithAccess("bob", "acme", "roleB")
	_, err = svc.Get(ctx, outsider, []string{id}, eventstore.GetEventsQuery{})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// search drops invisible events instead of failing
	result, err := svc.Get(ctx, outsider, nil, eventstore.GetEventsQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}
