package configstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notifstore/internal/access"
	"notifstore/internal/broker"
	"notifstore/internal/logger"
	"notifstore/internal/model"
	"notifstore/pkg/metrics"
)

// ChangeNotifier publishes config mutations to the broker. Publishing is
// best effort: a broker failure never fails the store operation.
type ChangeNotifier struct {
	producer broker.Producer
	topic    string
	log      logger.Logger
}

func NewChangeNotifier(producer broker.Producer, topic string, log logger.Logger) *ChangeNotifier {
	if producer == nil || topic == "" {
		return nil
	}
	return &ChangeNotifier{producer: producer, topic: topic, log: log}
}

func (n *ChangeNotifier) publish(ctx context.Context, action, configID string, configType model.ConfigType, user *access.User) {
	if n == nil {
		return
	}

	event := broker.ChangeEvent{
		ID:         uuid.NewString(),
		Action:     action,
		ConfigID:   configID,
		ConfigType: string(configType),
		Timestamp:  time.Now(),
	}
	if user != nil {
		event.Tenant = user.Tenant
		event.ChangedBy = user.Name
	}

	if err := n.producer.Publish(ctx, n.topic, event); err != nil {
		metrics.IncChangeEventPublished(action, "error")
		n.log.WarnwCtx(ctx, "failed to publish config change event",
			"action", action, "config_id", configID, "error", err)
		return
	}
	metrics.IncChangeEventPublished(action, "success")
}
