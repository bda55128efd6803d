package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lh20005/geo-xi-tong-sub000/models"

	"github.com/redis/go-redis/v9"
)

const (
	EventUsageUpdated = "storage_updated"
	EventQuotaChanged = "storage_quota_changed"
	EventAlertCreated = "storage_alert"
)

type Event struct {
	Type      string      `json:"type"`
	UserID    uint        `json:"user_id"`
	Payload   interface{} `json:"payload,omitempty"`
	EmittedAt time.Time   `json:"emitted_at"`
}

// Notifier hands accounting events to the delivery layer (WebSocket gateway,
// push workers). Delivery is best-effort; implementations never fail the
// operation that produced the event.
type Notifier interface {
	UsageUpdated(ctx context.Context, userID uint)
	QuotaChanged(ctx context.Context, userID uint, effectiveQuotaBytes int64)
	AlertCreated(ctx context.Context, alert models.StorageAlert)
}

type RedisNotifier struct {
	redis   *redis.Client
	channel string
}

func NewRedisNotifier(redisClient *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = "storage.events"
	}
	return &RedisNotifier{redis: redisClient, channel: channel}
}

func (n *RedisNotifier) publish(ctx context.Context, event Event) {
	event.EmittedAt = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal storage event failed: %v", err)
		return
	}
	if err := n.redis.Publish(ctx, n.channel, data).Err(); err != nil {
		log.Printf("publish storage event failed: %v", err)
	}
}

func (n *RedisNotifier) UsageUpdated(ctx context.Context, userID uint) {
	n.publish(ctx, Event{Type: EventUsageUpdated, UserID: userID})
}

func (n *RedisNotifier) QuotaChanged(ctx context.Context, userID uint, effectiveQuotaBytes int64) {
	n.publish(ctx, Event{
		Type:    EventQuotaChanged,
		UserID:  userID,
		Payload: map[string]int64{"effective_quota_bytes": effectiveQuotaBytes},
	})
}

func (n *RedisNotifier) AlertCreated(ctx context.Context, alert models.StorageAlert) {
	n.publish(ctx, Event{Type: EventAlertCreated, UserID: alert.UserID, Payload: alert})
}

// NewNoopNotifier returns a Notifier that discards every event.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

type noopNotifier struct{}

func (noopNotifier) UsageUpdated(context.Context, uint)                {}
func (noopNotifier) QuotaChanged(context.Context, uint, int64)         {}
func (noopNotifier) AlertCreated(context.Context, models.StorageAlert) {}
