package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// topicAll 汇聚所有事件的主题，供WebSocket等全量订阅者使用
const topicAll = "plan_engine_events"

// EventHandler 事件处理函数
type EventHandler func(event *PlanEvent) error

// SubscriptionID 订阅标识
type SubscriptionID string

// EventBus 事件总线（对外导出）
// 每种事件类型一个主题，另维护一个全量主题
type EventBus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	subscriptions  sync.Map // subscriptionID -> *subscription
	subscriptionID int64    // atomic，订阅ID生成器

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// 指标
	published int64 // atomic
	failed    int64 // atomic
}

type subscription struct {
	id     SubscriptionID
	cancel context.CancelFunc
	active atomic.Bool
}

// NewEventBus 创建事件总线
func NewEventBus(debug bool) *EventBus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &EventBus{
		pubsub: pubsub,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish 发布事件到类型主题与全量主题
func (b *EventBus) Publish(ctx context.Context, event *PlanEvent) error {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		atomic.AddInt64(&b.failed, 1)
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("plan_id", event.PlanID)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))

	if err := b.pubsub.Publish(string(event.Type), msg); err != nil {
		atomic.AddInt64(&b.failed, 1)
		return fmt.Errorf("发布事件失败: %w", err)
	}
	if err := b.pubsub.Publish(topicAll, message.NewMessage(event.ID, payload)); err != nil {
		atomic.AddInt64(&b.failed, 1)
		return fmt.Errorf("发布全量事件失败: %w", err)
	}

	atomic.AddInt64(&b.published, 1)
	return nil
}

// Subscribe 订阅指定类型的事件
// handler在独立goroutine中被调用，返回订阅ID用于取消
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) (SubscriptionID, error) {
	return b.subscribe(string(eventType), handler)
}

// SubscribeAll 订阅全部事件
func (b *EventBus) SubscribeAll(handler EventHandler) (SubscriptionID, error) {
	return b.subscribe(topicAll, handler)
}

func (b *EventBus) subscribe(topic string, handler EventHandler) (SubscriptionID, error) {
	id := SubscriptionID(fmt.Sprintf("sub-%d", atomic.AddInt64(&b.subscriptionID, 1)))

	subCtx, subCancel := context.WithCancel(b.ctx)
	messages, err := b.pubsub.Subscribe(subCtx, topic)
	if err != nil {
		subCancel()
		return "", fmt.Errorf("订阅主题 %s 失败: %w", topic, err)
	}

	sub := &subscription{id: id, cancel: subCancel}
	sub.active.Store(true)
	b.subscriptions.Store(id, sub)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			if !sub.active.Load() {
				msg.Ack()
				continue
			}
			var event PlanEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("解析事件失败", err, watermill.LogFields{"message_id": msg.UUID})
				msg.Nack()
				continue
			}
			if err := handler(&event); err != nil {
				b.logger.Error("事件处理失败", err, watermill.LogFields{"event_type": string(event.Type)})
			}
			msg.Ack()
		}
	}()

	return id, nil
}

// Unsubscribe 取消订阅
func (b *EventBus) Unsubscribe(id SubscriptionID) error {
	value, ok := b.subscriptions.Load(id)
	if !ok {
		return fmt.Errorf("订阅 %s 不存在", id)
	}
	sub := value.(*subscription)
	sub.active.Store(false)
	sub.cancel()
	b.subscriptions.Delete(id)
	return nil
}

// Metrics 返回发布计数（成功数, 失败数）
func (b *EventBus) Metrics() (int64, int64) {
	return atomic.LoadInt64(&b.published), atomic.LoadInt64(&b.failed)
}

// Close 关闭事件总线，等待所有订阅goroutine退出
func (b *EventBus) Close() error {
	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}
