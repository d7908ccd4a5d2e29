package realtime

import (
	"context"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("等待超时: %s", msg)
}

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	var mu sync.Mutex
	received := make([]*PlanEvent, 0)

	_, err := bus.Subscribe(EventPlanAccepted, func(event *PlanEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	event := NewPlanEvent(EventPlanAccepted, "plan-1").WithAttempt(2).WithMessage("accepted")
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, "未收到事件")

	mu.Lock()
	got := received[0]
	mu.Unlock()
	if got.PlanID != "plan-1" || got.Attempt != 2 || got.Message != "accepted" {
		t.Fatalf("事件内容错误: %+v", got)
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	_, err := bus.Subscribe(EventPlanSyntaxFailed, func(event *PlanEvent) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	// 发布不同类型的事件，不应被上面的订阅者收到
	if err := bus.Publish(context.Background(), NewPlanEvent(EventPlanAccepted, "plan-2")); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	if err := bus.Publish(context.Background(), NewPlanEvent(EventPlanSyntaxFailed, "plan-2")); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, "未收到语法失败事件")

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	final := count
	mu.Unlock()
	if final != 1 {
		t.Fatalf("收到了类型不匹配的事件: count=%d", final)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	var mu sync.Mutex
	types := make(map[EventType]bool)
	_, err := bus.SubscribeAll(func(event *PlanEvent) error {
		mu.Lock()
		defer mu.Unlock()
		types[event.Type] = true
		return nil
	})
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	for _, et := range []EventType{EventPlanAttemptFinished, EventStepStarted, EventStepFinished} {
		if err := bus.Publish(context.Background(), NewPlanEvent(et, "plan-3")); err != nil {
			t.Fatalf("发布失败: %v", err)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(types) == 3
	}, "全量订阅未收齐事件")
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	id, err := bus.Subscribe(EventStepFailed, func(event *PlanEvent) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	if err := bus.Publish(context.Background(), NewPlanEvent(EventStepFailed, "plan-4")); err != nil {
		t.Fatalf("发布失败: %v", err)
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, "取消前未收到事件")

	if err := bus.Unsubscribe(id); err != nil {
		t.Fatalf("取消订阅失败: %v", err)
	}
	if err := bus.Publish(context.Background(), NewPlanEvent(EventStepFailed, "plan-4")); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	final := count
	mu.Unlock()
	if final != 1 {
		t.Fatalf("取消订阅后仍收到事件: count=%d", final)
	}

	if err := bus.Unsubscribe(id); err == nil {
		t.Fatalf("重复取消订阅应当报错")
	}
}
