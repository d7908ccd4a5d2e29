package plugin

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/plan-engine/pkg/core/realtime"
)

// countingPlugin 记录调用次数的测试插件
type countingPlugin struct {
	name  string
	calls int64
}

func (p *countingPlugin) Name() string { return p.name }

func (p *countingPlugin) Init(params map[string]string) error { return nil }

func (p *countingPlugin) Execute(data interface{}) error {
	atomic.AddInt64(&p.calls, 1)
	return nil
}

func waitForCalls(t *testing.T, p *countingPlugin, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(&p.calls) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("等待插件调用超时: got=%d, want=%d", atomic.LoadInt64(&p.calls), want)
}

func TestDispatcherAlertsOnFailureEvents(t *testing.T) {
	bus := realtime.NewEventBus(false)
	defer bus.Close()

	dispatcher, err := NewDispatcher(bus)
	require.NoError(t, err)
	defer dispatcher.Close()

	counter := &countingPlugin{name: "counting"}
	require.NoError(t, dispatcher.Register(counter, nil))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, realtime.NewPlanEvent(realtime.EventPlanExhausted, "plan-1")))
	require.NoError(t, bus.Publish(ctx, realtime.NewPlanEvent(realtime.EventStepFailed, "plan-1")))
	waitForCalls(t, counter, 2)
}

func TestDispatcherIgnoresSuccessEvents(t *testing.T) {
	bus := realtime.NewEventBus(false)
	defer bus.Close()

	dispatcher, err := NewDispatcher(bus)
	require.NoError(t, err)
	defer dispatcher.Close()

	counter := &countingPlugin{name: "counting"}
	require.NoError(t, dispatcher.Register(counter, nil))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, realtime.NewPlanEvent(realtime.EventPlanAccepted, "plan-1")))
	require.NoError(t, bus.Publish(ctx, realtime.NewPlanEvent(realtime.EventStepFinished, "plan-1")))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&counter.calls))
}

func TestDispatcherBuiltinPlugins(t *testing.T) {
	bus := realtime.NewEventBus(false)
	defer bus.Close()

	dispatcher, err := NewDispatcher(bus)
	require.NoError(t, err)
	defer dispatcher.Close()

	require.NoError(t, dispatcher.Register(NewEmailAlertPlugin(), map[string]string{"smtp_host": "localhost", "to": "ops@example.com"}))
	require.NoError(t, dispatcher.Register(NewSmsAlertPlugin(), map[string]string{"url": "http://sms.example.com"}))
	assert.Equal(t, []string{"email_alert", "sms_alert"}, dispatcher.Plugins())
}
