package plugin

import (
	"fmt"
	"log"
	"sync"

	"github.com/LENAX/plan-engine/pkg/core/realtime"
)

// 触发告警的事件类型
var alertEventTypes = []realtime.EventType{
	realtime.EventPlanExhausted,
	realtime.EventStepFailed,
}

// Dispatcher 告警分发器（对外导出）
// 订阅事件总线上的失败事件，逐个调用已注册插件
type Dispatcher struct {
	bus     *realtime.EventBus
	mu      sync.RWMutex
	plugins []Plugin
	subIDs  []realtime.SubscriptionID
}

// NewDispatcher 创建告警分发器并订阅失败事件（对外导出）
func NewDispatcher(bus *realtime.EventBus) (*Dispatcher, error) {
	if bus == nil {
		return nil, fmt.Errorf("事件总线不能为空")
	}

	d := &Dispatcher{bus: bus}
	for _, eventType := range alertEventTypes {
		id, err := bus.Subscribe(eventType, d.dispatch)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("订阅告警事件失败: %w", err)
		}
		d.subIDs = append(d.subIDs, id)
	}
	return d, nil
}

// Register 注册插件（对外导出）
func (d *Dispatcher) Register(p Plugin, params map[string]string) error {
	if err := p.Init(params); err != nil {
		return fmt.Errorf("插件 %s 初始化失败: %w", p.Name(), err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.plugins = append(d.plugins, p)
	log.Printf("ℹ️  告警插件已注册: %s", p.Name())
	return nil
}

// Plugins 返回已注册插件名列表（对外导出）
func (d *Dispatcher) Plugins() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.plugins))
	for _, p := range d.plugins {
		names = append(names, p.Name())
	}
	return names
}

// Close 取消事件订阅（对外导出）
func (d *Dispatcher) Close() {
	for _, id := range d.subIDs {
		if err := d.bus.Unsubscribe(id); err != nil {
			log.Printf("取消告警订阅失败: %v", err)
		}
	}
	d.subIDs = nil
}

// dispatch 将失败事件分发给全部插件
// 单个插件失败不影响其他插件
func (d *Dispatcher) dispatch(event *realtime.PlanEvent) error {
	d.mu.RLock()
	plugins := make([]Plugin, len(d.plugins))
	copy(plugins, d.plugins)
	d.mu.RUnlock()

	for _, p := range plugins {
		if err := p.Execute(event); err != nil {
			log.Printf("⚠️ 告警插件 %s 执行失败: %v", p.Name(), err)
		}
	}
	return nil
}
