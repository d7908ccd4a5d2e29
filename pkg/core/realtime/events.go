// Package realtime 提供规划与执行过程的实时事件总线
// 基于 Watermill 的内存 Pub/Sub 实现，供 WebSocket 推送和内部订阅者消费。
package realtime

import (
	"time"

	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	// 规划阶段事件
	EventPlanAttemptFinished EventType = "plan_attempt_finished" // 某次生成尝试结束
	EventPlanSyntaxFailed    EventType = "plan_syntax_failed"    // 语法校验失败
	EventPlanExtractFailed   EventType = "plan_extract_failed"   // 静态提取失败
	EventPlanAccepted        EventType = "plan_accepted"         // 计划验收通过
	EventPlanExhausted       EventType = "plan_exhausted"        // 尝试次数耗尽

	// 执行阶段事件
	EventStepStarted  EventType = "step_started"
	EventStepFinished EventType = "step_finished"
	EventStepFailed   EventType = "step_failed"
)

// PlanEvent 计划事件
// 规划阶段 Attempt 字段有效；执行阶段 Node/Action 字段有效
type PlanEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	PlanID    string                 `json:"plan_id"`
	Attempt   int                    `json:"attempt,omitempty"`
	Node      string                 `json:"node,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewPlanEvent 创建计划事件，自动填充ID和时间戳
func NewPlanEvent(eventType EventType, planID string) *PlanEvent {
	return &PlanEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		PlanID:    planID,
		Timestamp: time.Now(),
	}
}

// WithAttempt 设置尝试序号
func (e *PlanEvent) WithAttempt(attempt int) *PlanEvent {
	e.Attempt = attempt
	return e
}

// WithNode 设置执行节点信息
func (e *PlanEvent) WithNode(node, action string) *PlanEvent {
	e.Node = node
	e.Action = action
	return e
}

// WithMessage 设置事件消息
func (e *PlanEvent) WithMessage(msg string) *PlanEvent {
	e.Message = msg
	return e
}

// WithData 设置附加数据
func (e *PlanEvent) WithData(data map[string]interface{}) *PlanEvent {
	e.Data = data
	return e
}
