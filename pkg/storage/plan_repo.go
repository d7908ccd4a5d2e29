// Package storage 定义计划持久化的Repository接口与SQL方言抽象
package storage

import (
	"context"
	"time"
)

// 计划状态
const (
	PlanStatusAccepted = "ACCEPTED" // 验收通过
	PlanStatusRejected = "REJECTED" // 尝试耗尽仍未通过
)

// Plan 持久化的计划记录（对外导出）
type Plan struct {
	ID           string    // 计划ID
	Query        string    // 用户任务描述
	Status       string    // ACCEPTED/REJECTED
	Code         string    // 最终一次生成的Python源码
	Diagnostic   string    // 最后一次失败诊断（验收通过时为空）
	AttemptCount int       // 实际尝试次数
	NodeCount    int       // 节点数量（验收通过时有效）
	DAGText      string    // 图的稳定文本描述（验收通过时有效）
	CronExpr     string    // 定时执行表达式（可选）
	CronEnabled  bool      // 是否启用定时执行
	CreateTime   time.Time // 创建时间
	UpdateTime   time.Time // 更新时间
}

// PlanAttempt 单次生成尝试的持久化记录（对外导出）
type PlanAttempt struct {
	PlanID       string    // 所属计划ID
	AttemptIndex int       // 尝试序号（从1开始）
	Code         string    // 该次生成的源码
	SyntaxOK     bool      // 语法校验是否通过
	Diagnostic   string    // 失败诊断（成功时为空）
	FailureKind  string    // 失败类别（成功时为空）
	CreateTime   time.Time // 创建时间
}

// PlanRepository 计划存储接口（对外导出）
//
// 幂等性保证：
//   - SavePlan 重复执行为全量覆盖（含尝试记录）
//   - DeletePlan 删除不存在的记录不会报错
type PlanRepository interface {
	// SavePlan 保存计划及其全部尝试记录（事务，幂等）
	// 已存在时更新计划并全量替换尝试记录
	SavePlan(ctx context.Context, plan *Plan, attempts []*PlanAttempt) error

	// GetPlan 根据ID获取计划（不含尝试记录）
	// 不存在时返回 nil, nil
	GetPlan(ctx context.Context, id string) (*Plan, error)

	// ListPlans 按创建时间倒序列出所有计划
	ListPlans(ctx context.Context) ([]*Plan, error)

	// ListAttempts 按尝试序号列出指定计划的全部尝试记录
	ListAttempts(ctx context.Context, planID string) ([]*PlanAttempt, error)

	// UpdateSchedule 更新计划的定时执行配置（幂等）
	UpdateSchedule(ctx context.Context, id string, cronExpr string, enabled bool) error

	// DeletePlan 删除计划及其尝试记录（事务，幂等）
	DeletePlan(ctx context.Context, id string) error

	// Close 关闭底层连接
	Close() error
}
