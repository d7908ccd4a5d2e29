// Package mocks 提供测试用的内存存储与脚本化生成器
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LENAX/plan-engine/pkg/storage"
)

// MemoryPlanRepository 内存版计划存储（对外导出）
// 实现storage.PlanRepository接口，供不依赖数据库的测试使用
type MemoryPlanRepository struct {
	mu       sync.RWMutex
	plans    map[string]*storage.Plan
	attempts map[string][]*storage.PlanAttempt
}

// NewMemoryPlanRepository 创建内存存储实例（对外导出）
func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{
		plans:    make(map[string]*storage.Plan),
		attempts: make(map[string][]*storage.PlanAttempt),
	}
}

// SavePlan 保存计划及其全部尝试记录（幂等）
func (r *MemoryPlanRepository) SavePlan(ctx context.Context, plan *storage.Plan, attempts []*storage.PlanAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := *plan
	if existing, ok := r.plans[plan.ID]; ok {
		stored.CreateTime = existing.CreateTime
	} else {
		stored.CreateTime = now
	}
	stored.UpdateTime = now
	r.plans[plan.ID] = &stored

	copied := make([]*storage.PlanAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		a := *attempt
		a.CreateTime = now
		copied = append(copied, &a)
	}
	r.attempts[plan.ID] = copied
	return nil
}

// GetPlan 根据ID获取计划，不存在时返回 nil, nil
func (r *MemoryPlanRepository) GetPlan(ctx context.Context, id string) (*storage.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

// ListPlans 按创建时间倒序列出所有计划
func (r *MemoryPlanRepository) ListPlans(ctx context.Context) ([]*storage.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plans := make([]*storage.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		copied := *plan
		plans = append(plans, &copied)
	}
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].CreateTime.Equal(plans[j].CreateTime) {
			return plans[i].CreateTime.After(plans[j].CreateTime)
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, nil
}

// ListAttempts 按尝试序号列出指定计划的全部尝试记录
func (r *MemoryPlanRepository) ListAttempts(ctx context.Context, planID string) ([]*storage.PlanAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempts := make([]*storage.PlanAttempt, 0, len(r.attempts[planID]))
	for _, attempt := range r.attempts[planID] {
		copied := *attempt
		attempts = append(attempts, &copied)
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptIndex < attempts[j].AttemptIndex
	})
	return attempts, nil
}

// UpdateSchedule 更新计划的定时执行配置（幂等）
func (r *MemoryPlanRepository) UpdateSchedule(ctx context.Context, id string, cronExpr string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan, ok := r.plans[id]; ok {
		plan.CronExpr = cronExpr
		plan.CronEnabled = enabled
		plan.UpdateTime = time.Now()
	}
	return nil
}

// DeletePlan 删除计划及其尝试记录（幂等）
func (r *MemoryPlanRepository) DeletePlan(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, id)
	delete(r.attempts, id)
	return nil
}

// Close 关闭存储（内存版无操作）
func (r *MemoryPlanRepository) Close() error {
	return nil
}

var _ storage.PlanRepository = (*MemoryPlanRepository)(nil)
