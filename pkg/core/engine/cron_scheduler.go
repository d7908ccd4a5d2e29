package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// CronScheduler 定时调度器（对外导出）
// 按Cron表达式周期性触发已验收计划的执行
type CronScheduler struct {
	cron    *cron.Cron
	engine  *Engine
	entries map[string]cron.EntryID // planID -> cron.EntryID映射
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCronScheduler 创建定时调度器（对外导出）
func NewCronScheduler(eng *Engine) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:  eng,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterPlan 注册计划到定时调度器（对外导出）
// 已注册的计划会先被取消再以新表达式注册
func (cs *CronScheduler) RegisterPlan(planID, cronExpr string) error {
	if cronExpr == "" {
		return fmt.Errorf("计划 %s 未设置Cron表达式", planID)
	}

	// 验证Cron表达式（使用Parser支持秒级精度）
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("计划 %s 的Cron表达式无效: %w", planID, err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if entryID, exists := cs.entries[planID]; exists {
		cs.cron.Remove(entryID)
		delete(cs.entries, planID)
	}

	entryID, err := cs.cron.AddFunc(cronExpr, func() {
		cs.triggerPlan(planID)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}
	cs.entries[planID] = entryID

	log.Printf("✅ [Cron调度器] 已注册计划: ID=%s, CronExpr=%s", planID, cronExpr)
	return nil
}

// UnregisterPlan 取消注册计划（对外导出，幂等）
func (cs *CronScheduler) UnregisterPlan(planID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	entryID, exists := cs.entries[planID]
	if !exists {
		return
	}
	cs.cron.Remove(entryID)
	delete(cs.entries, planID)

	log.Printf("✅ [Cron调度器] 已取消注册计划: ID=%s", planID)
}

// triggerPlan 触发计划执行（内部方法）
func (cs *CronScheduler) triggerPlan(planID string) {
	log.Printf("🕐 [Cron调度器] 触发计划执行: ID=%s", planID)

	if _, err := cs.engine.ExecutePlan(cs.ctx, planID); err != nil {
		log.Printf("❌ [Cron调度器] 计划执行失败: ID=%s, Error=%v", planID, err)
	} else {
		log.Printf("✅ [Cron调度器] 计划执行完成: ID=%s", planID)
	}
}

// Start 启动定时调度器（对外导出）
func (cs *CronScheduler) Start() {
	cs.cron.Start()
	log.Println("✅ [Cron调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (cs *CronScheduler) Stop() {
	cs.cron.Stop()
	cs.cancel()
	log.Println("✅ [Cron调度器] 已停止")
}

// RegisteredPlans 获取已注册的计划ID列表（对外导出）
func (cs *CronScheduler) RegisteredPlans() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	planIDs := make([]string, 0, len(cs.entries))
	for planID := range cs.entries {
		planIDs = append(planIDs, planID)
	}
	return planIDs
}
