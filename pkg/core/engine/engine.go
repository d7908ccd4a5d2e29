// Package engine 组装规划、存储、步骤执行与事件发布
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/core/dag"
	"github.com/LENAX/plan-engine/pkg/core/executor"
	"github.com/LENAX/plan-engine/pkg/core/parser"
	"github.com/LENAX/plan-engine/pkg/core/planner"
	"github.com/LENAX/plan-engine/pkg/core/realtime"
	"github.com/LENAX/plan-engine/pkg/core/steps"
	"github.com/LENAX/plan-engine/pkg/core/workflow"
	"github.com/LENAX/plan-engine/pkg/plugin"
	"github.com/LENAX/plan-engine/pkg/storage"
)

// Engine 规划引擎核心结构体（对外导出）
type Engine struct {
	cfg       *config.EngineConfig
	generator planner.Generator
	repo      storage.PlanRepository
	registry  *steps.Registry
	bus       *realtime.EventBus
	scheduler *CronScheduler
	alerts    *plugin.Dispatcher
	running   bool
	mu        sync.RWMutex
}

// NewEngine 创建Engine实例（对外导出的工厂方法）
func NewEngine(cfg *config.EngineConfig, generator planner.Generator, repo storage.PlanRepository) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if generator == nil {
		return nil, fmt.Errorf("生成器不能为空")
	}
	if repo == nil {
		return nil, fmt.Errorf("存储不能为空")
	}

	eng := &Engine{
		cfg:       cfg,
		generator: generator,
		repo:      repo,
		registry:  steps.NewDefaultRegistry(),
		bus:       realtime.NewEventBus(cfg.PlanEngine.General.LogLevel == "debug"),
	}
	eng.scheduler = NewCronScheduler(eng)

	alerts, err := plugin.NewDispatcher(eng.bus)
	if err != nil {
		eng.bus.Close()
		return nil, fmt.Errorf("创建告警分发器失败: %w", err)
	}
	eng.alerts = alerts
	return eng, nil
}

// RegisterAlertPlugin 注册告警插件（对外导出）
// 插件在计划尝试耗尽或步骤执行失败时被调用
func (e *Engine) RegisterAlertPlugin(p plugin.Plugin, params map[string]string) error {
	return e.alerts.Register(p, params)
}

// Start 启动引擎（对外导出）
// 定时调度启用时恢复已持久化的定时计划
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	log.Println("✅ 工作流规划引擎已启动")

	if e.cfg.PlanEngine.Scheduler.Enabled {
		e.scheduler.Start()
		if err := e.restoreScheduledPlans(ctx); err != nil {
			// 不阻止启动，仅记录日志
			log.Printf("恢复定时计划失败: %v", err)
		}
	}
	return nil
}

// Stop 停止引擎（对外导出）
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false

	e.scheduler.Stop()
	e.alerts.Close()
	if err := e.bus.Close(); err != nil {
		log.Printf("关闭事件总线失败: %v", err)
	}
	log.Println("✅ 工作流规划引擎已停止")
}

// Registry 获取步骤注册中心（对外导出，用于测试和步骤注册）
func (e *Engine) Registry() *steps.Registry {
	return e.registry
}

// EventBus 获取事件总线（对外导出，供WebSocket推送订阅）
func (e *Engine) EventBus() *realtime.EventBus {
	return e.bus
}

// ScheduledPlans 获取当前注册了定时执行的计划ID列表（对外导出）
func (e *Engine) ScheduledPlans() []string {
	return e.scheduler.RegisteredPlans()
}

// PlanWorkflow 规划一个工作流并持久化结果（对外导出）
// 在限定尝试次数内生成、校验、修订，返回保存后的计划记录
func (e *Engine) PlanWorkflow(ctx context.Context, query string) (*storage.Plan, error) {
	if query == "" {
		return nil, fmt.Errorf("任务描述不能为空")
	}

	planID := uuid.NewString()
	validator := planner.NewValidator(e.generator, e.cfg.GetMaxAttempts())
	validator.SetObserver(func(attempt planner.PlanAttempt) {
		e.publishAttemptEvent(ctx, planID, attempt)
	})

	result, err := validator.BuildAndValidate(ctx, query, e.registry.Names())
	if err != nil {
		return nil, fmt.Errorf("规划失败: %w", err)
	}

	plan := &storage.Plan{
		ID:           planID,
		Query:        query,
		Code:         result.Code,
		Diagnostic:   result.Diagnostic,
		AttemptCount: len(result.Attempts),
	}
	if result.Accepted {
		plan.Status = storage.PlanStatusAccepted
		plan.NodeCount = result.NodeCount()
		plan.DAGText = result.DAG.ToText()
	} else {
		plan.Status = storage.PlanStatusRejected
	}

	attempts := make([]*storage.PlanAttempt, 0, len(result.Attempts))
	for _, attempt := range result.Attempts {
		attempts = append(attempts, &storage.PlanAttempt{
			PlanID:       planID,
			AttemptIndex: attempt.Index,
			Code:         attempt.Code,
			SyntaxOK:     attempt.SyntaxOK,
			Diagnostic:   attempt.Diagnostic,
			FailureKind:  string(attempt.Kind),
		})
	}

	if err := e.repo.SavePlan(ctx, plan, attempts); err != nil {
		return nil, fmt.Errorf("保存计划失败: %w", err)
	}

	if result.Accepted {
		e.publish(ctx, realtime.NewPlanEvent(realtime.EventPlanAccepted, planID).
			WithAttempt(len(result.Attempts)).
			WithData(map[string]interface{}{"node_count": plan.NodeCount}))
		log.Printf("✅ 计划验收通过: ID=%s, 尝试次数=%d, 节点数=%d", planID, plan.AttemptCount, plan.NodeCount)
	} else {
		e.publish(ctx, realtime.NewPlanEvent(realtime.EventPlanExhausted, planID).
			WithAttempt(len(result.Attempts)).
			WithMessage(result.Diagnostic))
		log.Printf("❌ 计划尝试耗尽: ID=%s, 尝试次数=%d", planID, plan.AttemptCount)
	}

	return plan, nil
}

// PlanBatch 对同一任务生成多个计划变体（对外导出）
// 每个变体独立走完整的验证循环，单个失败不影响其他变体
func (e *Engine) PlanBatch(ctx context.Context, query string, variations int) ([]*storage.Plan, error) {
	queries, err := planner.GenerateQueryVariations(query, variations)
	if err != nil {
		return nil, err
	}

	plans := make([]*storage.Plan, 0, len(queries))
	for _, q := range queries {
		plan, err := e.PlanWorkflow(ctx, q)
		if err != nil {
			log.Printf("⚠️ 变体规划失败: query=%s, error=%v", q, err)
			continue
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("所有变体规划均失败")
	}
	return plans, nil
}

// ExecutePlan 执行已验收的计划（对外导出）
// 从存储的源码重新提取DAG，按拓扑顺序逐节点执行
func (e *Engine) ExecutePlan(ctx context.Context, id string) ([]interface{}, error) {
	wf, plan, err := e.loadAcceptedDAG(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("🚀 开始执行计划: ID=%s, 节点数=%d", plan.ID, wf.NodeCount())
	results, err := wf.Execute(ctx, e.runnerWithEvents(ctx, plan.ID))
	if err != nil {
		return results, fmt.Errorf("计划执行失败: %w", err)
	}
	log.Printf("✅ 计划执行完成: ID=%s", plan.ID)
	return results, nil
}

// ExecutePlanParallel 并发执行已验收的计划（对外导出）
// 同一拓扑层级内的节点并发执行，层级之间仍按依赖顺序推进
func (e *Engine) ExecutePlanParallel(ctx context.Context, id string, maxWorkers int) ([]*executor.NodeResult, error) {
	wf, plan, err := e.loadAcceptedDAG(ctx, id)
	if err != nil {
		return nil, err
	}
	execDAG, err := dag.BuildExecutionDAG(wf)
	if err != nil {
		return nil, err
	}
	exec, err := executor.NewLevelExecutor(maxWorkers)
	if err != nil {
		return nil, err
	}

	log.Printf("🚀 开始并发执行计划: ID=%s, 节点数=%d, 并发数=%d", plan.ID, wf.NodeCount(), exec.MaxWorkers())
	results, err := exec.Execute(ctx, execDAG, e.runnerWithEvents(ctx, plan.ID))
	if err != nil {
		return results, fmt.Errorf("计划执行失败: %w", err)
	}
	log.Printf("✅ 计划并发执行完成: ID=%s", plan.ID)
	return results, nil
}

// ExecutionLevels 返回计划的分层并行执行顺序（对外导出）
func (e *Engine) ExecutionLevels(ctx context.Context, id string) (*dag.TopologicalOrder, error) {
	wf, _, err := e.loadAcceptedDAG(ctx, id)
	if err != nil {
		return nil, err
	}
	ex, err := dag.BuildExecutionDAG(wf)
	if err != nil {
		return nil, err
	}
	return ex.TopologicalLevels()
}

// PlanDOT 返回计划DAG的DOT描述（对外导出）
func (e *Engine) PlanDOT(ctx context.Context, id string) (string, error) {
	wf, _, err := e.loadAcceptedDAG(ctx, id)
	if err != nil {
		return "", err
	}
	return wf.ToDOT(), nil
}

// GetPlan 根据ID获取计划（对外导出）
func (e *Engine) GetPlan(ctx context.Context, id string) (*storage.Plan, error) {
	return e.repo.GetPlan(ctx, id)
}

// ListPlans 列出所有计划（对外导出）
func (e *Engine) ListPlans(ctx context.Context) ([]*storage.Plan, error) {
	return e.repo.ListPlans(ctx)
}

// ListAttempts 列出指定计划的尝试记录（对外导出）
func (e *Engine) ListAttempts(ctx context.Context, id string) ([]*storage.PlanAttempt, error) {
	return e.repo.ListAttempts(ctx, id)
}

// DeletePlan 删除计划并取消其定时调度（对外导出）
func (e *Engine) DeletePlan(ctx context.Context, id string) error {
	e.scheduler.UnregisterPlan(id)
	return e.repo.DeletePlan(ctx, id)
}

// SchedulePlan 更新计划的定时执行配置（对外导出）
// enabled为true时注册到Cron调度器，为false时取消注册
func (e *Engine) SchedulePlan(ctx context.Context, id string, cronExpr string, enabled bool) error {
	plan, err := e.repo.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("计划 %s 不存在", id)
	}
	if plan.Status != storage.PlanStatusAccepted {
		return fmt.Errorf("计划 %s 未验收通过，不能定时执行", id)
	}

	if enabled {
		if err := e.scheduler.RegisterPlan(id, cronExpr); err != nil {
			return err
		}
	} else {
		e.scheduler.UnregisterPlan(id)
	}

	if err := e.repo.UpdateSchedule(ctx, id, cronExpr, enabled); err != nil {
		// 回滚调度器注册，保持与存储一致
		if enabled {
			e.scheduler.UnregisterPlan(id)
		}
		return err
	}
	return nil
}

// loadAcceptedDAG 加载计划并从源码重新提取DAG
func (e *Engine) loadAcceptedDAG(ctx context.Context, id string) (*workflow.WorkflowDAG, *storage.Plan, error) {
	plan, err := e.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return nil, nil, fmt.Errorf("计划 %s 不存在", id)
	}
	if plan.Status != storage.PlanStatusAccepted {
		return nil, nil, fmt.Errorf("计划 %s 未验收通过", id)
	}

	wf, err := parser.ExtractWorkflow(ctx, plan.Code)
	if err != nil {
		return nil, nil, fmt.Errorf("重新提取计划DAG失败: %w", err)
	}
	return wf, plan, nil
}

// runnerWithEvents 包装步骤执行器，发布步骤级事件
func (e *Engine) runnerWithEvents(ctx context.Context, planID string) workflow.StepRunner {
	runner := e.registry.NewRunner()
	return func(ctx context.Context, node *workflow.WorkflowNode) (interface{}, error) {
		e.publish(ctx, realtime.NewPlanEvent(realtime.EventStepStarted, planID).WithNode(node.Name, node.Action))
		start := time.Now()

		result, err := runner(ctx, node)
		if err != nil {
			e.publish(ctx, realtime.NewPlanEvent(realtime.EventStepFailed, planID).
				WithNode(node.Name, node.Action).
				WithMessage(err.Error()))
			return nil, err
		}

		e.publish(ctx, realtime.NewPlanEvent(realtime.EventStepFinished, planID).
			WithNode(node.Name, node.Action).
			WithData(map[string]interface{}{"elapsed_ms": time.Since(start).Milliseconds()}))
		return result, nil
	}
}

// publishAttemptEvent 将一次规划尝试转换为事件发布
func (e *Engine) publishAttemptEvent(ctx context.Context, planID string, attempt planner.PlanAttempt) {
	e.publish(ctx, realtime.NewPlanEvent(realtime.EventPlanAttemptFinished, planID).
		WithAttempt(attempt.Index).
		WithData(map[string]interface{}{"syntax_ok": attempt.SyntaxOK, "succeeded": attempt.Succeeded()}))

	if attempt.Succeeded() {
		return
	}
	eventType := realtime.EventPlanExtractFailed
	if !attempt.SyntaxOK {
		eventType = realtime.EventPlanSyntaxFailed
	}
	e.publish(ctx, realtime.NewPlanEvent(eventType, planID).
		WithAttempt(attempt.Index).
		WithMessage(attempt.Diagnostic))
}

func (e *Engine) publish(ctx context.Context, event *realtime.PlanEvent) {
	if err := e.bus.Publish(ctx, event); err != nil {
		log.Printf("发布事件失败: type=%s, error=%v", event.Type, err)
	}
}

// restoreScheduledPlans 恢复启用了定时调度的计划
func (e *Engine) restoreScheduledPlans(ctx context.Context) error {
	plans, err := e.repo.ListPlans(ctx)
	if err != nil {
		return err
	}
	for _, plan := range plans {
		if !plan.CronEnabled || plan.CronExpr == "" || plan.Status != storage.PlanStatusAccepted {
			continue
		}
		if err := e.scheduler.RegisterPlan(plan.ID, plan.CronExpr); err != nil {
			log.Printf("⚠️ 恢复定时计划失败: ID=%s, error=%v", plan.ID, err)
		}
	}
	return nil
}
