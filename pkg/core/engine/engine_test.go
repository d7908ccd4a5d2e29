package engine

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/storage"
)

// memoryRepo 内存版PlanRepository，供引擎测试使用
type memoryRepo struct {
	mu       sync.RWMutex
	plans    map[string]*storage.Plan
	attempts map[string][]*storage.PlanAttempt
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		plans:    make(map[string]*storage.Plan),
		attempts: make(map[string][]*storage.PlanAttempt),
	}
}

func (r *memoryRepo) SavePlan(ctx context.Context, plan *storage.Plan, attempts []*storage.PlanAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.plans[plan.ID] = &cp
	r.attempts[plan.ID] = attempts
	return nil
}

func (r *memoryRepo) GetPlan(ctx context.Context, id string) (*storage.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *plan
	return &cp, nil
}

func (r *memoryRepo) ListPlans(ctx context.Context) ([]*storage.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plans := make([]*storage.Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		cp := *plan
		plans = append(plans, &cp)
	}
	return plans, nil
}

func (r *memoryRepo) ListAttempts(ctx context.Context, planID string) ([]*storage.PlanAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attempts[planID], nil
}

func (r *memoryRepo) UpdateSchedule(ctx context.Context, id string, cronExpr string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan, ok := r.plans[id]; ok {
		plan.CronExpr = cronExpr
		plan.CronEnabled = enabled
	}
	return nil
}

func (r *memoryRepo) DeletePlan(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plans, id)
	delete(r.attempts, id)
	return nil
}

func (r *memoryRepo) Close() error { return nil }

// scriptedGenerator 按脚本顺序返回候选代码
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (g *scriptedGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls >= len(g.responses) {
		return g.responses[len(g.responses)-1]
	}
	code := g.responses[g.calls]
	g.calls++
	return code
}

func (g *scriptedGenerator) GenerateWorkflow(ctx context.Context, task string, stepNames []string) (string, error) {
	return g.next(), nil
}

func (g *scriptedGenerator) ReviseWorkflow(ctx context.Context, task string, stepNames []string, previousCode, diagnostic string) (string, error) {
	return g.next(), nil
}

const validPlanCode = `dag = WorkflowDAG()
dag.add_node(WorkflowNode("fetch", "fetch_calendar_events", {"date": "2026-09-01"}))
dag.add_node(WorkflowNode("notify", "send_message", {"recipient": "Bob", "body": "Schedule ready"}))
dag.add_edge("fetch", "notify")
`

func newTestEngine(t *testing.T, responses ...string) (*Engine, *memoryRepo) {
	t.Helper()
	cfg := &config.EngineConfig{}
	cfg.ApplyDefaults()
	repo := newMemoryRepo()
	eng, err := NewEngine(cfg, &scriptedGenerator{responses: responses}, repo)
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("启动引擎失败: %v", err)
	}
	t.Cleanup(eng.Stop)
	return eng, repo
}

func TestPlanWorkflowAccepted(t *testing.T) {
	eng, repo := newTestEngine(t, validPlanCode)

	plan, err := eng.PlanWorkflow(context.Background(), "提醒Bob明天的日程")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}
	if plan.Status != storage.PlanStatusAccepted {
		t.Fatalf("计划应验收通过: %+v", plan)
	}
	if plan.AttemptCount != 1 || plan.NodeCount != 2 {
		t.Fatalf("计划统计错误: %+v", plan)
	}
	if !strings.Contains(plan.DAGText, "fetch -> notify") {
		t.Fatalf("DAG文本缺少边: %s", plan.DAGText)
	}

	stored, err := repo.GetPlan(context.Background(), plan.ID)
	if err != nil || stored == nil {
		t.Fatalf("计划未持久化: %v", err)
	}
	attempts, _ := repo.ListAttempts(context.Background(), plan.ID)
	if len(attempts) != 1 || !attempts[0].SyntaxOK {
		t.Fatalf("尝试记录错误: %+v", attempts)
	}
}

func TestPlanWorkflowReviseThenAccept(t *testing.T) {
	eng, _ := newTestEngine(t, "dag = WorkflowDAG(\n", validPlanCode)

	plan, err := eng.PlanWorkflow(context.Background(), "给团队发周报")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}
	if plan.Status != storage.PlanStatusAccepted || plan.AttemptCount != 2 {
		t.Fatalf("修订后应验收通过: %+v", plan)
	}
}

func TestPlanWorkflowExhausted(t *testing.T) {
	eng, _ := newTestEngine(t, "import os\nos.system('rm -rf /')\n")

	plan, err := eng.PlanWorkflow(context.Background(), "删库跑路")
	if err != nil {
		t.Fatalf("尝试耗尽不应返回错误: %v", err)
	}
	if plan.Status != storage.PlanStatusRejected {
		t.Fatalf("计划应被拒绝: %+v", plan)
	}
	if plan.Diagnostic == "" {
		t.Fatalf("被拒绝的计划应携带诊断信息")
	}
}

func TestExecutePlan(t *testing.T) {
	eng, _ := newTestEngine(t, validPlanCode)

	plan, err := eng.PlanWorkflow(context.Background(), "提醒Bob")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}

	results, err := eng.ExecutePlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("执行结果数量错误: %d", len(results))
	}
}

func TestExecutePlanParallel(t *testing.T) {
	eng, _ := newTestEngine(t, validPlanCode)

	plan, err := eng.PlanWorkflow(context.Background(), "提醒Bob")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}

	results, err := eng.ExecutePlanParallel(context.Background(), plan.ID, 4)
	if err != nil {
		t.Fatalf("并发执行失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("执行结果数量错误: %d", len(results))
	}
	if results[0].Node != "fetch" || results[1].Node != "notify" {
		t.Fatalf("结果顺序错误: %s, %s", results[0].Node, results[1].Node)
	}
}

func TestExecutePlanRejected(t *testing.T) {
	eng, _ := newTestEngine(t, "not python at all ((")

	plan, err := eng.PlanWorkflow(context.Background(), "乱写")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}
	if _, err := eng.ExecutePlan(context.Background(), plan.ID); err == nil {
		t.Fatalf("未验收的计划不应可执行")
	}
}

func TestExecutionLevels(t *testing.T) {
	eng, _ := newTestEngine(t, validPlanCode)

	plan, err := eng.PlanWorkflow(context.Background(), "提醒Bob")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}

	order, err := eng.ExecutionLevels(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("获取分层顺序失败: %v", err)
	}
	if len(order.Levels) != 2 {
		t.Fatalf("分层数量错误: %v", order.Levels)
	}
}

func TestSchedulePlan(t *testing.T) {
	eng, repo := newTestEngine(t, validPlanCode)
	ctx := context.Background()

	plan, err := eng.PlanWorkflow(ctx, "定时提醒")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}

	if err := eng.SchedulePlan(ctx, plan.ID, "0 0 9 * * 1", true); err != nil {
		t.Fatalf("设置定时失败: %v", err)
	}
	stored, _ := repo.GetPlan(ctx, plan.ID)
	if !stored.CronEnabled || stored.CronExpr != "0 0 9 * * 1" {
		t.Fatalf("定时配置未持久化: %+v", stored)
	}

	// 非法表达式被拒绝
	if err := eng.SchedulePlan(ctx, plan.ID, "not-a-cron", true); err == nil {
		t.Fatalf("非法Cron表达式应报错")
	}

	if err := eng.SchedulePlan(ctx, plan.ID, "", false); err != nil {
		t.Fatalf("取消定时失败: %v", err)
	}
}

func TestDeletePlan(t *testing.T) {
	eng, repo := newTestEngine(t, validPlanCode)
	ctx := context.Background()

	plan, err := eng.PlanWorkflow(ctx, "删除测试")
	if err != nil {
		t.Fatalf("规划失败: %v", err)
	}
	if err := eng.DeletePlan(ctx, plan.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	stored, _ := repo.GetPlan(ctx, plan.ID)
	if stored != nil {
		t.Fatalf("删除后计划仍存在")
	}
}

func TestPlanBatch(t *testing.T) {
	eng, _ := newTestEngine(t, validPlanCode)

	plans, err := eng.PlanBatch(context.Background(), "发周报", 3)
	if err != nil {
		t.Fatalf("批量规划失败: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("计划数量错误: %d", len(plans))
	}
	seen := make(map[string]bool)
	for _, plan := range plans {
		if seen[plan.Query] {
			t.Fatalf("变体查询重复: %s", plan.Query)
		}
		seen[plan.Query] = true
	}
}
