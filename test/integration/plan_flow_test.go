package integration

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/core/engine"
	"github.com/LENAX/plan-engine/pkg/core/realtime"
	"github.com/LENAX/plan-engine/pkg/storage"
	"github.com/LENAX/plan-engine/pkg/storage/sqlite"
	"github.com/LENAX/plan-engine/pkg/storage/sqlrepo"
	"github.com/LENAX/plan-engine/test/mocks"
)

const validPlanCode = `dag = WorkflowDAG()
dag.add_node(WorkflowNode("fetch", "fetch_calendar_events", {"date": "2026-09-01"}))
dag.add_node(WorkflowNode("notify", "send_message", {"recipient": "Bob", "body": "Schedule ready"}))
dag.add_edge("fetch", "notify")
`

// newSQLiteEngine 构建接入真实SQLite存储的引擎
func newSQLiteEngine(t *testing.T, repo storage.PlanRepository, responses ...string) *engine.Engine {
	t.Helper()

	cfg := &config.EngineConfig{}
	cfg.ApplyDefaults()
	cfg.PlanEngine.Scheduler.Enabled = true

	eng, err := engine.NewEngine(cfg, mocks.NewScriptedGenerator(responses...), repo)
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(eng.Stop)
	return eng
}

// TestPlanLifecycleWithSQLite 覆盖规划、执行、定时配置的完整链路
func TestPlanLifecycleWithSQLite(t *testing.T) {
	repo, err := sqlrepo.NewPlanRepoFromDSN(sqlite.NewSQLiteDialect(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	eng := newSQLiteEngine(t, repo, validPlanCode)
	ctx := context.Background()

	// 1. 规划并落库
	plan, err := eng.PlanWorkflow(ctx, "明早九点把日程发给Bob")
	require.NoError(t, err)
	require.Equal(t, storage.PlanStatusAccepted, plan.Status)

	stored, err := repo.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.NodeCount)

	// 2. 顺序执行与并发执行结果一致
	results, err := eng.ExecutePlan(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	nodeResults, err := eng.ExecutePlanParallel(ctx, plan.ID, 2)
	require.NoError(t, err)
	require.Len(t, nodeResults, 2)
	assert.Equal(t, "fetch", nodeResults[0].Node)
	assert.Equal(t, "notify", nodeResults[1].Node)

	// 3. 配置定时执行并确认落库
	require.NoError(t, eng.SchedulePlan(ctx, plan.ID, "0 0 9 * * 1", true))
	stored, err = repo.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, stored.CronEnabled)
	assert.Contains(t, eng.ScheduledPlans(), plan.ID)
}

// TestScheduleRestoredAcrossRestart 引擎重启后恢复定时计划
func TestScheduleRestoredAcrossRestart(t *testing.T) {
	repo, err := sqlrepo.NewPlanRepoFromDSN(sqlite.NewSQLiteDialect(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	eng := newSQLiteEngine(t, repo, validPlanCode)
	ctx := context.Background()

	plan, err := eng.PlanWorkflow(ctx, "每周一提醒Bob")
	require.NoError(t, err)
	require.NoError(t, eng.SchedulePlan(ctx, plan.ID, "0 0 9 * * 1", true))
	eng.Stop()

	// 新引擎实例从同一存储恢复定时计划
	restarted := newSQLiteEngine(t, repo, validPlanCode)
	assert.Contains(t, restarted.ScheduledPlans(), plan.ID)
}

// TestRejectedPlanAlerting 尝试耗尽的计划触发告警事件
func TestRejectedPlanAlerting(t *testing.T) {
	repo, err := sqlrepo.NewPlanRepoFromDSN(sqlite.NewSQLiteDialect(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	eng := newSQLiteEngine(t, repo, "broken python ((")

	received := make(chan *realtime.PlanEvent, 8)
	_, err = eng.EventBus().Subscribe(realtime.EventPlanExhausted, func(event *realtime.PlanEvent) error {
		received <- event
		return nil
	})
	require.NoError(t, err)

	plan, err := eng.PlanWorkflow(context.Background(), "乱写的需求")
	require.NoError(t, err)
	require.Equal(t, storage.PlanStatusRejected, plan.Status)

	select {
	case event := <-received:
		assert.Equal(t, plan.ID, event.PlanID)
	case <-time.After(2 * time.Second):
		t.Fatal("等待plan_exhausted事件超时")
	}

	attempts, err := repo.ListAttempts(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)
}
