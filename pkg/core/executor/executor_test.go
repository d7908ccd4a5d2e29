package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/plan-engine/pkg/core/dag"
	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// buildDiamondDAG 构造菱形DAG: fetch/search -> summarize -> send
func buildDiamondDAG(t *testing.T) *dag.ExecutionDAG {
	t.Helper()

	wf := workflow.NewWorkflowDAG()
	require.NoError(t, wf.AddNode(workflow.NewWorkflowNode("fetch", "fetch_calendar_events", map[string]interface{}{"date": "2026-09-01"})))
	require.NoError(t, wf.AddNode(workflow.NewWorkflowNode("search", "web_search", map[string]interface{}{"query": "weather"})))
	require.NoError(t, wf.AddNode(workflow.NewWorkflowNode("summarize", "generate_summary", map[string]interface{}{"text": "..."})))
	require.NoError(t, wf.AddNode(workflow.NewWorkflowNode("send", "send_message", map[string]interface{}{"recipient": "Bob", "body": "done"})))
	require.NoError(t, wf.AddEdge("fetch", "summarize"))
	require.NoError(t, wf.AddEdge("search", "summarize"))
	require.NoError(t, wf.AddEdge("summarize", "send"))

	execDAG, err := dag.BuildExecutionDAG(wf)
	require.NoError(t, err)
	return execDAG
}

// recordingRunner 记录执行过的节点名，返回节点名作为结果
func recordingRunner(failOn string) (workflow.StepRunner, *sync.Map) {
	var executed sync.Map
	runner := func(ctx context.Context, node *workflow.WorkflowNode) (interface{}, error) {
		executed.Store(node.Name, true)
		if node.Name == failOn {
			return nil, fmt.Errorf("步骤 %s 模拟失败", node.Name)
		}
		return node.Name, nil
	}
	return runner, &executed
}

func TestNewLevelExecutor(t *testing.T) {
	t.Run("非法并发数使用默认值", func(t *testing.T) {
		exec, err := NewLevelExecutor(0)
		require.NoError(t, err)
		assert.Equal(t, 10, exec.MaxWorkers())
	})

	t.Run("超过上限返回错误", func(t *testing.T) {
		_, err := NewLevelExecutor(2000)
		assert.Error(t, err)
	})
}

func TestLevelExecutorDeterministicOrder(t *testing.T) {
	execDAG := buildDiamondDAG(t)
	exec, err := NewLevelExecutor(4)
	require.NoError(t, err)

	runner, _ := recordingRunner("")
	results, err := exec.Execute(context.Background(), execDAG, runner)
	require.NoError(t, err)
	require.Len(t, results, 4)

	// 层级从上到下，层内按插入顺序
	assert.Equal(t, "fetch", results[0].Node)
	assert.Equal(t, "search", results[1].Node)
	assert.Equal(t, "summarize", results[2].Node)
	assert.Equal(t, "send", results[3].Node)

	assert.Equal(t, 0, results[0].Level)
	assert.Equal(t, 0, results[1].Level)
	assert.Equal(t, 1, results[2].Level)
	assert.Equal(t, 2, results[3].Level)

	assert.Equal(t, "summarize", results[2].Value)
}

func TestLevelExecutorStopsOnFailure(t *testing.T) {
	execDAG := buildDiamondDAG(t)
	exec, err := NewLevelExecutor(4)
	require.NoError(t, err)

	runner, executed := recordingRunner("search")
	results, err := exec.Execute(context.Background(), execDAG, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search")

	// 失败层级中已成功的节点仍计入结果，后续层级不再执行
	require.Len(t, results, 1)
	assert.Equal(t, "fetch", results[0].Node)
	assert.Equal(t, "fetch", results[0].Value)
	_, ran := executed.Load("summarize")
	assert.False(t, ran)
	_, ran = executed.Load("send")
	assert.False(t, ran)
}

func TestLevelExecutorCancelledContext(t *testing.T) {
	execDAG := buildDiamondDAG(t)
	exec, err := NewLevelExecutor(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, executed := recordingRunner("")
	_, err = exec.Execute(ctx, execDAG, runner)
	require.Error(t, err)
	_, ran := executed.Load("fetch")
	assert.False(t, ran)
}
