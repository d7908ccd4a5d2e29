package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/plan-engine/pkg/core/steps"
	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

func TestWorkflowBuilderBuild(t *testing.T) {
	wf, err := NewWorkflowBuilder().
		Node("fetch", "fetch_calendar_events", map[string]interface{}{"date": "2026-09-01"}).
		Node("notify", "send_message", map[string]interface{}{"recipient": "Bob", "body": "ok"}).
		Edge("fetch", "notify").
		Build()
	require.NoError(t, err)
	assert.Equal(t, 2, wf.NodeCount())
	assert.Equal(t, []string{"notify"}, wf.Successors("fetch"))
}

func TestWorkflowBuilderEdgeBeforeNode(t *testing.T) {
	// 边先于节点声明也能构建成功
	wf, err := NewWorkflowBuilder().
		Edge("a", "b").
		Node("a", "web_search", map[string]interface{}{"query": "x"}).
		Node("b", "generate_summary", map[string]interface{}{"text": "y"}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 2, wf.NodeCount())
}

func TestWorkflowBuilderRejectsUnknownAction(t *testing.T) {
	registry := steps.NewDefaultRegistry()
	_, err := NewWorkflowBuilder().
		AllowActions(registry.Names()).
		Node("hack", "rm_rf", nil).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rm_rf")
}

func TestWorkflowBuilderRejectsCycle(t *testing.T) {
	_, err := NewWorkflowBuilder().
		Node("a", "web_search", map[string]interface{}{"query": "x"}).
		Node("b", "generate_summary", map[string]interface{}{"text": "y"}).
		Edge("a", "b").
		Edge("b", "a").
		Build()
	require.Error(t, err)

	var cycleErr *workflow.CycleDetectedError
	assert.True(t, errors.As(err, &cycleErr))
}

func TestWorkflowBuilderRejectsDuplicateNode(t *testing.T) {
	_, err := NewWorkflowBuilder().
		Node("a", "web_search", map[string]interface{}{"query": "x"}).
		Node("a", "web_search", map[string]interface{}{"query": "y"}).
		Build()
	require.Error(t, err)

	var dupErr *workflow.DuplicateNodeError
	assert.True(t, errors.As(err, &dupErr))
}
