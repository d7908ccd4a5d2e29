package planner

import (
	"context"

	"github.com/LENAX/plan-engine/pkg/core/parser"
	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// Generator 代码生成协作方接口（对外导出）
// 核心只把它当作不透明的文本生成调用，不假设返回格式
type Generator interface {
	// GenerateWorkflow 根据任务描述和可用步骤名生成候选工作流代码
	GenerateWorkflow(ctx context.Context, task string, stepNames []string) (string, error)
	// ReviseWorkflow 携带上一版代码和诊断信息请求修订
	ReviseWorkflow(ctx context.Context, task string, stepNames []string, previousCode, diagnostic string) (string, error)
}

// PlanAttempt 一次规划尝试（对外导出）
// 记录候选源码、语法检查结果、提取出的DAG（如成功）和诊断信息（如失败）
type PlanAttempt struct {
	Index      int                   `json:"index"`      // 尝试序号（从1开始）
	Code       string                `json:"code"`       // 候选源码
	SyntaxOK   bool                  `json:"syntax_ok"`  // 是否通过语法检查
	DAG        *workflow.WorkflowDAG `json:"-"`          // 提取出的DAG（仅成功时非nil）
	Diagnostic string                `json:"diagnostic"` // 失败诊断（原样反馈给生成器）
	Kind       parser.FailureKind    `json:"kind"`       // 失败类别
}

// Succeeded 该次尝试是否成功
func (a *PlanAttempt) Succeeded() bool {
	return a.DAG != nil
}

// PlanResult 一次规划会话的最终结果（对外导出）
// Accepted为true时携带通过验证的代码和DAG；
// 尝试次数耗尽时Accepted为false，Code/Diagnostic为最后一次失败的内容
type PlanResult struct {
	Query      string                `json:"query"`      // 任务描述
	Accepted   bool                  `json:"accepted"`   // 是否在限定次数内通过验证
	Code       string                `json:"code"`       // 通过验证的代码（或最后一次失败的代码）
	DAG        *workflow.WorkflowDAG `json:"-"`          // 通过验证的DAG（仅Accepted时非nil）
	Diagnostic string                `json:"diagnostic"` // 最后一次失败的诊断（仅未Accepted时非空）
	Attempts   []PlanAttempt         `json:"attempts"`   // 全部尝试记录
}

// NodeCount 结果DAG的节点数量
func (r *PlanResult) NodeCount() int {
	if r.DAG == nil {
		return 0
	}
	return r.DAG.NodeCount()
}

// AttemptObserver 尝试观察回调（对外导出）
// 每次尝试结束后调用一次，供上层发布事件；nil表示不观察
type AttemptObserver func(attempt PlanAttempt)
