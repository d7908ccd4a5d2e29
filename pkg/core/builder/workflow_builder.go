// Package builder 提供Go侧的工作流链式构建器
// 与静态解析器从Python源码提取DAG的路径互补，用于示例和测试中直接构造工作流
package builder

import (
	"fmt"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// pendingEdge 待添加的依赖边
type pendingEdge struct {
	source string
	target string
}

// WorkflowBuilder Workflow构建器（对外导出）
// 节点和边先缓存，Build时统一校验，因此添加顺序不受约束
type WorkflowBuilder struct {
	nodes   []*workflow.WorkflowNode
	edges   []pendingEdge
	allowed map[string]bool // 允许的步骤函数名，空表示不校验
}

// NewWorkflowBuilder 创建构建器（对外导出）
func NewWorkflowBuilder() *WorkflowBuilder {
	return &WorkflowBuilder{}
}

// AllowActions 限定允许的步骤函数名（链式构建，对外导出）
// 通常传入steps.Registry的Names()，Build时校验每个节点的action
func (b *WorkflowBuilder) AllowActions(names []string) *WorkflowBuilder {
	b.allowed = make(map[string]bool, len(names))
	for _, name := range names {
		b.allowed[name] = true
	}
	return b
}

// Node 添加节点（链式构建，对外导出）
func (b *WorkflowBuilder) Node(name, action string, params map[string]interface{}) *WorkflowBuilder {
	b.nodes = append(b.nodes, workflow.NewWorkflowNode(name, action, params))
	return b
}

// Edge 添加依赖边 source -> target（链式构建，对外导出）
func (b *WorkflowBuilder) Edge(source, target string) *WorkflowBuilder {
	b.edges = append(b.edges, pendingEdge{source: source, target: target})
	return b
}

// Build 构建WorkflowDAG实例（对外导出）
// 校验节点合法性、动作允许表和无环性，任一失败返回错误
func (b *WorkflowBuilder) Build() (*workflow.WorkflowDAG, error) {
	wf := workflow.NewWorkflowDAG()

	for _, node := range b.nodes {
		if b.allowed != nil && !b.allowed[node.Action] {
			return nil, fmt.Errorf("节点 %s 使用了未注册的步骤函数 %s", node.Name, node.Action)
		}
		if err := wf.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, edge := range b.edges {
		if err := wf.AddEdge(edge.source, edge.target); err != nil {
			return nil, err
		}
	}

	// 环检测
	if _, err := wf.TopologicalOrder(); err != nil {
		return nil, err
	}
	return wf, nil
}
