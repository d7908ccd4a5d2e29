package workflow

import (
	"context"
	"fmt"
	"strings"
)

// StepRunner 步骤执行函数（对外导出）
// 按拓扑顺序对每个节点调用一次，返回该步骤的执行结果
type StepRunner func(ctx context.Context, node *WorkflowNode) (interface{}, error)

// WorkflowDAG 工作流有向无环图（对外导出）
// 存储工作流节点与依赖边，由静态解析器增量构建
// 节点与边均保留插入顺序，保证拓扑排序和文本导出结果可复现
type WorkflowDAG struct {
	nodes     map[string]*WorkflowNode // 节点名称 -> 节点
	nodeOrder []string                 // 节点插入顺序
	edges     map[string][]string      // 节点名称 -> 后继名称列表（按插入顺序）
	edgeSet   map[string]map[string]bool
}

// NewWorkflowDAG 创建空的WorkflowDAG实例（对外导出）
func NewWorkflowDAG() *WorkflowDAG {
	return &WorkflowDAG{
		nodes:   make(map[string]*WorkflowNode),
		edges:   make(map[string][]string),
		edgeSet: make(map[string]map[string]bool),
	}
}

// AddNode 添加节点（对外导出）
// 名称重复时返回DuplicateNodeError，原节点不受影响
func (d *WorkflowDAG) AddNode(node *WorkflowNode) error {
	if node == nil {
		return fmt.Errorf("节点不能为空")
	}
	if node.Name == "" || node.Action == "" {
		return fmt.Errorf("节点的name和action不能为空")
	}
	if _, exists := d.nodes[node.Name]; exists {
		return &DuplicateNodeError{Name: node.Name}
	}

	d.nodes[node.Name] = node
	d.nodeOrder = append(d.nodeOrder, node.Name)
	d.edges[node.Name] = make([]string, 0)
	d.edgeSet[node.Name] = make(map[string]bool)
	return nil
}

// AddEdge 添加依赖边 source -> target（对外导出）
// 两端节点必须已存在，否则返回UnknownNodeError；重复添加同一条边为幂等操作
func (d *WorkflowDAG) AddEdge(source, target string) error {
	if _, exists := d.nodes[source]; !exists {
		return &UnknownNodeError{Name: source}
	}
	if _, exists := d.nodes[target]; !exists {
		return &UnknownNodeError{Name: target}
	}

	if d.edgeSet[source][target] {
		return nil
	}
	d.edges[source] = append(d.edges[source], target)
	d.edgeSet[source][target] = true
	return nil
}

// GetNode 根据名称获取节点（对外导出）
func (d *WorkflowDAG) GetNode(name string) (*WorkflowNode, bool) {
	node, ok := d.nodes[name]
	return node, ok
}

// NodeCount 返回节点数量（对外导出）
func (d *WorkflowDAG) NodeCount() int {
	return len(d.nodes)
}

// NodeNames 返回按插入顺序排列的节点名称列表（对外导出）
func (d *WorkflowDAG) NodeNames() []string {
	names := make([]string, len(d.nodeOrder))
	copy(names, d.nodeOrder)
	return names
}

// Successors 返回指定节点的后继名称列表（对外导出）
func (d *WorkflowDAG) Successors(name string) []string {
	succ := make([]string, len(d.edges[name]))
	copy(succ, d.edges[name])
	return succ
}

// EdgeCount 返回边数量（对外导出）
func (d *WorkflowDAG) EdgeCount() int {
	count := 0
	for _, targets := range d.edges {
		count += len(targets)
	}
	return count
}

// TopologicalOrder 执行拓扑排序（对外导出）
// 使用三色标记法DFS：白色=未访问，灰色=访问中，黑色=已完成
// 访问中的节点被再次访问说明存在循环，返回CycleDetectedError且不返回部分结果
// 节点与边均按插入顺序遍历，同一DAG多次调用结果完全一致
func (d *WorkflowDAG) TopologicalOrder() ([]*WorkflowNode, error) {
	const (
		white = 0 // 未访问
		gray  = 1 // 访问中
		black = 2 // 已完成
	)

	color := make(map[string]int, len(d.nodes))
	path := make([]string, 0, len(d.nodes))
	order := make([]string, 0, len(d.nodes))

	var cycleErr *CycleDetectedError
	var dfs func(name string) bool
	dfs = func(name string) bool {
		color[name] = gray
		path = append(path, name)

		for _, next := range d.edges[name] {
			switch color[next] {
			case white:
				if dfs(next) {
					return true
				}
			case gray:
				// 灰色节点说明存在后向边，截取循环路径
				cycle := make([]string, 0)
				for i, n := range path {
					if n == next {
						cycle = append(cycle, path[i:]...)
						cycle = append(cycle, next)
						break
					}
				}
				cycleErr = &CycleDetectedError{Path: cycle}
				return true
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		order = append(order, name)
		return false
	}

	for _, name := range d.nodeOrder {
		if color[name] == white {
			if dfs(name) {
				return nil, cycleErr
			}
		}
	}

	// DFS后序追加，反转后每个节点位于其所有后继之前
	result := make([]*WorkflowNode, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		result = append(result, d.nodes[order[i]])
	}
	return result, nil
}

// ToText 生成确定性的文本描述（对外导出）
// 节点和边按插入顺序输出，供测试diff和渲染组件消费，无副作用
func (d *WorkflowDAG) ToText() string {
	var sb strings.Builder
	sb.WriteString("nodes:\n")
	for _, name := range d.nodeOrder {
		sb.WriteString(fmt.Sprintf("  %s => %s\n", name, d.nodes[name].Describe()))
	}
	sb.WriteString("edges:\n")
	for _, name := range d.nodeOrder {
		for _, target := range d.edges[name] {
			sb.WriteString(fmt.Sprintf("  %s -> %s\n", name, target))
		}
	}
	return sb.String()
}

// ToDOT 生成Graphviz DOT格式描述（对外导出）
// 图像渲染由外部组件完成，这里只负责文本投影
func (d *WorkflowDAG) ToDOT() string {
	lines := []string{"digraph workflow {"}
	for _, name := range d.nodeOrder {
		lines = append(lines, fmt.Sprintf("    %q [label=%q];", name, d.nodes[name].Describe()))
	}
	for _, name := range d.nodeOrder {
		for _, target := range d.edges[name] {
			lines = append(lines, fmt.Sprintf("    %q -> %q;", name, target))
		}
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

// Execute 按拓扑顺序执行工作流（对外导出）
// 对每个节点调用一次runner并按顺序收集结果
// 任一步骤失败立即停止，返回已收集的结果和错误，重试策略由调用方决定
func (d *WorkflowDAG) Execute(ctx context.Context, runner StepRunner) ([]interface{}, error) {
	ordered, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, 0, len(ordered))
	for _, node := range ordered {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result, err := runner(ctx, node)
		if err != nil {
			return results, fmt.Errorf("节点 %s 执行失败: %w", node.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}
