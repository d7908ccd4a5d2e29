// Package dag 基于go-dag构建可并行调度的执行图
// 在workflow.WorkflowDAG验收通过后，将节点按依赖关系分层，
// 同一层内的节点互不依赖，可以并发执行。
package dag

import (
	"fmt"
	"sort"

	godag "github.com/begmaroman/go-dag"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// ExecutionDAG 执行图（对外导出）
// 包装go-dag的线程安全图结构，并记录节点的插入顺序用于稳定排序
type ExecutionDAG struct {
	graph *godag.DAG[*workflow.WorkflowNode]
	order map[string]int // 节点名 -> 插入序号
	names []string       // 按插入顺序排列的节点名
}

// TopologicalOrder 分层拓扑排序结果（对外导出）
// Levels[i] 中的节点仅依赖前i层的节点，层内可并行
type TopologicalOrder struct {
	Levels [][]string `json:"levels"`
}

// FlattenedOrder 将分层结果展开为单一序列
func (o *TopologicalOrder) FlattenedOrder() []string {
	flat := make([]string, 0)
	for _, level := range o.Levels {
		flat = append(flat, level...)
	}
	return flat
}

// BuildExecutionDAG 由已验收的工作流图构建执行图（对外导出）
// 先通过TopologicalOrder做环检测，存在环时返回workflow.CycleDetectedError
func BuildExecutionDAG(wf *workflow.WorkflowDAG) (*ExecutionDAG, error) {
	// 1. 环检测（三色DFS，失败时携带环路径）
	if _, err := wf.TopologicalOrder(); err != nil {
		return nil, err
	}

	// 2. 构建go-dag图
	g := godag.NewDAG[*workflow.WorkflowNode]()
	order := make(map[string]int, wf.NodeCount())
	names := wf.NodeNames()

	for i, name := range names {
		node, ok := wf.GetNode(name)
		if !ok {
			return nil, fmt.Errorf("节点 %s 不存在", name)
		}
		if _, err := g.AddVertex(node); err != nil {
			return nil, fmt.Errorf("添加节点 %s 失败: %w", name, err)
		}
		order[name] = i
	}

	// 3. 添加边
	for _, from := range names {
		for _, to := range wf.Successors(from) {
			if err := g.AddEdge(from, to); err != nil {
				return nil, fmt.Errorf("添加边 %s -> %s 失败: %w", from, to, err)
			}
		}
	}

	return &ExecutionDAG{graph: g, order: order, names: names}, nil
}

// NodeCount 返回节点数量
func (e *ExecutionDAG) NodeCount() int {
	return len(e.names)
}

// GetNode 按名称取节点
func (e *ExecutionDAG) GetNode(name string) (*workflow.WorkflowNode, error) {
	return e.graph.GetVertex(name)
}

// Roots 返回所有根节点名（无父节点），按插入顺序排序
func (e *ExecutionDAG) Roots() []string {
	roots := e.graph.GetRoots()
	names := make([]string, 0, len(roots))
	for name := range roots {
		names = append(names, name)
	}
	e.sortByInsertion(names)
	return names
}

// Children 返回指定节点的所有子节点名，按插入顺序排序
func (e *ExecutionDAG) Children(name string) ([]string, error) {
	children, err := e.graph.GetChildren(name)
	if err != nil {
		return nil, fmt.Errorf("获取子节点失败: %w", err)
	}
	names := make([]string, 0, len(children))
	for child := range children {
		names = append(names, child)
	}
	e.sortByInsertion(names)
	return names, nil
}

// Parents 返回指定节点的所有父节点名，按插入顺序排序
func (e *ExecutionDAG) Parents(name string) ([]string, error) {
	parents, err := e.graph.GetParents(name)
	if err != nil {
		return nil, fmt.Errorf("获取父节点失败: %w", err)
	}
	names := make([]string, 0, len(parents))
	for parent := range parents {
		names = append(names, parent)
	}
	e.sortByInsertion(names)
	return names, nil
}

// TopologicalLevels 计算分层拓扑排序（Kahn算法，对外导出）
// 每一轮取出当前入度为0的全部节点作为一层，层内按插入顺序排序
func (e *ExecutionDAG) TopologicalLevels() (*TopologicalOrder, error) {
	// 1. 统计入度
	inDegree := make(map[string]int, len(e.names))
	for _, name := range e.names {
		inDegree[name] = 0
	}
	for _, name := range e.names {
		children, err := e.graph.GetChildren(name)
		if err != nil {
			return nil, fmt.Errorf("获取子节点失败: %w", err)
		}
		for child := range children {
			inDegree[child]++
		}
	}

	// 2. 逐层剥离入度为0的节点
	result := &TopologicalOrder{Levels: make([][]string, 0)}
	remaining := len(e.names)

	for remaining > 0 {
		level := make([]string, 0)
		for _, name := range e.names {
			if deg, ok := inDegree[name]; ok && deg == 0 {
				level = append(level, name)
			}
		}
		if len(level) == 0 {
			// 环检测已在构建时完成，这里属于内部不变量被破坏
			return nil, fmt.Errorf("拓扑排序失败: 剩余 %d 个节点无法剥离", remaining)
		}
		e.sortByInsertion(level)

		for _, name := range level {
			delete(inDegree, name)
			remaining--
			children, err := e.graph.GetChildren(name)
			if err != nil {
				return nil, fmt.Errorf("获取子节点失败: %w", err)
			}
			for child := range children {
				if _, ok := inDegree[child]; ok {
					inDegree[child]--
				}
			}
		}
		result.Levels = append(result.Levels, level)
	}

	return result, nil
}

func (e *ExecutionDAG) sortByInsertion(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return e.order[names[i]] < e.order[names[j]]
	})
}
