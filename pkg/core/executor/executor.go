// Package executor 提供DAG的分层并发执行能力
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LENAX/plan-engine/pkg/core/dag"
	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

const maxGlobalWorkers = 1000 // 全局最大并发数上限

// LevelExecutor 分层并发执行器（对外导出）
// 同一拓扑层级内的节点并发执行，层级之间严格按依赖顺序推进
type LevelExecutor struct {
	maxWorkers int
	workerPool chan struct{} // 全局Worker池
}

// NewLevelExecutor 创建执行器实例（对外导出的工厂方法，engine包会调用）
func NewLevelExecutor(maxWorkers int) (*LevelExecutor, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10 // 默认值
	}
	if maxWorkers > maxGlobalWorkers {
		return nil, fmt.Errorf("最大并发数不能超过 %d", maxGlobalWorkers)
	}

	return &LevelExecutor{
		maxWorkers: maxWorkers,
		workerPool: make(chan struct{}, maxWorkers),
	}, nil
}

// MaxWorkers 返回全局最大并发数（对外导出）
func (e *LevelExecutor) MaxWorkers() int {
	return e.maxWorkers
}

// Execute 分层执行DAG（对外导出）
// 结果按确定性顺序排列：层级从上到下，层内按节点插入顺序。
// 某层出现失败时等待该层全部节点结束，不再推进后续层级，
// 返回已完成节点的结果和层内顺序最靠前的错误。
func (e *LevelExecutor) Execute(ctx context.Context, execDAG *dag.ExecutionDAG, runner workflow.StepRunner) ([]*NodeResult, error) {
	order, err := execDAG.TopologicalLevels()
	if err != nil {
		return nil, err
	}

	results := make([]*NodeResult, 0, execDAG.NodeCount())
	for levelIdx, level := range order.Levels {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("执行被取消: %w", err)
		}

		levelResults := make([]*NodeResult, len(level))
		levelErrs := make([]error, len(level))
		var wg sync.WaitGroup

		for i, name := range level {
			node, err := execDAG.GetNode(name)
			if err != nil {
				return results, err
			}

			wg.Add(1)
			e.workerPool <- struct{}{}
			go func(i int, node *workflow.WorkflowNode) {
				defer wg.Done()
				defer func() { <-e.workerPool }()

				start := time.Now()
				value, err := runner(ctx, node)
				if err != nil {
					levelErrs[i] = err
					return
				}
				levelResults[i] = &NodeResult{
					Node:     node.Name,
					Action:   node.Action,
					Level:    levelIdx,
					Value:    value,
					Duration: time.Since(start).Milliseconds(),
				}
			}(i, node)
		}
		wg.Wait()

		for i, err := range levelErrs {
			if err != nil {
				// 同层已成功的节点仍计入结果
				for _, r := range levelResults {
					if r != nil {
						results = append(results, r)
					}
				}
				return results, fmt.Errorf("节点 %s 执行失败: %w", level[i], err)
			}
		}
		results = append(results, levelResults...)
	}
	return results, nil
}
