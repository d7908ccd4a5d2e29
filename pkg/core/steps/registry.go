// Package steps 提供工作流可引用的激活步骤（Step）注册中心与默认实现
//
// 每个Step都是无副作用的负载构建函数：根据节点参数组装出下游系统
// 可消费的数据负载。LLM生成的工作流代码只按名称引用Step，
// 解析器不会校验action是否已注册，未注册动作在执行期才会报错。
package steps

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// StepFunc 步骤负载构建函数（对外导出）
type StepFunc func(params map[string]interface{}) (interface{}, error)

// Registry 步骤注册中心（对外导出）
type Registry struct {
	steps map[string]StepFunc
	mu    sync.RWMutex
}

// NewRegistry 创建空的Registry实例（对外导出）
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]StepFunc),
	}
}

// NewDefaultRegistry 创建带全部内置步骤的Registry实例（对外导出）
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("send_message", SendMessage)
	r.Register("send_email", SendEmail)
	r.Register("draft_email", DraftEmail)
	r.Register("make_call", MakeCall)
	r.Register("generate_summary", GenerateSummary)
	r.Register("web_search", WebSearch)
	r.Register("doc_search", DocSearch)
	r.Register("fetch_calendar_events", FetchCalendarEvents)
	return r
}

// Register 注册步骤（对外导出）
// 同名步骤后注册的覆盖先注册的
func (r *Registry) Register(name string, fn StepFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = fn
}

// Get 获取步骤函数（对外导出）
func (r *Registry) Get(name string) (StepFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.steps[name]
	return fn, ok
}

// Names 返回已注册步骤名称列表（对外导出）
// 按字典序排序，作为规划提示词中的可用步骤清单
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRunner 基于注册中心构建StepRunner（对外导出）
// 未注册的action在执行期报错（运行期语义检查，解析期不做校验）
func (r *Registry) NewRunner() workflow.StepRunner {
	return func(ctx context.Context, node *workflow.WorkflowNode) (interface{}, error) {
		fn, ok := r.Get(node.Action)
		if !ok {
			return nil, fmt.Errorf("未注册的动作: %s", node.Action)
		}
		return fn(node.Params)
	}
}
