package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/LENAX/plan-engine/pkg/core/planner"
)

// ScriptedGenerator 脚本化代码生成器（对外导出）
// 按预设顺序返回候选代码，响应耗尽后重复返回最后一条，
// 用于在测试中模拟LLM的多轮生成与修订
type ScriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	index     int
}

// NewScriptedGenerator 创建脚本化生成器（对外导出）
func NewScriptedGenerator(responses ...string) *ScriptedGenerator {
	return &ScriptedGenerator{responses: responses}
}

// GenerateWorkflow 返回下一条预设响应
func (g *ScriptedGenerator) GenerateWorkflow(ctx context.Context, task string, stepNames []string) (string, error) {
	return g.next()
}

// ReviseWorkflow 返回下一条预设响应
func (g *ScriptedGenerator) ReviseWorkflow(ctx context.Context, task string, stepNames []string, previousCode, diagnostic string) (string, error) {
	return g.next()
}

func (g *ScriptedGenerator) next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) == 0 {
		return "", fmt.Errorf("未配置预设响应")
	}
	response := g.responses[g.index]
	if g.index < len(g.responses)-1 {
		g.index++
	}
	return response, nil
}

var _ planner.Generator = (*ScriptedGenerator)(nil)
