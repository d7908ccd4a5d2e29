package planner

import (
	"context"
	"fmt"

	"github.com/LENAX/plan-engine/pkg/core/parser"
)

// DefaultMaxAttempts 默认最大尝试次数
const DefaultMaxAttempts = 3

// Validator 规划验证循环（对外导出）
// 驱动"生成候选代码 -> 语法检查 -> 静态提取 -> 失败携带诊断请求修订"的有界循环
type Validator struct {
	generator   Generator
	maxAttempts int
	observer    AttemptObserver
}

// NewValidator 创建Validator实例（对外导出）
// maxAttempts小于1时回退为默认值
func NewValidator(generator Generator, maxAttempts int) *Validator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Validator{
		generator:   generator,
		maxAttempts: maxAttempts,
	}
}

// SetObserver 设置尝试观察回调（对外导出）
func (v *Validator) SetObserver(observer AttemptObserver) {
	v.observer = observer
}

// BuildAndValidate 执行一次完整的规划会话（对外导出）
// 接受首个同时通过语法检查和静态提取的候选并立即停止；
// 次数耗尽时返回最后一次失败的代码与诊断，调用方必须视为硬失败
func (v *Validator) BuildAndValidate(ctx context.Context, query string, stepNames []string) (*PlanResult, error) {
	result := &PlanResult{
		Query:    query,
		Attempts: make([]PlanAttempt, 0, v.maxAttempts),
	}

	previousCode := ""
	diagnostic := ""

	for index := 1; index <= v.maxAttempts; index++ {
		var code string
		var err error
		if index == 1 {
			code, err = v.generator.GenerateWorkflow(ctx, query, stepNames)
		} else {
			// 修订请求携带上一版代码和原样的诊断信息，让生成器自我纠正
			code, err = v.generator.ReviseWorkflow(ctx, query, stepNames, previousCode, diagnostic)
		}
		if err != nil {
			return nil, fmt.Errorf("第%d次生成调用失败: %w", index, err)
		}

		attempt := v.validate(ctx, index, code)
		result.Attempts = append(result.Attempts, attempt)
		if v.observer != nil {
			v.observer(attempt)
		}

		if attempt.Succeeded() {
			result.Accepted = true
			result.Code = attempt.Code
			result.DAG = attempt.DAG
			return result, nil
		}

		previousCode = attempt.Code
		diagnostic = attempt.Diagnostic
	}

	// 次数耗尽：返回最后一次失败的尝试内容，不伪造结果
	last := result.Attempts[len(result.Attempts)-1]
	result.Code = last.Code
	result.Diagnostic = last.Diagnostic
	return result, nil
}

// validate 对单个候选代码做语法检查和静态提取
// 语法失败直接短路，不再尝试提取
func (v *Validator) validate(ctx context.Context, index int, code string) PlanAttempt {
	attempt := PlanAttempt{Index: index, Code: code}

	if err := parser.CheckSyntax(ctx, code); err != nil {
		attempt.Diagnostic = err.Error()
		attempt.Kind = parser.KindOf(err)
		return attempt
	}
	attempt.SyntaxOK = true

	dag, err := parser.ExtractWorkflow(ctx, code)
	if err != nil {
		attempt.Diagnostic = err.Error()
		attempt.Kind = parser.KindOf(err)
		return attempt
	}

	attempt.DAG = dag
	return attempt
}

// GenerateQueryVariations 生成查询变体（对外导出）
// 用于批量规划场景，第一个变体是原始任务本身
func GenerateQueryVariations(task string, variations int) ([]string, error) {
	if task == "" {
		return nil, fmt.Errorf("任务描述不能为空")
	}
	if variations < 1 {
		variations = 1
	}

	queries := []string{task}
	for i := 1; i < variations; i++ {
		queries = append(queries, fmt.Sprintf("%s (variation %d)", task, i))
	}
	return queries, nil
}
