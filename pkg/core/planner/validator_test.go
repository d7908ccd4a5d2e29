package planner

import (
	"context"
	"testing"

	"github.com/LENAX/plan-engine/pkg/core/parser"
)

// mockGenerator 按脚本依次返回候选代码
type mockGenerator struct {
	responses    []string
	generateCnt  int
	reviseCnt    int
	lastDiag     string
	lastPrevCode string
}

func (m *mockGenerator) next() string {
	index := m.generateCnt + m.reviseCnt
	if index >= len(m.responses) {
		return m.responses[len(m.responses)-1]
	}
	return m.responses[index]
}

func (m *mockGenerator) GenerateWorkflow(ctx context.Context, task string, stepNames []string) (string, error) {
	code := m.next()
	m.generateCnt++
	return code, nil
}

func (m *mockGenerator) ReviseWorkflow(ctx context.Context, task string, stepNames []string, previousCode, diagnostic string) (string, error) {
	code := m.next()
	m.reviseCnt++
	m.lastPrevCode = previousCode
	m.lastDiag = diagnostic
	return code, nil
}

const validCode = `
dag = WorkflowDAG()
dag.add_node(WorkflowNode("greet", "send_message"))
dag.add_node(WorkflowNode("bye", "send_message"))
dag.add_edge("greet", "bye")
`

const brokenSyntaxCode = `
dag = WorkflowDAG(
dag.add_node(
`

func TestBuildAndValidate_AcceptsFirstSuccess(t *testing.T) {
	gen := &mockGenerator{responses: []string{validCode}}
	validator := NewValidator(gen, 3)

	result, err := validator.BuildAndValidate(context.Background(), "打个招呼", []string{"send_message"})
	if err != nil {
		t.Fatalf("会话执行失败: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("期望接受首次尝试，诊断: %s", result.Diagnostic)
	}
	if result.NodeCount() != 2 {
		t.Errorf("节点数量错误，期望: 2, 实际: %d", result.NodeCount())
	}
	if gen.generateCnt != 1 || gen.reviseCnt != 0 {
		t.Errorf("生成调用次数错误: generate=%d revise=%d", gen.generateCnt, gen.reviseCnt)
	}
}

func TestBuildAndValidate_ReviseAfterSyntaxFailure(t *testing.T) {
	gen := &mockGenerator{responses: []string{brokenSyntaxCode, validCode}}
	validator := NewValidator(gen, 3)

	result, err := validator.BuildAndValidate(context.Background(), "打个招呼", []string{"send_message"})
	if err != nil {
		t.Fatalf("会话执行失败: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("期望第二次尝试被接受，诊断: %s", result.Diagnostic)
	}

	// 第二次成功后不应发起第三次生成调用
	if gen.generateCnt != 1 || gen.reviseCnt != 1 {
		t.Errorf("生成调用次数错误: generate=%d revise=%d", gen.generateCnt, gen.reviseCnt)
	}
	// 修订请求必须携带上一版代码与诊断
	if gen.lastPrevCode != brokenSyntaxCode {
		t.Error("修订请求未携带上一版代码")
	}
	if gen.lastDiag == "" {
		t.Error("修订请求未携带诊断信息")
	}

	// 语法失败的尝试应短路，不做提取
	first := result.Attempts[0]
	if first.SyntaxOK {
		t.Error("首次尝试不应通过语法检查")
	}
	if first.Kind != parser.FailureSyntax {
		t.Errorf("首次失败类别错误: %s", first.Kind)
	}
}

func TestBuildAndValidate_ExhaustsAttempts(t *testing.T) {
	missingBuilder := `node = WorkflowNode("a")`
	gen := &mockGenerator{responses: []string{missingBuilder, missingBuilder, missingBuilder}}
	validator := NewValidator(gen, 3)

	result, err := validator.BuildAndValidate(context.Background(), "任务", nil)
	if err != nil {
		t.Fatalf("会话执行失败: %v", err)
	}
	if result.Accepted {
		t.Fatal("不应被接受")
	}
	if len(result.Attempts) != 3 {
		t.Errorf("尝试次数错误，期望: 3, 实际: %d", len(result.Attempts))
	}
	// 耗尽时返回最后一次失败的代码与诊断
	if result.Code != missingBuilder {
		t.Error("耗尽结果应携带最后一次失败的代码")
	}
	if result.Diagnostic == "" {
		t.Error("耗尽结果应携带最后一次失败的诊断")
	}
	if result.Attempts[2].Kind != parser.FailureMissingBuilder {
		t.Errorf("失败类别错误: %s", result.Attempts[2].Kind)
	}
}

func TestBuildAndValidate_ObserverCalledPerAttempt(t *testing.T) {
	gen := &mockGenerator{responses: []string{brokenSyntaxCode, validCode}}
	validator := NewValidator(gen, 3)

	observed := make([]int, 0)
	validator.SetObserver(func(attempt PlanAttempt) {
		observed = append(observed, attempt.Index)
	})

	if _, err := validator.BuildAndValidate(context.Background(), "任务", nil); err != nil {
		t.Fatalf("会话执行失败: %v", err)
	}
	if len(observed) != 2 || observed[0] != 1 || observed[1] != 2 {
		t.Errorf("观察回调序列错误: %v", observed)
	}
}

func TestGenerateQueryVariations(t *testing.T) {
	queries, err := GenerateQueryVariations("发送周报", 3)
	if err != nil {
		t.Fatalf("生成查询变体失败: %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("变体数量错误，期望: 3, 实际: %d", len(queries))
	}
	if queries[0] != "发送周报" {
		t.Errorf("首个变体应为原始任务: %s", queries[0])
	}

	if _, err := GenerateQueryVariations("", 3); err == nil {
		t.Error("空任务描述应报错")
	}
}

func TestStripCodeFence(t *testing.T) {
	fenced := "```python\ndag = WorkflowDAG()\n```"
	if got := stripCodeFence(fenced); got != "dag = WorkflowDAG()" {
		t.Errorf("围栏剥离错误: %q", got)
	}
	plain := "dag = WorkflowDAG()"
	if got := stripCodeFence(plain); got != plain {
		t.Errorf("无围栏文本不应被修改: %q", got)
	}
}
