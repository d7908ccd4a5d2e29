package planner

import (
	"fmt"
	"strings"
)

// systemPrompt 系统提示词（提示词为模型契约的一部分，保持英文）
const systemPrompt = `You are a workflow planner. Build Python code that wires activation
nodes into an executable DAG. Use the WorkflowDAG and nodes from the
workflow package. Always create named WorkflowNode instances and
connect them in execution order. Only use literal values for node
names, actions and params. Return Python code only, without any
explanation.`

// buildPrompt 构造首次生成的用户提示词
func buildPrompt(task string, stepNames []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task: %s\n", task))
	sb.WriteString("You can use the following activation nodes:\n")
	for _, name := range stepNames {
		sb.WriteString(fmt.Sprintf("- %s\n", name))
	}
	sb.WriteString("Return valid Python that builds a WorkflowDAG named `dag` and populates it.")
	return sb.String()
}

// buildRevisionPrompt 构造修订请求的用户提示词
// 携带上一版代码和原样的失败诊断
func buildRevisionPrompt(task string, stepNames []string, previousCode, diagnostic string) string {
	var sb strings.Builder
	sb.WriteString(buildPrompt(task, stepNames))
	sb.WriteString("\n\nThe previous attempt failed validation.\n")
	sb.WriteString("Previous code:\n```python\n")
	sb.WriteString(previousCode)
	sb.WriteString("\n```\n")
	sb.WriteString(fmt.Sprintf("Error: %s\n", diagnostic))
	sb.WriteString("Fix the code and return the corrected Python only.")
	return sb.String()
}

// stripCodeFence 剥离模型返回中的markdown代码围栏
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	// 去掉首行的```python和末行的```
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
