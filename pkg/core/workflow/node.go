package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// WorkflowNode 工作流节点（对外导出）
// 代表一个可执行的工作流步骤
type WorkflowNode struct {
	Name   string                 `json:"name"`   // 节点名称（图内唯一）
	Action string                 `json:"action"` // 动作标识（对应Step注册名，缺省时等于Name）
	Params map[string]interface{} `json:"params"` // 动作参数（仅字面量值）
}

// NewWorkflowNode 创建WorkflowNode实例（对外导出）
// params为nil时初始化为空映射
func NewWorkflowNode(name, action string, params map[string]interface{}) *WorkflowNode {
	if params == nil {
		params = make(map[string]interface{})
	}
	return &WorkflowNode{
		Name:   name,
		Action: action,
		Params: params,
	}
}

// ID 返回节点的唯一标识（即节点名），实现go-dag的Identifiable接口
func (n *WorkflowNode) ID() string {
	return n.Name
}

// Describe 生成节点的可读描述（对外导出）
// 形如 action(key1=value1, key2=value2)，参数按key排序保证输出稳定
func (n *WorkflowNode) Describe() string {
	keys := make([]string, 0, len(n.Params))
	for key := range n.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, FormatValue(n.Params[key])))
	}
	return fmt.Sprintf("%s(%s)", n.Action, strings.Join(parts, ", "))
}

// FormatValue 将字面量值格式化为稳定的文本形式（对外导出）
// 映射按key排序，嵌套结构递归处理，保证同一值的输出字节级一致
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return fmt.Sprintf("%q", val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, FormatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%q: %s", key, FormatValue(val[key])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
