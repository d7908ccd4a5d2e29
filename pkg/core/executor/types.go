package executor

// NodeResult 单个节点的执行结果（对外导出）
type NodeResult struct {
	Node     string      `json:"node"`            // 节点名
	Action   string      `json:"action"`          // 步骤函数名
	Level    int         `json:"level"`           // 所在拓扑层级
	Value    interface{} `json:"value,omitempty"` // 步骤返回值
	Duration int64       `json:"duration_ms"`     // 执行时长（毫秒）
}
