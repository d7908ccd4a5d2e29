package workflow

import "fmt"

// DuplicateNodeError 节点名称重复错误（对外导出）
type DuplicateNodeError struct {
	Name string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("Node with name '%s' already exists", e.Name)
}

// UnknownNodeError 边引用了未声明节点错误（对外导出）
type UnknownNodeError struct {
	Name string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("Both source and target must be added before connecting: unknown node '%s'", e.Name)
}

// CycleDetectedError 循环依赖错误（对外导出）
// Path为检测到的循环路径（可能为空）
type CycleDetectedError struct {
	Path []string
}

func (e *CycleDetectedError) Error() string {
	if len(e.Path) == 0 {
		return "Cycle detected in workflow"
	}
	return fmt.Sprintf("Cycle detected in workflow: %v", e.Path)
}
