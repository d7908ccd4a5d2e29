package parser

import (
	"errors"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

// FailureKind 解析失败类别（对外导出）
// 与诊断文本一起构成反馈给生成器和调用方的全部契约
type FailureKind string

const (
	FailureSyntax           FailureKind = "syntax_error"            // 源码不是合法的Python程序
	FailureMissingBuilder   FailureKind = "missing_builder"         // 未找到WorkflowDAG构造
	FailureUnrecognizedCall FailureKind = "unrecognized_call_shape" // add_node/add_edge调用形状不符合识别词汇表
	FailureNonLiteral       FailureKind = "non_literal_value"       // 必填字段不是字面量或可识别别名
	FailureDuplicateNode    FailureKind = "duplicate_node"          // 节点名称重复
	FailureUnknownNode      FailureKind = "unknown_node"            // 边引用了未声明的节点
	FailureCycle            FailureKind = "cycle_detected"          // 存在循环依赖
)

// ExtractError 提取失败错误（对外导出）
// Message为面向生成器的英文诊断（提示词契约的一部分）
type ExtractError struct {
	Kind    FailureKind
	Message string
	Err     error // 底层错误（可选）
}

func (e *ExtractError) Error() string {
	return e.Message
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// newExtractError 构造ExtractError
func newExtractError(kind FailureKind, message string) *ExtractError {
	return &ExtractError{Kind: kind, Message: message}
}

// KindOf 判定任意错误的失败类别（对外导出）
// 图模型自身的错误（重复节点/未知节点/循环）也映射到对应类别
func KindOf(err error) FailureKind {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Kind
	}

	var dupErr *workflow.DuplicateNodeError
	if errors.As(err, &dupErr) {
		return FailureDuplicateNode
	}
	var unknownErr *workflow.UnknownNodeError
	if errors.As(err, &unknownErr) {
		return FailureUnknownNode
	}
	var cycleErr *workflow.CycleDetectedError
	if errors.As(err, &cycleErr) {
		return FailureCycle
	}
	return FailureUnrecognizedCall
}
