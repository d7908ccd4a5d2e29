// Package dto 定义API请求与响应结构
package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// PlanSummary 计划摘要信息
type PlanSummary struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attempt_count"`
	NodeCount    int       `json:"node_count"`
	CronExpr     string    `json:"cron_expr,omitempty"`
	CronEnabled  bool      `json:"cron_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlanDetail 计划详细信息
type PlanDetail struct {
	PlanSummary
	Code       string `json:"code"`
	Diagnostic string `json:"diagnostic,omitempty"`
	DAGText    string `json:"dag_text,omitempty"`
}

// AttemptDetail 单次尝试详细信息
type AttemptDetail struct {
	AttemptIndex int    `json:"attempt_index"`
	Code         string `json:"code"`
	SyntaxOK     bool   `json:"syntax_ok"`
	Diagnostic   string `json:"diagnostic,omitempty"`
	FailureKind  string `json:"failure_kind,omitempty"`
}

// ExecuteResponse 执行响应
type ExecuteResponse struct {
	PlanID  string        `json:"plan_id"`
	Results []interface{} `json:"results"`
	Message string        `json:"message"`
}

// LevelsResponse 分层执行顺序响应
type LevelsResponse struct {
	PlanID string     `json:"plan_id"`
	Levels [][]string `json:"levels"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total   int  `json:"total"`
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}
