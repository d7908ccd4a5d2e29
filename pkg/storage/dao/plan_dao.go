// Package dao 定义存储层的数据访问对象
package dao

import (
	"time"
)

// PlanDAO 计划表的数据访问对象（内部使用）
type PlanDAO struct {
	ID           string    `db:"id"`
	Query        string    `db:"query"`
	Status       string    `db:"status"` // ACCEPTED/REJECTED
	Code         string    `db:"code"`
	Diagnostic   string    `db:"diagnostic"`
	AttemptCount int       `db:"attempt_count"`
	NodeCount    int       `db:"node_count"`
	DAGText      string    `db:"dag_text"`
	CronExpr     string    `db:"cron_expr"`
	CronEnabled  bool      `db:"cron_enabled"`
	CreateTime   time.Time `db:"create_time"`
	UpdateTime   time.Time `db:"update_time"`
}

// PlanAttemptDAO 尝试记录表的数据访问对象（内部使用）
type PlanAttemptDAO struct {
	PlanID       string    `db:"plan_id"`
	AttemptIndex int       `db:"attempt_index"`
	Code         string    `db:"code"`
	SyntaxOK     bool      `db:"syntax_ok"`
	Diagnostic   string    `db:"diagnostic"`
	FailureKind  string    `db:"failure_kind"`
	CreateTime   time.Time `db:"create_time"`
}
