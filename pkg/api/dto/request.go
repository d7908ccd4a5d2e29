package dto

// CreatePlanRequest 创建计划请求
type CreatePlanRequest struct {
	Query      string `json:"query" binding:"required"`
	Variations int    `json:"variations" binding:"omitempty,min=1,max=10"`
}

// ScheduleRequest 定时执行配置请求
type ScheduleRequest struct {
	CronExpr string `json:"cron_expr" binding:"omitempty"`
	Enabled  bool   `json:"enabled"`
}
