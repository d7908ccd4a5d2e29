package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/plan-engine/pkg/api/dto"
	"github.com/LENAX/plan-engine/pkg/core/engine"
	"github.com/LENAX/plan-engine/pkg/storage"
)

// PlanHandler 计划API处理器
type PlanHandler struct {
	engine *engine.Engine
}

// NewPlanHandler 创建PlanHandler
func NewPlanHandler(eng *engine.Engine) *PlanHandler {
	return &PlanHandler{engine: eng}
}

// Create 提交任务描述，触发规划验证循环
// POST /api/v1/plans
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	ctx := c.Request.Context()

	if req.Variations > 1 {
		plans, err := h.engine.PlanBatch(ctx, req.Query, req.Variations)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("批量规划失败: %v", err)))
			return
		}
		items := make([]dto.PlanDetail, 0, len(plans))
		for _, plan := range plans {
			items = append(items, toPlanDetail(plan))
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.PlanDetail]{
			Total: len(items),
			Items: items,
		}))
		return
	}

	plan, err := h.engine.PlanWorkflow(ctx, req.Query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("规划失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toPlanDetail(plan)))
}

// List 列出所有计划
// GET /api/v1/plans
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.engine.ListPlans(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询计划失败: %v", err)))
		return
	}

	items := make([]dto.PlanSummary, 0, len(plans))
	for _, plan := range plans {
		items = append(items, toPlanSummary(plan))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.PlanSummary]{
		Total:   len(items),
		Items:   items,
		HasMore: false,
	}))
}

// Get 获取计划详情
// GET /api/v1/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.engine.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询计划失败: %v", err)))
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "计划不存在"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toPlanDetail(plan)))
}

// Attempts 获取计划的全部尝试记录
// GET /api/v1/plans/:id/attempts
func (h *PlanHandler) Attempts(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	plan, err := h.engine.GetPlan(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询计划失败: %v", err)))
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "计划不存在"))
		return
	}

	attempts, err := h.engine.ListAttempts(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询尝试记录失败: %v", err)))
		return
	}

	items := make([]dto.AttemptDetail, 0, len(attempts))
	for _, attempt := range attempts {
		items = append(items, dto.AttemptDetail{
			AttemptIndex: attempt.AttemptIndex,
			Code:         attempt.Code,
			SyntaxOK:     attempt.SyntaxOK,
			Diagnostic:   attempt.Diagnostic,
			FailureKind:  attempt.FailureKind,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.AttemptDetail]{
		Total: len(items),
		Items: items,
	}))
}

// DOT 导出计划DAG的DOT描述
// GET /api/v1/plans/:id/dot
func (h *PlanHandler) DOT(c *gin.Context) {
	dot, err := h.engine.PlanDOT(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, dto.NewErrorResponse(code, err.Error()))
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(dot))
}

// Execute 执行已验收的计划
// POST /api/v1/plans/:id/execute
func (h *PlanHandler) Execute(c *gin.Context) {
	id := c.Param("id")

	// parallel=true时同层节点并发执行
	if c.Query("parallel") == "true" {
		workers, _ := strconv.Atoi(c.DefaultQuery("workers", "0"))
		nodeResults, err := h.engine.ExecutePlanParallel(c.Request.Context(), id, workers)
		if err != nil {
			status, code := statusFor(err)
			c.JSON(status, dto.NewErrorResponse(code, err.Error()))
			return
		}
		results := make([]interface{}, 0, len(nodeResults))
		for _, r := range nodeResults {
			results = append(results, r)
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ExecuteResponse{
			PlanID:  id,
			Results: results,
			Message: "并发执行完成",
		}))
		return
	}

	results, err := h.engine.ExecutePlan(c.Request.Context(), id)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, dto.NewErrorResponse(code, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ExecuteResponse{
		PlanID:  id,
		Results: results,
		Message: "执行完成",
	}))
}

// Levels 获取计划的分层并行执行顺序
// GET /api/v1/plans/:id/levels
func (h *PlanHandler) Levels(c *gin.Context) {
	id := c.Param("id")
	order, err := h.engine.ExecutionLevels(c.Request.Context(), id)
	if err != nil {
		status, code := statusFor(err)
		c.JSON(status, dto.NewErrorResponse(code, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.LevelsResponse{
		PlanID: id,
		Levels: order.Levels,
	}))
}

// Schedule 更新计划的定时执行配置
// POST /api/v1/plans/:id/schedule
func (h *PlanHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	if err := h.engine.SchedulePlan(c.Request.Context(), c.Param("id"), req.CronExpr, req.Enabled); err != nil {
		status, code := statusFor(err)
		c.JSON(status, dto.NewErrorResponse(code, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{"status": "updated"}))
}

// Delete 删除计划
// DELETE /api/v1/plans/:id
func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.engine.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("删除计划失败: %v", err)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{"status": "deleted"}))
}

func toPlanSummary(plan *storage.Plan) dto.PlanSummary {
	return dto.PlanSummary{
		ID:           plan.ID,
		Query:        plan.Query,
		Status:       plan.Status,
		AttemptCount: plan.AttemptCount,
		NodeCount:    plan.NodeCount,
		CronExpr:     plan.CronExpr,
		CronEnabled:  plan.CronEnabled,
		CreatedAt:    plan.CreateTime,
	}
}

func toPlanDetail(plan *storage.Plan) dto.PlanDetail {
	return dto.PlanDetail{
		PlanSummary: toPlanSummary(plan),
		Code:        plan.Code,
		Diagnostic:  plan.Diagnostic,
		DAGText:     plan.DAGText,
	}
}

// statusFor 将引擎错误映射为HTTP状态
func statusFor(err error) (int, int) {
	msg := err.Error()
	if strings.Contains(msg, "不存在") {
		return http.StatusNotFound, 404
	}
	if strings.Contains(msg, "未验收") {
		return http.StatusConflict, 409
	}
	return http.StatusInternalServerError, 500
}
