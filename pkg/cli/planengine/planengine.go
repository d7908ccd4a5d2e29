// Package planengine 提供规划引擎HTTP API的客户端
package planengine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LENAX/plan-engine/pkg/api/dto"
)

// PlanEngine HTTP API客户端
type PlanEngine struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建PlanEngine客户端
func New(baseURL string) *PlanEngine {
	return &PlanEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // 规划调用LLM耗时较长
		},
	}
}

// ========== Plan API ==========

// CreatePlan 提交任务描述，触发规划
func (p *PlanEngine) CreatePlan(query string) (*dto.PlanDetail, error) {
	req := dto.CreatePlanRequest{Query: query}
	var resp dto.APIResponse[dto.PlanDetail]
	if err := p.post("/api/v1/plans", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// CreatePlanBatch 批量规划变体
func (p *PlanEngine) CreatePlanBatch(query string, variations int) (*dto.ListResponse[dto.PlanDetail], error) {
	req := dto.CreatePlanRequest{Query: query, Variations: variations}
	var resp dto.APIResponse[dto.ListResponse[dto.PlanDetail]]
	if err := p.post("/api/v1/plans", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ListPlans 列出所有计划
func (p *PlanEngine) ListPlans() (*dto.ListResponse[dto.PlanSummary], error) {
	var resp dto.APIResponse[dto.ListResponse[dto.PlanSummary]]
	if err := p.get("/api/v1/plans", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetPlan 获取计划详情
func (p *PlanEngine) GetPlan(id string) (*dto.PlanDetail, error) {
	var resp dto.APIResponse[dto.PlanDetail]
	if err := p.get("/api/v1/plans/"+id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetAttempts 获取计划的尝试记录
func (p *PlanEngine) GetAttempts(id string) (*dto.ListResponse[dto.AttemptDetail], error) {
	var resp dto.APIResponse[dto.ListResponse[dto.AttemptDetail]]
	if err := p.get("/api/v1/plans/"+id+"/attempts", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetDOT 获取计划的DOT描述（原始文本）
func (p *PlanEngine) GetDOT(id string) (string, error) {
	resp, err := p.httpClient.Get(p.baseURL + "/api/v1/plans/" + id + "/dot")
	if err != nil {
		return "", fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiResp dto.APIResponse[any]
		if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Message != "" {
			return "", errors.New(apiResp.Message)
		}
		return "", fmt.Errorf("请求失败: HTTP %d", resp.StatusCode)
	}
	return string(body), nil
}

// ExecutePlan 执行计划
// parallel为true时同层节点并发执行
func (p *PlanEngine) ExecutePlan(id string, parallel bool) (*dto.ExecuteResponse, error) {
	path := "/api/v1/plans/" + id + "/execute"
	if parallel {
		path += "?parallel=true"
	}
	var resp dto.APIResponse[dto.ExecuteResponse]
	if err := p.post(path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetLevels 获取计划的分层执行顺序
func (p *PlanEngine) GetLevels(id string) (*dto.LevelsResponse, error) {
	var resp dto.APIResponse[dto.LevelsResponse]
	if err := p.get("/api/v1/plans/"+id+"/levels", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// SchedulePlan 更新计划的定时执行配置
func (p *PlanEngine) SchedulePlan(id, cronExpr string, enabled bool) error {
	req := dto.ScheduleRequest{CronExpr: cronExpr, Enabled: enabled}
	var resp dto.APIResponse[map[string]string]
	if err := p.post("/api/v1/plans/"+id+"/schedule", req, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return errors.New(resp.Message)
	}
	return nil
}

// DeletePlan 删除计划
func (p *PlanEngine) DeletePlan(id string) error {
	var resp dto.APIResponse[map[string]string]
	if err := p.delete("/api/v1/plans/"+id, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return errors.New(resp.Message)
	}
	return nil
}

// ========== Health API ==========

// Health 健康检查
func (p *PlanEngine) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := p.get("/health", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== HTTP Methods ==========

func (p *PlanEngine) get(path string, result interface{}) error {
	resp, err := p.httpClient.Get(p.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return p.parseResponse(resp, result)
}

func (p *PlanEngine) post(path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := p.httpClient.Post(p.baseURL+path, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return p.parseResponse(resp, result)
}

func (p *PlanEngine) delete(path string, result interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return p.parseResponse(resp, result)
}

func (p *PlanEngine) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}

	return nil
}
