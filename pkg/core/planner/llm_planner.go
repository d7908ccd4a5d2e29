package planner

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// LLMPlannerConfig LLM规划器配置（对外导出）
type LLMPlannerConfig struct {
	Model           string  // 模型名称，空值时使用gpt-4o-mini
	APIKey          string  // API密钥，空值时读取APIKeyEnv指定的环境变量
	APIKeyEnv       string  // API密钥环境变量名，默认OPENAI_API_KEY
	BaseURL         string  // 自定义API地址（可选，用于代理或本地推理服务）
	MaxOutputTokens int     // 最大输出token数，默认800
	Temperature     float32 // 采样温度
}

// ApplyDefaults 应用默认值
func (c *LLMPlannerConfig) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 800
	}
}

// LLMPlanner 基于OpenAI的工作流代码生成器（对外导出）
// 实现Generator接口
type LLMPlanner struct {
	client *openai.Client
	config LLMPlannerConfig
}

// NewLLMPlanner 创建LLMPlanner实例（对外导出）
func NewLLMPlanner(config LLMPlannerConfig) (*LLMPlanner, error) {
	config.ApplyDefaults()

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(config.APIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("未配置API密钥（环境变量%s为空）", config.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &LLMPlanner{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// GenerateWorkflow 生成候选工作流代码（实现Generator接口）
func (p *LLMPlanner) GenerateWorkflow(ctx context.Context, task string, stepNames []string) (string, error) {
	return p.complete(ctx, buildPrompt(task, stepNames))
}

// ReviseWorkflow 请求修订（实现Generator接口）
func (p *LLMPlanner) ReviseWorkflow(ctx context.Context, task string, stepNames []string, previousCode, diagnostic string) (string, error) {
	return p.complete(ctx, buildRevisionPrompt(task, stepNames, previousCode, diagnostic))
}

// complete 调用Chat Completion并提取返回文本
func (p *LLMPlanner) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.config.MaxOutputTokens,
		Temperature: p.config.Temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用OpenAI接口失败: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI未返回任何结果")
	}

	return stripCodeFence(resp.Choices[0].Message.Content), nil
}
