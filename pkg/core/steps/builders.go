package steps

import (
	"fmt"
	"strings"
)

// Message 渠道消息负载（对外导出）
type Message struct {
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Channel   string `json:"channel"`
}

// Serialize 序列化为映射，便于日志记录和下游处理
func (m *Message) Serialize() map[string]string {
	return map[string]string{
		"recipient": m.Recipient,
		"body":      m.Body,
		"channel":   m.Channel,
	}
}

// SendMessage 构建短消息负载（对外导出）
// 参数：recipient（接收方）、body（内容）、channel（渠道，默认chat）
func SendMessage(params map[string]interface{}) (interface{}, error) {
	recipient, err := requireString(params, "recipient")
	if err != nil {
		return nil, err
	}
	body, err := requireString(params, "body")
	if err != nil {
		return nil, err
	}
	return &Message{
		Recipient: recipient,
		Body:      body,
		Channel:   optionalString(params, "channel", "chat"),
	}, nil
}

// SendEmail 构建邮件负载（对外导出）
// 参数：to（主送列表）、subject、body、cc/bcc/attachments（可选列表）
func SendEmail(params map[string]interface{}) (interface{}, error) {
	to := stringList(params, "to")
	if len(to) == 0 {
		return nil, fmt.Errorf("参数to不能为空")
	}
	subject, err := requireString(params, "subject")
	if err != nil {
		return nil, err
	}
	body, err := requireString(params, "body")
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"to":          to,
		"subject":     subject,
		"body":        body,
		"cc":          stringList(params, "cc"),
		"bcc":         stringList(params, "bcc"),
		"attachments": stringList(params, "attachments"),
	}, nil
}

// DraftEmail 根据要点起草邮件正文（对外导出）
// 参数：subject、to（列表）、key_points（要点列表）
func DraftEmail(params map[string]interface{}) (interface{}, error) {
	subject, err := requireString(params, "subject")
	if err != nil {
		return nil, err
	}
	to := stringList(params, "to")
	points := stringList(params, "key_points")

	bullets := make([]string, 0, len(points))
	for _, point := range points {
		bullets = append(bullets, fmt.Sprintf("- %s", point))
	}
	return fmt.Sprintf("Subject: %s\nTo: %s\n\nKey points:\n%s",
		subject, strings.Join(to, ", "), strings.Join(bullets, "\n")), nil
}

// MakeCall 构建电话呼叫指令（对外导出）
// 参数：number（或phone_number）、script（话术）
func MakeCall(params map[string]interface{}) (interface{}, error) {
	number := optionalString(params, "number", "")
	if number == "" {
		number = optionalString(params, "phone_number", "")
	}
	if number == "" {
		return nil, fmt.Errorf("参数number不能为空")
	}
	script, err := requireString(params, "script")
	if err != nil {
		return nil, err
	}
	return map[string]string{"number": number, "script": script}, nil
}

// GenerateSummary 生成轻量摘要（对外导出）
// 参数：text（原文，HTML内容会先剥离标签）、style（风格，默认concise）
func GenerateSummary(params map[string]interface{}) (interface{}, error) {
	text, err := requireString(params, "text")
	if err != nil {
		return nil, err
	}
	style := optionalString(params, "style", "concise")

	if looksLikeHTML(text) {
		plain, err := extractHTMLText(text)
		if err == nil {
			text = plain
		}
	}

	preview := strings.SplitN(strings.TrimSpace(text), "\n", 2)[0]
	if runes := []rune(preview); len(runes) > 160 {
		preview = string(runes[:160])
	}
	return fmt.Sprintf("[%s summary] %s...", style, preview), nil
}

// WebSearch 构建网页搜索请求（对外导出）
// 参数：query、top_k（默认3）
func WebSearch(params map[string]interface{}) (interface{}, error) {
	query, err := requireString(params, "query")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":  "web_search",
		"query": query,
		"top_k": optionalInt(params, "top_k", 3),
	}, nil
}

// DocSearch 构建文档搜索请求（对外导出）
// 参数：query、source（文档源）、top_k（默认3）
func DocSearch(params map[string]interface{}) (interface{}, error) {
	query, err := requireString(params, "query")
	if err != nil {
		return nil, err
	}
	source, err := requireString(params, "source")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":   "doc_search",
		"query":  query,
		"source": source,
		"top_k":  optionalInt(params, "top_k", 3),
	}, nil
}

// FetchCalendarEvents 构建日历查询请求（对外导出）
// 参数：date（日期）
func FetchCalendarEvents(params map[string]interface{}) (interface{}, error) {
	date, err := requireString(params, "date")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type": "calendar_lookup",
		"date": date,
	}, nil
}

// requireString 取必填字符串参数
func requireString(params map[string]interface{}, key string) (string, error) {
	value, ok := params[key]
	if !ok {
		return "", fmt.Errorf("缺少必填参数: %s", key)
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("参数%s必须是非空字符串", key)
	}
	return s, nil
}

// optionalString 取可选字符串参数
func optionalString(params map[string]interface{}, key, fallback string) string {
	if value, ok := params[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// optionalInt 取可选整数参数
func optionalInt(params map[string]interface{}, key string, fallback int) int {
	switch value := params[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	}
	return fallback
}

// stringList 取字符串列表参数，兼容单个字符串
func stringList(params map[string]interface{}, key string) []string {
	switch value := params[key].(type) {
	case string:
		return []string{value}
	case []interface{}:
		result := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case []string:
		return value
	}
	return []string{}
}
