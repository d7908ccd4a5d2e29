package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

func TestSendMessage(t *testing.T) {
	result, err := SendMessage(map[string]interface{}{
		"recipient": "alice",
		"body":      "hi",
	})
	if err != nil {
		t.Fatalf("构建消息负载失败: %v", err)
	}

	msg, ok := result.(*Message)
	if !ok {
		t.Fatalf("返回类型错误: %T", result)
	}
	if msg.Channel != "chat" {
		t.Errorf("channel应默认为chat，实际: %s", msg.Channel)
	}
	if msg.Serialize()["recipient"] != "alice" {
		t.Errorf("序列化结果错误: %v", msg.Serialize())
	}
}

func TestSendMessage_MissingParams(t *testing.T) {
	if _, err := SendMessage(map[string]interface{}{"body": "hi"}); err == nil {
		t.Error("缺少recipient应报错")
	}
}

func TestSendEmail(t *testing.T) {
	result, err := SendEmail(map[string]interface{}{
		"to":      []interface{}{"a@example.com"},
		"subject": "周报",
		"body":    "本周进展",
		"cc":      []interface{}{"boss@example.com"},
	})
	if err != nil {
		t.Fatalf("构建邮件负载失败: %v", err)
	}

	payload := result.(map[string]interface{})
	to := payload["to"].([]string)
	if len(to) != 1 || to[0] != "a@example.com" {
		t.Errorf("to解析错误: %v", to)
	}
	if len(payload["attachments"].([]string)) != 0 {
		t.Errorf("attachments应为空列表")
	}
}

func TestDraftEmail(t *testing.T) {
	result, err := DraftEmail(map[string]interface{}{
		"subject":    "项目进展",
		"to":         []interface{}{"team@example.com"},
		"key_points": []interface{}{"完成解析器", "开始联调"},
	})
	if err != nil {
		t.Fatalf("起草邮件失败: %v", err)
	}

	body := result.(string)
	if !strings.Contains(body, "- 完成解析器") {
		t.Errorf("正文缺少要点: %s", body)
	}
	if !strings.HasPrefix(body, "Subject: 项目进展") {
		t.Errorf("正文格式错误: %s", body)
	}
}

func TestMakeCall_PhoneNumberAlias(t *testing.T) {
	result, err := MakeCall(map[string]interface{}{
		"phone_number": "13800000000",
		"script":       "您好",
	})
	if err != nil {
		t.Fatalf("构建呼叫指令失败: %v", err)
	}
	if result.(map[string]string)["number"] != "13800000000" {
		t.Errorf("phone_number别名未生效: %v", result)
	}
}

func TestGenerateSummary(t *testing.T) {
	result, err := GenerateSummary(map[string]interface{}{
		"text": "第一行内容\n第二行内容",
	})
	if err != nil {
		t.Fatalf("生成摘要失败: %v", err)
	}
	summary := result.(string)
	if !strings.HasPrefix(summary, "[concise summary] 第一行内容") {
		t.Errorf("摘要格式错误: %s", summary)
	}
}

func TestGenerateSummary_StripsHTML(t *testing.T) {
	result, err := GenerateSummary(map[string]interface{}{
		"text":  "<html><body><script>evil()</script><p>正文内容</p></body></html>",
		"style": "brief",
	})
	if err != nil {
		t.Fatalf("生成摘要失败: %v", err)
	}
	summary := result.(string)
	if strings.Contains(summary, "<p>") || strings.Contains(summary, "evil") {
		t.Errorf("HTML标签或脚本未剥离: %s", summary)
	}
	if !strings.Contains(summary, "正文内容") {
		t.Errorf("正文内容丢失: %s", summary)
	}
}

func TestWebSearch_DefaultTopK(t *testing.T) {
	result, err := WebSearch(map[string]interface{}{"query": "golang"})
	if err != nil {
		t.Fatalf("构建搜索请求失败: %v", err)
	}
	payload := result.(map[string]interface{})
	if payload["top_k"] != 3 {
		t.Errorf("top_k应默认为3，实际: %v", payload["top_k"])
	}
}

func TestRegistry_NamesSorted(t *testing.T) {
	registry := NewDefaultRegistry()
	names := registry.Names()
	if len(names) != 8 {
		t.Fatalf("内置步骤数量错误，期望: 8, 实际: %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("步骤名称未排序: %v", names)
		}
	}
}

func TestRunner_UnknownAction(t *testing.T) {
	registry := NewDefaultRegistry()
	runner := registry.NewRunner()

	node := workflow.NewWorkflowNode("x", "no_such_action", nil)
	if _, err := runner(context.Background(), node); err == nil {
		t.Error("未注册动作应报错")
	}
}

func TestRunner_DispatchesByAction(t *testing.T) {
	registry := NewDefaultRegistry()
	runner := registry.NewRunner()

	node := workflow.NewWorkflowNode("greet", "send_message", map[string]interface{}{
		"recipient": "bob",
		"body":      "hello",
	})
	result, err := runner(context.Background(), node)
	if err != nil {
		t.Fatalf("执行步骤失败: %v", err)
	}
	if result.(*Message).Recipient != "bob" {
		t.Errorf("负载内容错误: %+v", result)
	}
}
