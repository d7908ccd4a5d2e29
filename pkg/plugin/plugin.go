// Package plugin 提供基于事件的告警插件机制
// 插件通过Dispatcher订阅规划与执行的失败事件，向外部渠道发送告警
package plugin

// Plugin 插件基础接口（对外导出）
type Plugin interface {
	// Name 插件名称（对外导出）
	Name() string
	// Init 初始化插件（对外导出）
	Init(params map[string]string) error
	// Execute 执行插件逻辑（对外导出）
	Execute(data interface{}) error
}

// NewEmailAlertPlugin 创建邮件告警插件（对外导出）
func NewEmailAlertPlugin() Plugin {
	return &EmailAlertPlugin{
		name: "email_alert",
	}
}
