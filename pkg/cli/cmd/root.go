package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "plan-engine",
	Short: "Plan Engine CLI - 工作流规划引擎命令行工具",
	Long: `Plan Engine CLI 是一个用于管理LLM工作流规划的命令行工具。

支持的功能：
  - 从自然语言需求生成工作流计划（含自动语法检查与修订）
  - 查看计划、修订历史和DAG结构
  - 执行已验收的计划
  - 配置定时执行（cron）
  - 启动HTTP API服务

使用示例：
  # 从自然语言生成计划
  plan-engine plan create "明早九点把我的日程发给Bob"

  # 列出所有计划
  plan-engine plan list

  # 查看计划的DAG分层执行顺序
  plan-engine plan levels <plan-id>

  # 执行计划
  plan-engine plan execute <plan-id>

  # 启动HTTP服务
  plan-engine server start --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Plan Engine服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
