package cmd

import (
	"fmt"

	"github.com/LENAX/plan-engine/pkg/api/dto"
	"github.com/LENAX/plan-engine/pkg/cli/output"
	"github.com/LENAX/plan-engine/pkg/cli/planengine"
	"github.com/spf13/cobra"
)

var (
	planVariations  int
	planParallel    bool
	planCronExpr    string
	planCronEnable  bool
	planCronDisable bool
)

// planCmd plan子命令
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan管理命令",
	Long:  `管理工作流计划，包括生成、查看、执行、定时和删除。`,
}

// planCreateCmd 从自然语言生成计划
var planCreateCmd = &cobra.Command{
	Use:   "create <query>",
	Short: "从自然语言需求生成工作流计划",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)

		if planVariations > 1 {
			output.Info("正在生成 %d 个计划变体（调用LLM，请稍候）...", planVariations)
			result, err := client.CreatePlanBatch(args[0], planVariations)
			if err != nil {
				output.Error("生成失败: %v", err)
				return err
			}

			if outputJSON {
				return output.PrintJSON(result)
			}

			for _, plan := range result.Items {
				printPlanResult(&plan)
				fmt.Println()
			}
			output.Success("共生成 %d 个计划", result.Total)
			return nil
		}

		output.Info("正在生成计划（调用LLM，请稍候）...")
		plan, err := client.CreatePlan(args[0])
		if err != nil {
			output.Error("生成失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(plan)
		}

		printPlanResult(plan)
		return nil
	},
}

// planListCmd 列出计划
var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有计划",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		result, err := client.ListPlans()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无计划")
			return nil
		}

		table := output.NewTable([]string{"PLAN_ID", "QUERY", "STATUS", "ATTEMPTS", "NODES", "CRON", "CREATED"})
		for _, plan := range result.Items {
			cron := "-"
			if plan.CronExpr != "" {
				cron = plan.CronExpr
				if !plan.CronEnabled {
					cron += " (off)"
				}
			}
			table.AddRow([]string{
				plan.ID,
				truncate(plan.Query, 30),
				formatPlanStatus(plan.Status),
				fmt.Sprintf("%d", plan.AttemptCount),
				fmt.Sprintf("%d", plan.NodeCount),
				cron,
				plan.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		fmt.Printf("\n总计: %d 条记录\n", result.Total)
		return nil
	},
}

// planShowCmd 查看计划详情
var planShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看计划详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		plan, err := client.GetPlan(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(plan)
		}

		fmt.Printf("Plan:     %s\n", plan.ID)
		fmt.Printf("Query:    %s\n", plan.Query)
		fmt.Printf("Status:   %s\n", formatPlanStatus(plan.Status))
		fmt.Printf("Attempts: %d\n", plan.AttemptCount)
		fmt.Printf("Nodes:    %d\n", plan.NodeCount)
		if plan.CronExpr != "" {
			state := "enabled"
			if !plan.CronEnabled {
				state = "disabled"
			}
			fmt.Printf("Cron:     %s (%s)\n", plan.CronExpr, state)
		}
		fmt.Printf("Created:  %s\n", plan.CreatedAt.Format("2006-01-02 15:04:05"))
		if plan.Diagnostic != "" {
			fmt.Printf("\nDiagnostic:\n%s\n", plan.Diagnostic)
		}
		if plan.DAGText != "" {
			fmt.Printf("\nDAG:\n%s\n", plan.DAGText)
		}
		fmt.Printf("\nCode:\n%s\n", plan.Code)
		return nil
	},
}

// planAttemptsCmd 查看计划的修订历史
var planAttemptsCmd = &cobra.Command{
	Use:   "attempts <id>",
	Short: "查看计划的修订历史",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		result, err := client.GetAttempts(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无修订记录")
			return nil
		}

		for _, attempt := range result.Items {
			icon := "✅"
			if attempt.Diagnostic != "" {
				icon = "❌"
			}
			fmt.Printf("%s Attempt %d", icon, attempt.AttemptIndex)
			if attempt.FailureKind != "" {
				fmt.Printf("  [%s]", attempt.FailureKind)
			}
			fmt.Println()
			if attempt.Diagnostic != "" {
				fmt.Printf("   %s\n", truncate(attempt.Diagnostic, 100))
			}
		}
		return nil
	},
}

// planDotCmd 导出DAG的DOT描述
var planDotCmd = &cobra.Command{
	Use:   "dot <id>",
	Short: "导出计划DAG的Graphviz DOT描述",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		dot, err := client.GetDOT(args[0])
		if err != nil {
			output.Error("导出失败: %v", err)
			return err
		}
		fmt.Println(dot)
		return nil
	},
}

// planLevelsCmd 查看分层执行顺序
var planLevelsCmd = &cobra.Command{
	Use:   "levels <id>",
	Short: "查看计划DAG的分层执行顺序",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		result, err := client.GetLevels(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		for i, level := range result.Levels {
			fmt.Printf("Level %d:", i)
			for _, name := range level {
				fmt.Printf("  %s", name)
			}
			fmt.Println()
		}
		return nil
	},
}

// planExecuteCmd 执行计划
var planExecuteCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "执行已验收的计划",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		result, err := client.ExecutePlan(args[0], planParallel)
		if err != nil {
			output.Error("执行失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("计划已执行: %s", result.PlanID)
		for i, r := range result.Results {
			fmt.Printf("  [%d] %v\n", i, r)
		}
		return nil
	},
}

// planScheduleCmd 配置定时执行
var planScheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "配置计划的定时执行",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if planCronEnable && planCronDisable {
			return fmt.Errorf("--enable和--disable不能同时使用")
		}

		enabled := planCronEnable
		if !planCronEnable && !planCronDisable {
			// 指定了表达式默认开启
			enabled = planCronExpr != ""
		}

		client := planengine.New(serverURL)
		if err := client.SchedulePlan(args[0], planCronExpr, enabled); err != nil {
			output.Error("配置失败: %v", err)
			return err
		}

		if enabled {
			output.Success("定时执行已开启: %s (%s)", args[0], planCronExpr)
		} else {
			output.Success("定时执行已关闭: %s", args[0])
		}
		return nil
	},
}

// planDeleteCmd 删除计划
var planDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "删除计划",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := planengine.New(serverURL)
		if err := client.DeletePlan(args[0]); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}
		output.Success("计划已删除: %s", args[0])
		return nil
	},
}

func init() {
	// 添加flags
	planCreateCmd.Flags().IntVar(&planVariations, "variations", 1, "生成的计划变体数量 (1-10)")

	planExecuteCmd.Flags().BoolVar(&planParallel, "parallel", false, "同层节点并发执行")

	planScheduleCmd.Flags().StringVar(&planCronExpr, "cron", "", "cron表达式（6字段，含秒）")
	planScheduleCmd.Flags().BoolVar(&planCronEnable, "enable", false, "开启定时执行")
	planScheduleCmd.Flags().BoolVar(&planCronDisable, "disable", false, "关闭定时执行")

	// 添加子命令
	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planAttemptsCmd)
	planCmd.AddCommand(planDotCmd)
	planCmd.AddCommand(planLevelsCmd)
	planCmd.AddCommand(planExecuteCmd)
	planCmd.AddCommand(planScheduleCmd)
	planCmd.AddCommand(planDeleteCmd)
}

// printPlanResult 打印单个计划的生成结果
func printPlanResult(plan *dto.PlanDetail) {
	if plan.Status == "ACCEPTED" {
		output.Success("计划已验收: %s (经过%d次尝试，%d个节点)", plan.ID, plan.AttemptCount, plan.NodeCount)
	} else {
		output.Warning("计划未验收: %s (%d次尝试均失败)", plan.ID, plan.AttemptCount)
		if plan.Diagnostic != "" {
			fmt.Printf("最后诊断: %s\n", truncate(plan.Diagnostic, 200))
		}
	}
	if plan.DAGText != "" {
		fmt.Printf("\n%s\n", plan.DAGText)
	}
}

// formatPlanStatus 格式化状态显示
func formatPlanStatus(status string) string {
	switch status {
	case "ACCEPTED":
		return "✅ ACCEPTED"
	case "REJECTED":
		return "❌ REJECTED"
	default:
		return status
	}
}

// truncate 截断过长文本
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
