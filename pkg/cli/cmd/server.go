package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LENAX/plan-engine/internal/storage"
	"github.com/LENAX/plan-engine/pkg/api"
	"github.com/LENAX/plan-engine/pkg/cli/output"
	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/core/engine"
	"github.com/LENAX/plan-engine/pkg/core/planner"
	"github.com/spf13/cobra"
)

var (
	serverConfigPath string
	serverHost       string
	serverPort       int
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "HTTP服务管理命令",
}

// serverStartCmd 启动HTTP服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动Plan Engine HTTP服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServerConfig(serverConfigPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		// 命令行参数覆盖配置文件
		if serverHost != "" {
			cfg.PlanEngine.HTTP.Host = serverHost
		}
		if serverPort > 0 {
			cfg.PlanEngine.HTTP.Port = serverPort
		}

		return runServer(cfg)
	},
}

// loadServerConfig 按优先级查找配置文件
func loadServerConfig(path string) (*config.EngineConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	candidates := []string{
		"./configs/engine.yaml",
		"./engine.yaml",
		"/etc/plan-engine/engine.yaml",
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return config.Load(candidate)
		}
	}
	// 无配置文件时使用默认配置
	return config.Load("")
}

// runServer 构建并运行引擎与API服务器，阻塞到收到退出信号
func runServer(cfg *config.EngineConfig) error {
	repo, err := storage.NewPlanRepository(cfg)
	if err != nil {
		output.Error("初始化存储失败: %v", err)
		return err
	}

	llmCfg := cfg.PlanEngine.LLM
	generator, err := planner.NewLLMPlanner(planner.LLMPlannerConfig{
		Model:           llmCfg.Model,
		APIKeyEnv:       llmCfg.APIKeyEnv,
		BaseURL:         llmCfg.BaseURL,
		MaxOutputTokens: llmCfg.MaxOutputTokens,
		Temperature:     llmCfg.Temperature,
	})
	if err != nil {
		output.Error("初始化LLM规划器失败: %v", err)
		return err
	}

	eng, err := engine.NewEngine(cfg, generator, repo)
	if err != nil {
		output.Error("创建Engine失败: %v", err)
		return err
	}

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		output.Error("启动Engine失败: %v", err)
		return err
	}

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = cfg.PlanEngine.HTTP.Host
	serverCfg.Port = cfg.PlanEngine.HTTP.Port
	serverCfg.Mode = cfg.PlanEngine.HTTP.Mode

	apiServer := api.NewAPIServer(eng, serverCfg, Version)

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	output.Success("Plan Engine Server started on %s", apiServer.Addr())

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.WriteTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}

	eng.Stop()
	if err := repo.Close(); err != nil {
		log.Printf("关闭存储失败: %v", err)
	}
	log.Println("✅ 服务已停止")
	return nil
}

func init() {
	serverStartCmd.Flags().StringVarP(&serverConfigPath, "config", "c", "", "配置文件路径（默认按 ./configs/engine.yaml 等顺序查找）")
	serverStartCmd.Flags().StringVar(&serverHost, "host", "", "监听地址（覆盖配置文件）")
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "监听端口（覆盖配置文件）")

	serverCmd.AddCommand(serverStartCmd)
}
