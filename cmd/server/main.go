package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LENAX/plan-engine/internal/storage"
	"github.com/LENAX/plan-engine/pkg/api"
	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/core/engine"
	"github.com/LENAX/plan-engine/pkg/core/planner"
)

var (
	Version   = "0.3.1"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/engine.yaml", "引擎配置文件路径")
	host := flag.String("host", "", "监听地址（覆盖配置文件）")
	port := flag.Int("port", 0, "监听端口（覆盖配置文件）")
	flag.Parse()

	log.Printf("Plan Engine Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *host != "" {
		cfg.PlanEngine.HTTP.Host = *host
	}
	if *port > 0 {
		cfg.PlanEngine.HTTP.Port = *port
	}

	// 1. 初始化存储
	repo, err := storage.NewPlanRepository(cfg)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}

	// 2. 初始化LLM规划器
	llmCfg := cfg.PlanEngine.LLM
	generator, err := planner.NewLLMPlanner(planner.LLMPlannerConfig{
		Model:           llmCfg.Model,
		APIKeyEnv:       llmCfg.APIKeyEnv,
		BaseURL:         llmCfg.BaseURL,
		MaxOutputTokens: llmCfg.MaxOutputTokens,
		Temperature:     llmCfg.Temperature,
	})
	if err != nil {
		log.Fatalf("初始化LLM规划器失败: %v", err)
	}

	// 3. 构建并启动Engine
	eng, err := engine.NewEngine(cfg, generator, repo)
	if err != nil {
		log.Fatalf("创建Engine失败: %v", err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		log.Fatalf("启动Engine失败: %v", err)
	}

	// 4. 创建API服务器
	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = cfg.PlanEngine.HTTP.Host
	serverCfg.Port = cfg.PlanEngine.HTTP.Port
	serverCfg.Mode = cfg.PlanEngine.HTTP.Mode

	apiServer := api.NewAPIServer(eng, serverCfg, Version)

	// 5. 在goroutine中启动API服务器
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ Plan Engine Server started on %s", apiServer.Addr())

	// 6. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 7. 优雅关闭
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
}
