package config

import (
	"fmt"
)

// ValidateEngineConfig 校验框架配置合法性
func ValidateEngineConfig(cfg *EngineConfig) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 校验General
	if cfg.PlanEngine.General.InstanceName == "" {
		return fmt.Errorf("instance_name不能为空")
	}
	if cfg.PlanEngine.General.LogLevel != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.PlanEngine.General.LogLevel] {
			return fmt.Errorf("log_level必须是debug/info/warn/error之一")
		}
	}

	// 校验LLM
	if cfg.PlanEngine.LLM.Model == "" {
		return fmt.Errorf("llm.model不能为空")
	}
	if cfg.PlanEngine.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens必须大于0")
	}
	if cfg.PlanEngine.LLM.Temperature < 0 || cfg.PlanEngine.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature必须在0到2之间")
	}

	// 校验Planner
	if cfg.PlanEngine.Planner.MaxAttempts <= 0 {
		return fmt.Errorf("planner.max_attempts必须大于0")
	}

	// 校验Storage.Database
	if cfg.PlanEngine.Storage.Database.Type == "" {
		return fmt.Errorf("database.type不能为空")
	}
	validDBTypes := map[string]bool{
		"sqlite":     true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[cfg.PlanEngine.Storage.Database.Type] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql之一")
	}
	if cfg.PlanEngine.Storage.Database.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if cfg.PlanEngine.Storage.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}
	if cfg.PlanEngine.Storage.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	// 校验HTTP
	if cfg.PlanEngine.HTTP.Port <= 0 || cfg.PlanEngine.HTTP.Port > 65535 {
		return fmt.Errorf("http.port必须在1到65535之间")
	}
	if cfg.PlanEngine.HTTP.Mode != "debug" && cfg.PlanEngine.HTTP.Mode != "release" && cfg.PlanEngine.HTTP.Mode != "test" {
		return fmt.Errorf("http.mode必须是debug/release/test之一")
	}

	return nil
}
