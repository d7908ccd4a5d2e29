// Package config 提供引擎配置的加载、默认值填充与校验
package config

import (
	"time"
)

// EngineConfig 引擎框架配置（对外导出）
type EngineConfig struct {
	PlanEngine struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		LLM struct {
			Model           string        `yaml:"model"`
			APIKeyEnv       string        `yaml:"api_key_env"`
			BaseURL         string        `yaml:"base_url"`
			MaxOutputTokens int           `yaml:"max_output_tokens"`
			Temperature     float32       `yaml:"temperature"`
			RequestTimeout  time.Duration `yaml:"request_timeout"`
		} `yaml:"llm"`
		Planner struct {
			MaxAttempts int `yaml:"max_attempts"`
		} `yaml:"planner"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"`
				DSN             string        `yaml:"dsn"`
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
				ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
			} `yaml:"database"`
		} `yaml:"storage"`
		HTTP struct {
			Host string `yaml:"host"`
			Port int    `yaml:"port"`
			Mode string `yaml:"mode"` // debug/release
		} `yaml:"http"`
		Scheduler struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"scheduler"`
	} `yaml:"plan-engine"`
}

// GetDatabaseType 获取数据库类型
func (c *EngineConfig) GetDatabaseType() string {
	return c.PlanEngine.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *EngineConfig) GetDatabaseDSN() string {
	return c.PlanEngine.Storage.Database.DSN
}

// GetMaxAttempts 获取规划最大尝试次数
func (c *EngineConfig) GetMaxAttempts() int {
	attempts := c.PlanEngine.Planner.MaxAttempts
	if attempts <= 0 {
		return 3 // 默认值
	}
	return attempts
}

// ApplyDefaults 应用默认值
func (c *EngineConfig) ApplyDefaults() {
	// General默认值
	if c.PlanEngine.General.InstanceName == "" {
		c.PlanEngine.General.InstanceName = "plan-engine"
	}
	if c.PlanEngine.General.LogLevel == "" {
		c.PlanEngine.General.LogLevel = "info"
	}
	if c.PlanEngine.General.Env == "" {
		c.PlanEngine.General.Env = "dev"
	}

	// LLM默认值
	if c.PlanEngine.LLM.Model == "" {
		c.PlanEngine.LLM.Model = "gpt-4o-mini"
	}
	if c.PlanEngine.LLM.APIKeyEnv == "" {
		c.PlanEngine.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.PlanEngine.LLM.MaxOutputTokens <= 0 {
		c.PlanEngine.LLM.MaxOutputTokens = 800
	}
	if c.PlanEngine.LLM.RequestTimeout <= 0 {
		c.PlanEngine.LLM.RequestTimeout = 60 * time.Second
	}

	// Planner默认值
	if c.PlanEngine.Planner.MaxAttempts <= 0 {
		c.PlanEngine.Planner.MaxAttempts = 3
	}

	// Database默认值
	if c.PlanEngine.Storage.Database.Type == "" {
		c.PlanEngine.Storage.Database.Type = "sqlite"
	}
	if c.PlanEngine.Storage.Database.DSN == "" {
		c.PlanEngine.Storage.Database.DSN = "plan-engine.db"
	}
	if c.PlanEngine.Storage.Database.MaxOpenConns <= 0 {
		c.PlanEngine.Storage.Database.MaxOpenConns = 10
	}
	if c.PlanEngine.Storage.Database.MaxIdleConns <= 0 {
		c.PlanEngine.Storage.Database.MaxIdleConns = 5
	}
	if c.PlanEngine.Storage.Database.ConnMaxLifetime <= 0 {
		c.PlanEngine.Storage.Database.ConnMaxLifetime = 2 * time.Hour
	}
	if c.PlanEngine.Storage.Database.ConnMaxIdleTime <= 0 {
		c.PlanEngine.Storage.Database.ConnMaxIdleTime = 1 * time.Hour
	}

	// HTTP默认值
	if c.PlanEngine.HTTP.Host == "" {
		c.PlanEngine.HTTP.Host = "0.0.0.0"
	}
	if c.PlanEngine.HTTP.Port <= 0 {
		c.PlanEngine.HTTP.Port = 8080
	}
	if c.PlanEngine.HTTP.Mode == "" {
		c.PlanEngine.HTTP.Mode = "debug"
	}
}
