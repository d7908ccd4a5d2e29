package config

import (
	"strings"
	"testing"
)

func validConfig() *EngineConfig {
	cfg := &EngineConfig{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidateEngineConfigValid(t *testing.T) {
	if err := ValidateEngineConfig(validConfig()); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}
}

func TestValidateEngineConfigNil(t *testing.T) {
	if err := ValidateEngineConfig(nil); err == nil {
		t.Fatalf("空配置应当报错")
	}
}

func TestValidateEngineConfigRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *EngineConfig)
		keyword string
	}{
		{
			name:    "非法log_level",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.General.LogLevel = "trace" },
			keyword: "log_level",
		},
		{
			name:    "非法数据库类型",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.Storage.Database.Type = "mongodb" },
			keyword: "database.type",
		},
		{
			name:    "空DSN",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.Storage.Database.DSN = "" },
			keyword: "database.dsn",
		},
		{
			name:    "温度越界",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.LLM.Temperature = 3.0 },
			keyword: "temperature",
		},
		{
			name:    "端口越界",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.HTTP.Port = 70000 },
			keyword: "http.port",
		},
		{
			name:    "非法HTTP模式",
			mutate:  func(cfg *EngineConfig) { cfg.PlanEngine.HTTP.Mode = "production" },
			keyword: "http.mode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := ValidateEngineConfig(cfg)
			if err == nil {
				t.Fatalf("应当报错")
			}
			if !strings.Contains(err.Error(), tc.keyword) {
				t.Fatalf("错误信息未包含 %s: %v", tc.keyword, err)
			}
		})
	}
}
