// Package storage 根据配置装配具体的PlanRepository实现
package storage

import (
	"fmt"

	// 注册数据库驱动
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/plan-engine/pkg/config"
	"github.com/LENAX/plan-engine/pkg/storage"
	"github.com/LENAX/plan-engine/pkg/storage/mysql"
	"github.com/LENAX/plan-engine/pkg/storage/postgres"
	"github.com/LENAX/plan-engine/pkg/storage/sqlite"
	"github.com/LENAX/plan-engine/pkg/storage/sqlrepo"
)

// NewPlanRepository 根据配置创建PlanRepository实例（对外导出）
func NewPlanRepository(cfg *config.EngineConfig) (storage.PlanRepository, error) {
	dialect, err := dialectFor(cfg.GetDatabaseType())
	if err != nil {
		return nil, err
	}

	repo, err := sqlrepo.NewPlanRepoFromDSN(dialect, cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("创建%s存储失败: %w", dialect.Name(), err)
	}

	db := repo.GetDB()
	dbCfg := cfg.PlanEngine.Storage.Database
	db.SetMaxOpenConns(dbCfg.MaxOpenConns)
	db.SetMaxIdleConns(dbCfg.MaxIdleConns)
	db.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	return repo, nil
}

// dialectFor 根据数据库类型选择方言
func dialectFor(dbType string) (storage.Dialect, error) {
	switch dbType {
	case "sqlite":
		return sqlite.NewSQLiteDialect(), nil
	case "mysql":
		return mysql.NewMySQLDialect(), nil
	case "postgres", "postgresql":
		return postgres.NewPostgresDialect(), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}
