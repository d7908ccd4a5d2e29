package sqlrepo

import (
	"strings"
	"testing"

	"github.com/LENAX/plan-engine/pkg/storage/mysql"
	"github.com/LENAX/plan-engine/pkg/storage/postgres"
	"github.com/LENAX/plan-engine/pkg/storage/sqlite"
)

// 渲染后的建表语句必须能在各目标数据库上直接执行，
// 这里按方言检查渲染产物中易错的键类型、布尔默认值与索引语法。

func TestSchemaStatementsMySQL(t *testing.T) {
	statements := schemaStatements(mysql.NewMySQLDialect())
	all := strings.Join(statements, "\n")

	// MySQL的TEXT列不能作无长度的键，键列必须渲染为VARCHAR
	if strings.Contains(all, "TEXT PRIMARY KEY") {
		t.Fatalf("MySQL键列不能使用TEXT: %s", all)
	}
	if !strings.Contains(all, "id VARCHAR(36) PRIMARY KEY") {
		t.Fatalf("MySQL主键应为VARCHAR(36): %s", all)
	}
	if !strings.Contains(all, "plan_id VARCHAR(36) NOT NULL") {
		t.Fatalf("MySQL复合主键列应为VARCHAR(36): %s", all)
	}

	// MySQL不支持CREATE INDEX IF NOT EXISTS，索引必须内联在建表语句里
	if strings.Contains(all, "CREATE INDEX IF NOT EXISTS") {
		t.Fatalf("MySQL不支持幂等的独立建索引语句: %s", all)
	}
	if !strings.Contains(all, "INDEX idx_plans_status (status)") {
		t.Fatalf("缺少内联状态索引: %s", all)
	}

	// 被索引的status列同样不能是TEXT
	if !strings.Contains(all, "status VARCHAR(20) NOT NULL") {
		t.Fatalf("MySQL索引列应为VARCHAR: %s", all)
	}

	for _, stmt := range statements {
		if strings.Contains(stmt, "CREATE TABLE") && !strings.Contains(stmt, "ENGINE=InnoDB") {
			t.Fatalf("建表语句缺少引擎声明: %s", stmt)
		}
	}
}

func TestSchemaStatementsPostgres(t *testing.T) {
	statements := schemaStatements(postgres.NewPostgresDialect())
	all := strings.Join(statements, "\n")

	// PostgreSQL的BOOLEAN列不接受整数默认值
	if strings.Contains(all, "BOOLEAN NOT NULL DEFAULT 0") {
		t.Fatalf("PostgreSQL布尔默认值不能为整数: %s", all)
	}
	if !strings.Contains(all, "cron_enabled BOOLEAN NOT NULL DEFAULT FALSE") {
		t.Fatalf("cron_enabled默认值应为FALSE: %s", all)
	}
	if !strings.Contains(all, "syntax_ok BOOLEAN NOT NULL DEFAULT FALSE") {
		t.Fatalf("syntax_ok默认值应为FALSE: %s", all)
	}

	if strings.Contains(all, "DATETIME") {
		t.Fatalf("PostgreSQL时间列应为TIMESTAMP: %s", all)
	}
	if !strings.Contains(all, "CREATE INDEX IF NOT EXISTS idx_plans_status ON plans (status);") {
		t.Fatalf("缺少独立建索引语句: %s", all)
	}
}

func TestSchemaStatementsSQLite(t *testing.T) {
	statements := schemaStatements(sqlite.NewSQLiteDialect())
	all := strings.Join(statements, "\n")

	if !strings.Contains(all, "id TEXT PRIMARY KEY") {
		t.Fatalf("SQLite主键应为TEXT: %s", all)
	}
	if !strings.Contains(all, "cron_enabled INTEGER NOT NULL DEFAULT 0") {
		t.Fatalf("SQLite布尔默认值应为0: %s", all)
	}
	if !strings.Contains(all, "CREATE INDEX IF NOT EXISTS idx_plans_status ON plans (status);") {
		t.Fatalf("缺少独立建索引语句: %s", all)
	}
}
