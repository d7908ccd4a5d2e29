// Package postgres 提供PostgreSQL方言实现
package postgres

import (
	"fmt"
	"strings"

	"github.com/LENAX/plan-engine/pkg/storage"
)

// PostgresDialect PostgreSQL方言实现（对外导出）
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名称
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// UpsertSQL 返回PostgreSQL的UPSERT语句（使用ON CONFLICT DO UPDATE）
func (d *PostgresDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}

	updateParts := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updateParts[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
		conflictColumn,
		strings.Join(updateParts, ", "),
	)
}

// CreateTableSQL 转换基准DDL为PostgreSQL兼容格式
func (d *PostgresDialect) CreateTableSQL(schema string) string {
	result := schema
	result = strings.ReplaceAll(result, "DATETIME", "TIMESTAMP")
	result = strings.ReplaceAll(result, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
	return result
}

// ConfigureDB PostgreSQL无需额外连接配置
func (d *PostgresDialect) ConfigureDB() []string {
	return nil
}

// BooleanType 返回PostgreSQL布尔类型
func (d *PostgresDialect) BooleanType() string {
	return "BOOLEAN"
}

// BooleanDefault 返回PostgreSQL布尔默认值字面量
// BOOLEAN列不接受整数默认值，必须使用TRUE/FALSE
func (d *PostgresDialect) BooleanDefault(value bool) string {
	if value {
		return "TRUE"
	}
	return "FALSE"
}

// TextType 返回PostgreSQL文本类型
func (d *PostgresDialect) TextType() string {
	return "TEXT"
}

// VarcharType 返回PostgreSQL定长字符串类型
func (d *PostgresDialect) VarcharType(size int) string {
	return fmt.Sprintf("VARCHAR(%d)", size)
}

// KeyType 返回PostgreSQL键列类型
func (d *PostgresDialect) KeyType() string {
	return "TEXT"
}

// TimestampType 返回PostgreSQL时间戳类型
func (d *PostgresDialect) TimestampType() string {
	return "TIMESTAMP"
}

// InlineIndexSQL PostgreSQL使用独立建索引语句，返回空串
func (d *PostgresDialect) InlineIndexSQL(indexName string, columns []string) string {
	return ""
}

// CreateIndexSQL 返回PostgreSQL的幂等建索引语句
func (d *PostgresDialect) CreateIndexSQL(indexName, tableName string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", indexName, tableName, strings.Join(columns, ", "))
}

// 确保实现接口
var _ storage.Dialect = (*PostgresDialect)(nil)
