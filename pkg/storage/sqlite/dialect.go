// Package sqlite 提供SQLite方言实现
package sqlite

import (
	"fmt"
	"strings"

	"github.com/LENAX/plan-engine/pkg/storage"
)

// SQLiteDialect SQLite方言实现（对外导出）
type SQLiteDialect struct{}

// NewSQLiteDialect 创建SQLite方言实例
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// Name 返回方言名称
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// DriverName 返回驱动名称
func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// UpsertSQL 返回SQLite的UPSERT语句（使用INSERT OR REPLACE）
func (d *SQLiteDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}
	return fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
	)
}

// CreateTableSQL 基准DDL即为SQLite格式，原样返回
func (d *SQLiteDialect) CreateTableSQL(schema string) string {
	return schema
}

// ConfigureDB 返回SQLite优化配置
func (d *SQLiteDialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
}

// BooleanType 返回SQLite布尔类型
func (d *SQLiteDialect) BooleanType() string {
	return "INTEGER"
}

// BooleanDefault 返回SQLite布尔默认值字面量
func (d *SQLiteDialect) BooleanDefault(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

// TextType 返回SQLite文本类型
func (d *SQLiteDialect) TextType() string {
	return "TEXT"
}

// VarcharType SQLite不区分字符串长度，统一返回TEXT
func (d *SQLiteDialect) VarcharType(size int) string {
	return "TEXT"
}

// KeyType 返回SQLite键列类型
func (d *SQLiteDialect) KeyType() string {
	return "TEXT"
}

// TimestampType 返回SQLite时间戳类型
func (d *SQLiteDialect) TimestampType() string {
	return "DATETIME"
}

// InlineIndexSQL SQLite使用独立建索引语句，返回空串
func (d *SQLiteDialect) InlineIndexSQL(indexName string, columns []string) string {
	return ""
}

// CreateIndexSQL 返回SQLite的幂等建索引语句
func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName string, columns []string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", indexName, tableName, strings.Join(columns, ", "))
}

// 确保实现接口
var _ storage.Dialect = (*SQLiteDialect)(nil)
