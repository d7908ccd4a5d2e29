// Package mysql 提供MySQL方言实现
package mysql

import (
	"fmt"
	"strings"

	"github.com/LENAX/plan-engine/pkg/storage"
)

// MySQLDialect MySQL方言实现（对外导出）
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名称
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// UpsertSQL 返回MySQL的UPSERT语句（使用ON DUPLICATE KEY UPDATE）
func (d *MySQLDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}

	updateParts := make([]string, len(updateColumns))
	for i, col := range updateColumns {
		updateParts[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
		strings.Join(updateParts, ", "),
	)
}

// CreateTableSQL 转换基准DDL为MySQL兼容格式
func (d *MySQLDialect) CreateTableSQL(schema string) string {
	result := schema

	// 替换自增与布尔表示
	result = strings.ReplaceAll(result, "AUTOINCREMENT", "AUTO_INCREMENT")

	// 添加引擎声明
	if !strings.Contains(result, "ENGINE=") && strings.Contains(result, "CREATE TABLE") {
		result = strings.TrimRight(strings.TrimSpace(result), ";") + " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"
	}

	return result
}

// ConfigureDB 返回MySQL配置SQL
func (d *MySQLDialect) ConfigureDB() []string {
	return []string{
		"SET SESSION sql_mode='STRICT_TRANS_TABLES,NO_ZERO_IN_DATE,NO_ZERO_DATE,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION';",
	}
}

// BooleanType 返回MySQL布尔类型
func (d *MySQLDialect) BooleanType() string {
	return "TINYINT(1)"
}

// BooleanDefault 返回MySQL布尔默认值字面量
func (d *MySQLDialect) BooleanDefault(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

// TextType 返回MySQL文本类型
func (d *MySQLDialect) TextType() string {
	return "TEXT"
}

// VarcharType 返回MySQL定长字符串类型
func (d *MySQLDialect) VarcharType(size int) string {
	return fmt.Sprintf("VARCHAR(%d)", size)
}

// KeyType 返回MySQL键列类型（TEXT不可作无长度键，按UUID宽度使用VARCHAR）
func (d *MySQLDialect) KeyType() string {
	return "VARCHAR(36)"
}

// TimestampType 返回MySQL时间戳类型
func (d *MySQLDialect) TimestampType() string {
	return "DATETIME"
}

// InlineIndexSQL 返回建表语句内的索引定义
// MySQL不支持CREATE INDEX IF NOT EXISTS，索引随建表语句内联创建
func (d *MySQLDialect) InlineIndexSQL(indexName string, columns []string) string {
	return fmt.Sprintf("INDEX %s (%s)", indexName, strings.Join(columns, ", "))
}

// CreateIndexSQL MySQL使用内联索引，返回空串
func (d *MySQLDialect) CreateIndexSQL(indexName, tableName string, columns []string) string {
	return ""
}

// 确保实现接口
var _ storage.Dialect = (*MySQLDialect)(nil)
