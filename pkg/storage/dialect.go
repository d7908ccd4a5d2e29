package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回database/sql驱动名称
	DriverName() string

	// UpsertSQL 返回INSERT或UPDATE的SQL语句（命名参数形式）
	// tableName: 表名
	// columns: 列名列表
	// conflictColumn: 冲突判断列（通常是主键）
	// updateColumns: 需要更新的列（不含主键）
	UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string

	// CreateTableSQL 将基准DDL转换为方言兼容格式
	CreateTableSQL(schema string) string

	// ConfigureDB 返回建立连接后需要执行的SQL语句列表（如SQLite的PRAGMA）
	ConfigureDB() []string

	// BooleanType 返回布尔类型
	BooleanType() string

	// BooleanDefault 返回布尔默认值的字面量（如MySQL的0、PostgreSQL的FALSE）
	BooleanDefault(value bool) string

	// TextType 返回文本类型
	TextType() string

	// VarcharType 返回定长字符串列的类型
	// MySQL的TEXT列不能作为无长度的键或索引列，需使用VARCHAR
	VarcharType(size int) string

	// KeyType 返回ID键列的类型（UUID宽度）
	KeyType() string

	// TimestampType 返回时间戳类型
	TimestampType() string

	// InlineIndexSQL 返回建表语句内的索引定义
	// 不支持幂等独立建索引的方言（MySQL）在这里内联，其余返回空串
	InlineIndexSQL(indexName string, columns []string) string

	// CreateIndexSQL 返回独立的幂等建索引语句
	// 使用内联索引的方言返回空串
	CreateIndexSQL(indexName, tableName string, columns []string) string
}
