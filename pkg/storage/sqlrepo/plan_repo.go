// Package sqlrepo 提供PlanRepository的sqlx实现
// 通过storage.Dialect抽象差异，同一份实现支撑SQLite/MySQL/PostgreSQL。
// 占位符差异交由sqlx的Rebind处理。
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/plan-engine/pkg/storage"
	"github.com/LENAX/plan-engine/pkg/storage/dao"
)

// 列定义，与dao.PlanDAO保持一致
var planColumns = []string{
	"id", "query", "status", "code", "diagnostic",
	"attempt_count", "node_count", "dag_text",
	"cron_expr", "cron_enabled", "create_time", "update_time",
}

var planUpdateColumns = []string{
	"query", "status", "code", "diagnostic",
	"attempt_count", "node_count", "dag_text",
	"cron_expr", "cron_enabled", "update_time",
}

// PlanRepo PlanRepository的sqlx实现（对外导出）
type PlanRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// NewPlanRepo 使用已有连接创建Repository实例（对外导出）
func NewPlanRepo(db *sqlx.DB, dialect storage.Dialect) (*PlanRepo, error) {
	repo := &PlanRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// NewPlanRepoFromDSN 通过DSN创建Repository实例（对外导出）
func NewPlanRepoFromDSN(dialect storage.Dialect, dsn string) (*PlanRepo, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}

	return NewPlanRepo(db, dialect)
}

// GetDB 获取底层数据库连接（对外导出）
func (r *PlanRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接
func (r *PlanRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// initSchema 初始化数据库表结构
func (r *PlanRepo) initSchema() error {
	for _, stmt := range schemaStatements(r.dialect) {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("执行DDL失败: %w", err)
		}
	}
	return nil
}

// schemaStatements 按方言渲染建表与建索引语句
// 键列、索引列与布尔默认值因方言而异，统一交由Dialect决定。
func schemaStatements(dialect storage.Dialect) []string {
	key := dialect.KeyType()
	text := dialect.TextType()
	boolean := dialect.BooleanType()
	boolFalse := dialect.BooleanDefault(false)
	timestamp := dialect.TimestampType()

	plansColumns := fmt.Sprintf(`
		id %[1]s PRIMARY KEY,
		query %[2]s NOT NULL,
		status %[4]s NOT NULL,
		code %[2]s,
		diagnostic %[2]s,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL DEFAULT 0,
		dag_text %[2]s,
		cron_expr %[5]s,
		cron_enabled %[3]s NOT NULL DEFAULT %[6]s,
		create_time %[7]s NOT NULL,
		update_time %[7]s NOT NULL`,
		key, text, boolean,
		dialect.VarcharType(20), dialect.VarcharType(100),
		boolFalse, timestamp)

	if inline := dialect.InlineIndexSQL("idx_plans_status", []string{"status"}); inline != "" {
		plansColumns += ",\n\t\t" + inline
	}
	createPlansSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS plans (%s\n\t);", plansColumns)

	createAttemptsSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS plan_attempts (
		plan_id %[1]s NOT NULL,
		attempt_index INTEGER NOT NULL,
		code %[2]s,
		syntax_ok %[3]s NOT NULL DEFAULT %[4]s,
		diagnostic %[2]s,
		failure_kind %[5]s,
		create_time %[6]s NOT NULL,
		PRIMARY KEY (plan_id, attempt_index)
	);`, key, text, boolean, boolFalse, dialect.VarcharType(50), timestamp)

	statements := []string{
		dialect.CreateTableSQL(createPlansSQL),
		dialect.CreateTableSQL(createAttemptsSQL),
	}
	if indexSQL := dialect.CreateIndexSQL("idx_plans_status", "plans", []string{"status"}); indexSQL != "" {
		statements = append(statements, indexSQL)
	}
	return statements
}

// SavePlan 保存计划及其全部尝试记录（事务，幂等）
func (r *PlanRepo) SavePlan(ctx context.Context, plan *storage.Plan, attempts []*storage.PlanAttempt) error {
	if plan == nil {
		return fmt.Errorf("计划不能为空")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	planDAO := toPlanDAO(plan)
	if planDAO.CreateTime.IsZero() {
		planDAO.CreateTime = now
	}
	planDAO.UpdateTime = now

	upsertSQL := r.dialect.UpsertSQL("plans", planColumns, "id", planUpdateColumns)
	if _, err := tx.NamedExecContext(ctx, upsertSQL, planDAO); err != nil {
		return fmt.Errorf("保存计划失败: %w", err)
	}

	// 全量替换尝试记录
	deleteSQL := r.db.Rebind(`DELETE FROM plan_attempts WHERE plan_id = ?`)
	if _, err := tx.ExecContext(ctx, deleteSQL, plan.ID); err != nil {
		return fmt.Errorf("删除旧尝试记录失败: %w", err)
	}

	insertSQL := `
	INSERT INTO plan_attempts (plan_id, attempt_index, code, syntax_ok, diagnostic, failure_kind, create_time)
	VALUES (:plan_id, :attempt_index, :code, :syntax_ok, :diagnostic, :failure_kind, :create_time)`
	for _, attempt := range attempts {
		attemptDAO := toAttemptDAO(plan.ID, attempt)
		if attemptDAO.CreateTime.IsZero() {
			attemptDAO.CreateTime = now
		}
		if _, err := tx.NamedExecContext(ctx, insertSQL, attemptDAO); err != nil {
			return fmt.Errorf("保存尝试记录失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// GetPlan 根据ID获取计划，不存在时返回 nil, nil
func (r *PlanRepo) GetPlan(ctx context.Context, id string) (*storage.Plan, error) {
	var planDAO dao.PlanDAO
	query := r.db.Rebind(`SELECT * FROM plans WHERE id = ?`)
	if err := r.db.GetContext(ctx, &planDAO, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询计划失败: %w", err)
	}
	return fromPlanDAO(&planDAO), nil
}

// ListPlans 按创建时间倒序列出所有计划
func (r *PlanRepo) ListPlans(ctx context.Context) ([]*storage.Plan, error) {
	var planDAOs []dao.PlanDAO
	query := `SELECT * FROM plans ORDER BY create_time DESC, id`
	if err := r.db.SelectContext(ctx, &planDAOs, query); err != nil {
		return nil, fmt.Errorf("查询计划列表失败: %w", err)
	}
	plans := make([]*storage.Plan, 0, len(planDAOs))
	for i := range planDAOs {
		plans = append(plans, fromPlanDAO(&planDAOs[i]))
	}
	return plans, nil
}

// ListAttempts 按尝试序号列出指定计划的全部尝试记录
func (r *PlanRepo) ListAttempts(ctx context.Context, planID string) ([]*storage.PlanAttempt, error) {
	var attemptDAOs []dao.PlanAttemptDAO
	query := r.db.Rebind(`SELECT * FROM plan_attempts WHERE plan_id = ? ORDER BY attempt_index`)
	if err := r.db.SelectContext(ctx, &attemptDAOs, query, planID); err != nil {
		return nil, fmt.Errorf("查询尝试记录失败: %w", err)
	}
	attempts := make([]*storage.PlanAttempt, 0, len(attemptDAOs))
	for i := range attemptDAOs {
		attempts = append(attempts, fromAttemptDAO(&attemptDAOs[i]))
	}
	return attempts, nil
}

// UpdateSchedule 更新计划的定时执行配置（幂等）
func (r *PlanRepo) UpdateSchedule(ctx context.Context, id string, cronExpr string, enabled bool) error {
	query := r.db.Rebind(`UPDATE plans SET cron_expr = ?, cron_enabled = ?, update_time = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, cronExpr, enabled, time.Now(), id); err != nil {
		return fmt.Errorf("更新定时配置失败: %w", err)
	}
	return nil
}

// DeletePlan 删除计划及其尝试记录（事务，幂等）
func (r *PlanRepo) DeletePlan(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	deleteAttemptsSQL := r.db.Rebind(`DELETE FROM plan_attempts WHERE plan_id = ?`)
	if _, err := tx.ExecContext(ctx, deleteAttemptsSQL, id); err != nil {
		return fmt.Errorf("删除尝试记录失败: %w", err)
	}
	deletePlanSQL := r.db.Rebind(`DELETE FROM plans WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, deletePlanSQL, id); err != nil {
		return fmt.Errorf("删除计划失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func toPlanDAO(plan *storage.Plan) *dao.PlanDAO {
	return &dao.PlanDAO{
		ID:           plan.ID,
		Query:        plan.Query,
		Status:       plan.Status,
		Code:         plan.Code,
		Diagnostic:   plan.Diagnostic,
		AttemptCount: plan.AttemptCount,
		NodeCount:    plan.NodeCount,
		DAGText:      plan.DAGText,
		CronExpr:     plan.CronExpr,
		CronEnabled:  plan.CronEnabled,
		CreateTime:   plan.CreateTime,
		UpdateTime:   plan.UpdateTime,
	}
}

func fromPlanDAO(planDAO *dao.PlanDAO) *storage.Plan {
	return &storage.Plan{
		ID:           planDAO.ID,
		Query:        planDAO.Query,
		Status:       planDAO.Status,
		Code:         planDAO.Code,
		Diagnostic:   planDAO.Diagnostic,
		AttemptCount: planDAO.AttemptCount,
		NodeCount:    planDAO.NodeCount,
		DAGText:      planDAO.DAGText,
		CronExpr:     planDAO.CronExpr,
		CronEnabled:  planDAO.CronEnabled,
		CreateTime:   planDAO.CreateTime,
		UpdateTime:   planDAO.UpdateTime,
	}
}

func toAttemptDAO(planID string, attempt *storage.PlanAttempt) *dao.PlanAttemptDAO {
	return &dao.PlanAttemptDAO{
		PlanID:       planID,
		AttemptIndex: attempt.AttemptIndex,
		Code:         attempt.Code,
		SyntaxOK:     attempt.SyntaxOK,
		Diagnostic:   attempt.Diagnostic,
		FailureKind:  attempt.FailureKind,
		CreateTime:   attempt.CreateTime,
	}
}

func fromAttemptDAO(attemptDAO *dao.PlanAttemptDAO) *storage.PlanAttempt {
	return &storage.PlanAttempt{
		PlanID:       attemptDAO.PlanID,
		AttemptIndex: attemptDAO.AttemptIndex,
		Code:         attemptDAO.Code,
		SyntaxOK:     attemptDAO.SyntaxOK,
		Diagnostic:   attemptDAO.Diagnostic,
		FailureKind:  attemptDAO.FailureKind,
		CreateTime:   attemptDAO.CreateTime,
	}
}

// 确保实现接口
var _ storage.PlanRepository = (*PlanRepo)(nil)
