package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hourman/internal/model"
)

// PostgresWorkRecordRepo はPostgreSQLを使用した作業記録リポジトリ。
type PostgresWorkRecordRepo struct {
	db *sql.DB
}

// NewPostgresWorkRecordRepo はPostgresWorkRecordRepoを生成する。
func NewPostgresWorkRecordRepo(db *sql.DB) *PostgresWorkRecordRepo {
	return &PostgresWorkRecordRepo{db: db}
}

// workRecordSelect はユーザー・プロジェクト・クライアントをJOINしたベースクエリ。
// プロジェクトが削除された記録はproject/clientが値なしになる。
const workRecordSelect = `
		SELECT w.id, w.user_id, w.work_type, w.tracker_name, w.work_date,
		       w.project_id, p.name, c.name, w.hours, w.description,
		       u.name, u.designation, u.role,
		       w.created_at, w.updated_at
		FROM work_records w
		INNER JOIN users u ON u.id = w.user_id
		LEFT JOIN projects p ON p.id = w.project_id
		LEFT JOIN clients c ON c.id = p.client_id`

// workRecordOrder は一覧の固定の並び順。
const workRecordOrder = ` ORDER BY w.work_date DESC, w.created_at DESC, w.id ASC`

// buildWorkRecordQuery は一覧取得のSQLと引数を組み立てる。
// userIDが空の場合は全ユーザー分、limitが0以下の場合はページングしない。
func buildWorkRecordQuery(userID string, offset, limit int) (string, []interface{}) {
	query := workRecordSelect
	var args []interface{}
	argIndex := 1

	if userID != "" {
		query += fmt.Sprintf(" WHERE w.user_id = $%d", argIndex)
		args = append(args, userID)
		argIndex++
	}

	query += workRecordOrder

	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, limit, offset)
	}
	return query, args
}

// buildWorkRecordCountQuery は件数SQLを組み立てる。
func buildWorkRecordCountQuery(userID string) (string, []interface{}) {
	if userID == "" {
		return "SELECT COUNT(*) FROM work_records", nil
	}
	return "SELECT COUNT(*) FROM work_records WHERE user_id = $1", []interface{}{userID}
}

// scanWorkRecord は1行分の作業記録を読み取る。
func scanWorkRecord(row interface{ Scan(...any) error }) (model.WorkRecord, error) {
	var rec model.WorkRecord
	var tracker, projectID, projectName, clientName, description, designation sql.NullString

	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.WorkType, &tracker, &rec.Date,
		&projectID, &projectName, &clientName, &rec.Hours, &description,
		&rec.UserName, &designation, &rec.UserRole,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return model.WorkRecord{}, err
	}

	rec.Date = model.TruncateDate(rec.Date)
	rec.TrackerName = nullStringValue(tracker)
	rec.ProjectID = nullStringValue(projectID)
	rec.ProjectName = nullStringValue(projectName)
	rec.ClientName = nullStringValue(clientName)
	rec.Description = nullStringValue(description)
	rec.UserDesignation = nullStringValue(designation)
	return rec, nil
}

// FindByID は指定IDの作業記録を取得する。見つからない場合はnilを返す。
func (r *PostgresWorkRecordRepo) FindByID(ctx context.Context, id string) (*model.WorkRecord, error) {
	rec, err := scanWorkRecord(r.db.QueryRowContext(ctx, workRecordSelect+` WHERE w.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("作業記録の取得に失敗しました: %w", err)
	}
	return &rec, nil
}

// List は作業記録の全件スナップショットを返す。
func (r *PostgresWorkRecordRepo) List(ctx context.Context, userID string) ([]model.WorkRecord, error) {
	query, args := buildWorkRecordQuery(userID, 0, 0)
	return r.query(ctx, query, args)
}

// ListPage はoffsetから最大limit件を返す。
func (r *PostgresWorkRecordRepo) ListPage(ctx context.Context, userID string, offset, limit int) ([]model.WorkRecord, error) {
	query, args := buildWorkRecordQuery(userID, offset, limit)
	return r.query(ctx, query, args)
}

// Count は作業記録の件数を返す。
func (r *PostgresWorkRecordRepo) Count(ctx context.Context, userID string) (int, error) {
	query, args := buildWorkRecordCountQuery(userID)
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("作業記録件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

func (r *PostgresWorkRecordRepo) query(ctx context.Context, query string, args []interface{}) ([]model.WorkRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("作業記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	records := make([]model.WorkRecord, 0)
	for rows.Next() {
		rec, err := scanWorkRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("作業記録行の読み取りに失敗しました: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("作業記録一覧の走査に失敗しました: %w", err)
	}
	return records, nil
}

// Create は作業記録を作成する。
func (r *PostgresWorkRecordRepo) Create(ctx context.Context, rec *model.WorkRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO work_records (id, user_id, work_type, tracker_name, work_date,
		                           project_id, hours, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.UserID, rec.WorkType, nullString(rec.TrackerName), rec.DateString(),
		nullString(rec.ProjectID), rec.Hours, nullString(rec.Description),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("作業記録の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は作業記録を上書き更新する。所有ユーザーは変更しない。
func (r *PostgresWorkRecordRepo) Update(ctx context.Context, rec *model.WorkRecord) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_records SET
		    work_type = $2, tracker_name = $3, work_date = $4,
		    project_id = $5, hours = $6, description = $7, updated_at = $8
		 WHERE id = $1`,
		rec.ID, rec.WorkType, nullString(rec.TrackerName), rec.DateString(),
		nullString(rec.ProjectID), rec.Hours, nullString(rec.Description), rec.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("作業記録の更新に失敗しました: %w", err)
	}
	return affected(result)
}

// Delete は作業記録を削除する。
func (r *PostgresWorkRecordRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM work_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("作業記録の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ WorkRecordRepository = (*PostgresWorkRecordRepo)(nil)
