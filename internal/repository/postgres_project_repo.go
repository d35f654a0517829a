package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hourman/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectSelect = `
		SELECT p.id, p.client_id, c.name, p.name, p.created_at, p.updated_at
		FROM projects p
		INNER JOIN clients c ON c.id = p.client_id`

// FindByID は指定IDのプロジェクトをクライアント名付きで取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := r.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, id).Scan(
		&p.ID, &p.ClientID, &p.ClientName, &p.Name, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return p, nil
}

// List はプロジェクトをクライアント名・プロジェクト名順で返す。clientIDが空の場合は全件。
func (r *PostgresProjectRepo) List(ctx context.Context, clientID string) ([]*model.Project, error) {
	query := projectSelect
	var args []interface{}
	if clientID != "" {
		query += ` WHERE p.client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY c.name ASC, p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.ClientID, &p.ClientName, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("プロジェクト行の読み取りに失敗しました: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, client_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		project.ID, project.ClientID, project.Name, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はプロジェクトの所属クライアントと名前を更新する。
func (r *PostgresProjectRepo) Update(ctx context.Context, project *model.Project) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET client_id = $2, name = $3, updated_at = $4 WHERE id = $1`,
		project.ID, project.ClientID, project.Name, project.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	return affected(result)
}

// Delete はプロジェクトを削除する。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
