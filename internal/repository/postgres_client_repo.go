package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/hourman/internal/model"
)

// PostgresClientRepo はPostgreSQLを使用したクライアントリポジトリ。
type PostgresClientRepo struct {
	db *sql.DB
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB) *PostgresClientRepo {
	return &PostgresClientRepo{db: db}
}

// FindByID は指定IDのクライアントを取得する。見つからない場合はnilを返す。
func (r *PostgresClientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	client := &model.Client{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM clients WHERE id = $1`,
		id,
	).Scan(&client.ID, &client.Name, &client.CreatedAt, &client.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	return client, nil
}

// List は全クライアントを名前順で返す。
func (r *PostgresClientRepo) List(ctx context.Context) ([]*model.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM clients ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("クライアント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var clients []*model.Client
	for rows.Next() {
		client := &model.Client{}
		if err := rows.Scan(&client.ID, &client.Name, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, fmt.Errorf("クライアント行の読み取りに失敗しました: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クライアント一覧の走査に失敗しました: %w", err)
	}
	return clients, nil
}

// Create はクライアントを作成する。
func (r *PostgresClientRepo) Create(ctx context.Context, client *model.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		client.ID, client.Name, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("クライアントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はクライアント名を更新する。
func (r *PostgresClientRepo) Update(ctx context.Context, client *model.Client) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients SET name = $2, updated_at = $3 WHERE id = $1`,
		client.ID, client.Name, client.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("クライアントの更新に失敗しました: %w", err)
	}
	return affected(result)
}

// Delete はクライアントを削除する。配下のprojectsはCASCADE削除される。
func (r *PostgresClientRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("クライアントの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ ClientRepository = (*PostgresClientRepo)(nil)
