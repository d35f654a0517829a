// Package catalog はクライアントとプロジェクトのマスタ管理を提供する。
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/repository"
)

// Service はクライアント・プロジェクト管理のサービス層。
type Service struct {
	clients  repository.ClientRepository
	projects repository.ProjectRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clients repository.ClientRepository, projects repository.ProjectRepository) *Service {
	return &Service{
		clients:  clients,
		projects: projects,
		now:      time.Now,
	}
}

// normalizeName は前後の空白を除去し、空の場合はエラーを返す。
func normalizeName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewInvalidRequestError(kind + "名は必須です。")
	}
	return name, nil
}

// ListClients は全クライアントを返す。
func (s *Service) ListClients(ctx context.Context) ([]*model.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クライアント一覧の取得に失敗しました: %w", err)
	}
	return clients, nil
}

// clientNameTaken は同名のクライアントが既に存在するかを返す。exceptIDは比較から除外する。
func (s *Service) clientNameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return false, fmt.Errorf("クライアント一覧の取得に失敗しました: %w", err)
	}
	for _, c := range clients {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// CreateClient はクライアントを作成する。
func (s *Service) CreateClient(ctx context.Context, name string) (*model.Client, error) {
	name, err := normalizeName("クライアント", name)
	if err != nil {
		return nil, err
	}
	taken, err := s.clientNameTaken(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.NewDuplicateNameError("クライアント", name)
	}

	now := s.now()
	client := &model.Client{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("クライアントの作成に失敗しました: %w", err)
	}

	slog.Info("クライアントを作成しました",
		slog.String("client_id", client.ID),
		slog.String("name", client.Name),
	)
	return client, nil
}

// UpdateClient はクライアント名を変更する。
func (s *Service) UpdateClient(ctx context.Context, id, name string) (*model.Client, error) {
	name, err := normalizeName("クライアント", name)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	if client == nil {
		return nil, model.NewClientNotFoundError(id)
	}
	taken, err := s.clientNameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.NewDuplicateNameError("クライアント", name)
	}

	client.Name = name
	client.UpdatedAt = s.now()
	ok, err := s.clients.Update(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("クライアントの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewClientNotFoundError(id)
	}
	return client, nil
}

// DeleteClient はクライアントを削除する。配下のプロジェクトも削除される。
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	ok, err := s.clients.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("クライアントの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewClientNotFoundError(id)
	}
	slog.Info("クライアントを削除しました", slog.String("client_id", id))
	return nil
}

// ListProjects はプロジェクト一覧を返す。clientIDが空の場合は全件。
func (s *Service) ListProjects(ctx context.Context, clientID string) ([]*model.Project, error) {
	projects, err := s.projects.List(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// FindProject はプロジェクトを1件取得する。見つからない場合はnilを返す。
func (s *Service) FindProject(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.FindByID(ctx, id)
}

// requireClient はクライアントの存在を確認する。
func (s *Service) requireClient(ctx context.Context, clientID string) (*model.Client, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, model.NewInvalidRequestError("クライアントIDは必須です。")
	}
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	if client == nil {
		return nil, model.NewClientNotFoundError(clientID)
	}
	return client, nil
}

// projectNameTaken は同じクライアント配下に同名のプロジェクトが存在するかを返す。
func (s *Service) projectNameTaken(ctx context.Context, clientID, name, exceptID string) (bool, error) {
	projects, err := s.projects.List(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	for _, p := range projects {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// CreateProject はクライアント配下にプロジェクトを作成する。
func (s *Service) CreateProject(ctx context.Context, clientID, name string) (*model.Project, error) {
	name, err := normalizeName("プロジェクト", name)
	if err != nil {
		return nil, err
	}
	client, err := s.requireClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	taken, err := s.projectNameTaken(ctx, client.ID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.NewDuplicateNameError("プロジェクト", name)
	}

	now := s.now()
	project := &model.Project{
		ID:         uuid.New().String(),
		ClientID:   client.ID,
		ClientName: client.Name,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	slog.Info("プロジェクトを作成しました",
		slog.String("project_id", project.ID),
		slog.String("client_id", client.ID),
	)
	return project, nil
}

// UpdateProject はプロジェクトの所属クライアントと名前を変更する。
func (s *Service) UpdateProject(ctx context.Context, id, clientID, name string) (*model.Project, error) {
	name, err := normalizeName("プロジェクト", name)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(id)
	}
	if clientID == "" {
		clientID = project.ClientID
	}
	client, err := s.requireClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	taken, err := s.projectNameTaken(ctx, client.ID, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, model.NewDuplicateNameError("プロジェクト", name)
	}

	project.ClientID = client.ID
	project.ClientName = client.Name
	project.Name = name
	project.UpdatedAt = s.now()
	ok, err := s.projects.Update(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewProjectNotFoundError(id)
	}
	return project, nil
}

// DeleteProject はプロジェクトを削除する。紐づく作業記録はプロジェクトなしになる。
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	ok, err := s.projects.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewProjectNotFoundError(id)
	}
	slog.Info("プロジェクトを削除しました", slog.String("project_id", id))
	return nil
}
