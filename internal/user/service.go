// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/repository"
)

// Input はユーザーの作成・更新の入力。
type Input struct {
	Email       string
	Name        string
	Designation string
	Role        model.Role
}

// Service はユーザー管理のサービス層。
// 一覧・作成・更新・削除は管理者のみが実行できる。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// Me はログイン中のユーザー情報を返す。
func (s *Service) Me(ctx context.Context, viewer model.Viewer) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, viewer.UserID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ListUsers は全ユーザーを返す。
func (s *Service) ListUsers(ctx context.Context, viewer model.Viewer) ([]*model.User, error) {
	if !viewer.IsAdmin() {
		return nil, model.NewForbiddenError()
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// validate は入力値を正規化して検証する。ロール未指定は社員として扱う。
func validate(in Input) (Input, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Designation = strings.TrimSpace(in.Designation)
	if in.Role == "" {
		in.Role = model.RoleEmployee
	}

	if in.Name == "" {
		return in, model.NewInvalidRequestError("名前は必須です。")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, model.NewInvalidRequestError(fmt.Sprintf("メールアドレスが不正です: %q", in.Email))
	}
	if !in.Role.Valid() {
		return in, model.NewInvalidRequestError(fmt.Sprintf("ロールが不正です: %q", in.Role))
	}
	return in, nil
}

// CreateUser はユーザーを作成する。
func (s *Service) CreateUser(ctx context.Context, viewer model.Viewer, in Input) (*model.User, error) {
	if !viewer.IsAdmin() {
		return nil, model.NewForbiddenError()
	}
	in, err := validate(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:          uuid.New().String(),
		Email:       in.Email,
		Name:        in.Name,
		Designation: in.Designation,
		Role:        in.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// UpdateUser はユーザー情報を更新する。
func (s *Service) UpdateUser(ctx context.Context, viewer model.Viewer, id string, in Input) (*model.User, error) {
	if !viewer.IsAdmin() {
		return nil, model.NewForbiddenError()
	}
	in, err := validate(in)
	if err != nil {
		return nil, err
	}
	// 自分自身の管理者権限は外せない
	if id == viewer.UserID && in.Role != model.RoleAdmin {
		return nil, model.NewInvalidRequestError("自分自身の管理者権限は変更できません。")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	user.Email = in.Email
	user.Name = in.Name
	user.Designation = in.Designation
	user.Role = in.Role
	user.UpdatedAt = s.now()

	ok, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// DeleteUser はユーザーを削除する。
// 削除順序: sessions → user（+ CASCADE: work_records）
func (s *Service) DeleteUser(ctx context.Context, viewer model.Viewer, id string) error {
	if !viewer.IsAdmin() {
		return model.NewForbiddenError()
	}
	if id == viewer.UserID {
		return model.NewInvalidRequestError("自分自身は削除できません。")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザー削除を開始します",
		slog.String("user_id", id),
	)

	// 1. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, id); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 2. ユーザーを削除（work_recordsはCASCADE削除）
	ok, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザー削除が完了しました",
		slog.String("user_id", id),
	)
	return nil
}
