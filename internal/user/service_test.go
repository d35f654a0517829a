package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/hourman/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	listFn       func(ctx context.Context) ([]*model.User, error)
	createFn     func(ctx context.Context, user *model.User) error
	updateFn     func(ctx context.Context, user *model.User) (bool, error)
	deleteByIDFn func(ctx context.Context, id string) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return true, nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return m.deleteByIDFn(ctx, id)
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return m.deleteByUserIDFn(ctx, userID)
}

var (
	admin    = model.Viewer{UserID: "admin-1", Role: model.RoleAdmin}
	employee = model.Viewer{UserID: "user-1", Role: model.RoleEmployee}
)

func existingUser(ctx context.Context, id string) (*model.User, error) {
	return &model.User{ID: id, Email: "test@example.com", Name: "Test", Role: model.RoleEmployee}, nil
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %s, want %s", apiErr.Code, code)
	}
}

// --- テスト ---

// TestService_Me はログイン中のユーザーを返すことを検証する。
func TestService_Me(t *testing.T) {
	svc := NewService(&mockUserRepo{findByIDFn: existingUser}, nil)

	user, err := svc.Me(context.Background(), employee)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", user.ID)
	}

	svc = NewService(&mockUserRepo{}, nil)
	_, err = svc.Me(context.Background(), employee)
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_AdminOnlyOperations は社員が管理操作を実行できないことを検証する。
func TestService_AdminOnlyOperations(t *testing.T) {
	svc := NewService(&mockUserRepo{findByIDFn: existingUser}, nil)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, employee)
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)

	_, err = svc.CreateUser(ctx, employee, Input{Email: "a@example.com", Name: "A"})
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)

	_, err = svc.UpdateUser(ctx, employee, "user-2", Input{Email: "a@example.com", Name: "A"})
	assertAPIErrorCode(t, err, model.ErrCodeForbidden)

	assertAPIErrorCode(t, svc.DeleteUser(ctx, employee, "user-2"), model.ErrCodeForbidden)
}

// TestService_CreateUser は既定ロールが社員になることを検証する。
func TestService_CreateUser(t *testing.T) {
	var created *model.User
	svc := NewService(&mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}, nil)

	user, err := svc.CreateUser(context.Background(), admin, Input{
		Email:       " new@example.com ",
		Name:        "New Hire",
		Designation: "Engineer",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if created == nil || created.ID != user.ID {
		t.Fatal("expected repository Create to be called with the new user")
	}
	if user.Role != model.RoleEmployee {
		t.Errorf("Role = %q, want employee", user.Role)
	}
	if user.Email != "new@example.com" {
		t.Errorf("Email = %q, want trimmed address", user.Email)
	}
}

// TestService_CreateUser_Validation は不正な入力を拒否することを検証する。
func TestService_CreateUser_Validation(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil)

	tests := []struct {
		name string
		in   Input
	}{
		{"missing name", Input{Email: "a@example.com"}},
		{"bad email", Input{Email: "not-an-email", Name: "A"}},
		{"bad role", Input{Email: "a@example.com", Name: "A", Role: "owner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), admin, tt.in)
			assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
		})
	}
}

// TestService_UpdateUser は更新と、自分自身の降格の禁止を検証する。
func TestService_UpdateUser(t *testing.T) {
	svc := NewService(&mockUserRepo{findByIDFn: existingUser}, nil)
	ctx := context.Background()

	user, err := svc.UpdateUser(ctx, admin, "user-2", Input{Email: "b@example.com", Name: "B", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if user.Role != model.RoleAdmin || user.Name != "B" {
		t.Errorf("user = %+v", user)
	}

	_, err = svc.UpdateUser(ctx, admin, "admin-1", Input{Email: "a@example.com", Name: "A", Role: model.RoleEmployee})
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)

	svc = NewService(&mockUserRepo{}, nil)
	_, err = svc.UpdateUser(ctx, admin, "missing", Input{Email: "b@example.com", Name: "B"})
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_DeleteUser はセッション削除後にユーザーを削除することを検証する。
func TestService_DeleteUser(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		findByIDFn: existingUser,
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			order = append(order, "user")
			return true, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo)

	if err := svc.DeleteUser(context.Background(), admin, "user-2"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "sessions" || order[1] != "user" {
		t.Errorf("delete order = %v, want [sessions user]", order)
	}
}

// TestService_DeleteUser_UserNotFound は存在しないユーザーの削除がエラーになることを検証する。
func TestService_DeleteUser_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil)

	err := svc.DeleteUser(context.Background(), admin, "nonexistent-user")
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_DeleteUser_Self は自分自身を削除できないことを検証する。
func TestService_DeleteUser_Self(t *testing.T) {
	svc := NewService(&mockUserRepo{findByIDFn: existingUser}, nil)

	err := svc.DeleteUser(context.Background(), admin, "admin-1")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

// TestService_DeleteUser_SessionError はセッション削除に失敗した場合にユーザーを削除しないことを検証する。
func TestService_DeleteUser_SessionError(t *testing.T) {
	userDeleted := false
	svc := NewService(&mockUserRepo{
		findByIDFn: existingUser,
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			userDeleted = true
			return true, nil
		},
	}, &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("db down")
		},
	})

	if err := svc.DeleteUser(context.Background(), admin, "user-2"); err == nil {
		t.Fatal("expected error, got nil")
	}
	if userDeleted {
		t.Error("user should not be deleted when session cleanup fails")
	}
}
