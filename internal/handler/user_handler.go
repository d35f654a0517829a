package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Me はログイン中のユーザー情報を返す。
	Me(ctx context.Context, viewer model.Viewer) (*model.User, error)
	ListUsers(ctx context.Context, viewer model.Viewer) ([]*model.User, error)
	CreateUser(ctx context.Context, viewer model.Viewer, in user.Input) (*model.User, error)
	UpdateUser(ctx context.Context, viewer model.Viewer, id string, in user.Input) (*model.User, error)
	// DeleteUser はユーザーを削除する。
	// sessionsを先に削除し、work_recordsはCASCADEで削除される。
	DeleteUser(ctx context.Context, viewer model.Viewer, id string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userRequest はユーザーの作成・更新リクエストのボディ。
type userRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Role        string `json:"role"`
}

func (req userRequest) toInput() user.Input {
	return user.Input{
		Email:       req.Email,
		Name:        req.Name,
		Designation: req.Designation,
		Role:        model.Role(req.Role),
	}
}

// Me はログイン中のユーザー情報を返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	u, err := h.service.Me(r.Context(), viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// List は全ユーザーを返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(r.Context(), viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はユーザーを作成する。
// POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.service.CreateUser(r.Context(), viewer, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// Update はユーザー情報を更新する。
// PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req userRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.service.UpdateUser(r.Context(), viewer, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Delete はユーザーを削除する。
// DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), viewer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
