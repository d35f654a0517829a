package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hourman/internal/model"
)

// CatalogServiceInterface はクライアント・プロジェクト管理ハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	ListClients(ctx context.Context) ([]*model.Client, error)
	CreateClient(ctx context.Context, name string) (*model.Client, error)
	UpdateClient(ctx context.Context, id, name string) (*model.Client, error)
	DeleteClient(ctx context.Context, id string) error

	// ListProjects はプロジェクト一覧を返す。clientIDが空の場合は全件。
	ListProjects(ctx context.Context, clientID string) ([]*model.Project, error)
	CreateProject(ctx context.Context, clientID, name string) (*model.Project, error)
	// UpdateProject はプロジェクトを更新する。clientIDが空の場合は所属を変えない。
	UpdateProject(ctx context.Context, id, clientID, name string) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// CatalogHandler はクライアント・プロジェクト管理のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type clientRequest struct {
	Name string `json:"name"`
}

type projectRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ListClients はクライアント一覧を返す。
// GET /api/clients
func (h *CatalogHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateClient はクライアントを作成する。
// POST /api/clients
func (h *CatalogHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.service.CreateClient(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

// UpdateClient はクライアント名を変更する。
// PUT /api/clients/{id}
func (h *CatalogHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.service.UpdateClient(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

// DeleteClient はクライアントと配下のプロジェクトを削除する。
// DELETE /api/clients/{id}
func (h *CatalogHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjects はプロジェクト一覧を返す。client_idで絞り込める。
// GET /api/projects?client_id=
func (h *CatalogHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateProject はプロジェクトを作成する。
// POST /api/projects
func (h *CatalogHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.service.CreateProject(r.Context(), req.ClientID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// UpdateProject はプロジェクトを更新する。
// PUT /api/projects/{id}
func (h *CatalogHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), req.ClientID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// DeleteProject はプロジェクトを削除する。紐づく作業記録はプロジェクト未設定になる。
// DELETE /api/projects/{id}
func (h *CatalogHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
