package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/hourman/internal/metrics"
	"github.com/hitoshi/hourman/internal/middleware"
	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
	"github.com/hitoshi/hourman/internal/worklog"
)

// --- モック定義 ---

// stubSessions はセッションIDと所有者の対応を持つSessionFinder。
type stubSessions map[string]string

func (s stubSessions) FindByID(ctx context.Context, id string) (*model.Session, error) {
	userID, ok := s[id]
	if !ok {
		return nil, nil
	}
	return &model.Session{ID: id, UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// stubUsers はユーザーIDとロールの対応を持つUserFinder。
type stubUsers map[string]model.Role

func (u stubUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	role, ok := u[id]
	if !ok {
		return nil, nil
	}
	return &model.User{ID: id, Role: role}, nil
}

type stubHealthChecker struct {
	err error
}

func (s stubHealthChecker) PingContext(ctx context.Context) error {
	return s.err
}

const testCSRFToken = "csrf-test-token"

func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	base := &RouterDeps{
		SessionFinder: stubSessions{
			"employee-session": "user-123",
			"admin-session":    "admin-1",
		},
		UserFinder: stubUsers{
			"user-123": model.RoleEmployee,
			"admin-1":  model.RoleAdmin,
		},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		WorkRecordService: &mockWorkRecordService{},
		WorkRecordConfig:  WorkRecordHandlerConfig{Pages: PageConfig{DefaultPageSize: 10, MaxPageSize: 100}},
		CatalogService:    &mockCatalogService{},
		UserService:       &mockUserService{},
	}
	if deps != nil {
		if deps.WorkRecordService != nil {
			base.WorkRecordService = deps.WorkRecordService
		}
		if deps.CatalogService != nil {
			base.CatalogService = deps.CatalogService
		}
		if deps.UserService != nil {
			base.UserService = deps.UserService
		}
		base.HealthChecker = deps.HealthChecker
		base.Metrics = deps.Metrics
		base.Gatherer = deps.Gatherer
	}
	return NewRouter(base)
}

// authedRequest はセッションCookieとCSRFトークンを付与したリクエストを生成する。
func authedRequest(method, path, session string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if session != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: session})
	}
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	return req
}

// --- ルーティングテスト ---

func TestNewRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		checker    HealthChecker
		wantStatus int
	}{
		{"no checker", nil, http.StatusOK},
		{"database up", stubHealthChecker{}, http.StatusOK},
		{"database down", stubHealthChecker{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &RouterDeps{HealthChecker: tt.checker})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers should be applied to /health")
			}
		})
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	router := newTestRouter(t, &RouterDeps{Metrics: collector, Gatherer: reg})

	// ステータスを1件記録させる
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "hourman_http_status_total") {
		t.Error("metrics output should contain hourman_http_status_total")
	}
}

func TestNewRouter_CSRFTokenEndpointIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestNewRouter_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		session    string
		body       string
		wantStatus int
	}{
		{"no session", http.MethodGet, "/api/work-records", "", "", http.StatusUnauthorized},
		{"unknown session", http.MethodGet, "/api/work-records", "stale", "", http.StatusUnauthorized},
		{"employee lists records", http.MethodGet, "/api/work-records", "employee-session", "", http.StatusOK},
		{"employee facets", http.MethodGet, "/api/work-records/facets?field=client", "employee-session", "", http.StatusOK},
		{"employee export", http.MethodGet, "/api/work-records/export", "employee-session", "", http.StatusOK},
		{"employee dashboard", http.MethodGet, "/api/dashboard", "employee-session", "", http.StatusOK},
		{"employee record not found", http.MethodGet, "/api/work-records/rec-x", "employee-session", "", http.StatusNotFound},
		{"employee deletes record", http.MethodDelete, "/api/work-records/rec-1", "employee-session", "", http.StatusNoContent},
		{"employee lists clients", http.MethodGet, "/api/clients", "employee-session", "", http.StatusOK},
		{"employee lists projects", http.MethodGet, "/api/projects", "employee-session", "", http.StatusOK},
		{"employee creates client", http.MethodPost, "/api/clients", "employee-session", `{"name":"Acme"}`, http.StatusForbidden},
		{"employee deletes project", http.MethodDelete, "/api/projects/p1", "employee-session", "", http.StatusForbidden},
		{"admin creates client", http.MethodPost, "/api/clients", "admin-session", `{"name":"Acme"}`, http.StatusCreated},
		{"admin updates client", http.MethodPut, "/api/clients/c1", "admin-session", `{"name":"Acme"}`, http.StatusOK},
		{"admin creates project", http.MethodPost, "/api/projects", "admin-session", `{"client_id":"c1","name":"Alpha"}`, http.StatusCreated},
		{"admin deletes project", http.MethodDelete, "/api/projects/p1", "admin-session", "", http.StatusNoContent},
		{"employee me", http.MethodGet, "/api/users/me", "employee-session", "", http.StatusOK},
		{"employee lists users", http.MethodGet, "/api/users", "employee-session", "", http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/users", "admin-session", "", http.StatusOK},
		{"admin deletes user", http.MethodDelete, "/api/users/user-123", "admin-session", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, nil)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, authedRequest(tt.method, tt.path, tt.session, body))

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d (body=%s)", tt.method, tt.path, w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

// TestNewRouter_StateChangeRequiresCSRF は状態変更リクエストにCSRFトークンが必須であることを検証する。
func TestNewRouter_StateChangeRequiresCSRF(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/work-records/rec-1", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "employee-session"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestNewRouter_ExportRouteIsNotRecordID はexportが記録IDとして解釈されないことを検証する。
func TestNewRouter_ExportRouteIsNotRecordID(t *testing.T) {
	svc := &mockWorkRecordService{
		getFn: func(ctx context.Context, viewer model.Viewer, id string) (*model.WorkRecord, error) {
			t.Errorf("Get should not be called, id = %q", id)
			return nil, nil
		},
		exportSourceFn: func(viewer model.Viewer) paginate.Source[model.WorkRecord] {
			return paginate.SliceSource[model.WorkRecord](makeRecords(3))
		},
	}
	router := newTestRouter(t, &RouterDeps{WorkRecordService: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/work-records/export?format=csv", "employee-session", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "Content-Disposition" {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
}

// TestNewRouter_EmployeeScopeReachesService はセッションの閲覧者がサービスまで届くことを検証する。
func TestNewRouter_EmployeeScopeReachesService(t *testing.T) {
	var got model.Viewer
	svc := &mockWorkRecordService{
		listFn: func(ctx context.Context, viewer model.Viewer, state model.FilterState) (*worklog.ListResult, error) {
			got = viewer
			return listResult(nil), nil
		},
	}
	router := newTestRouter(t, &RouterDeps{WorkRecordService: svc})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/work-records", "admin-session", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.UserID != "admin-1" || got.Role != model.RoleAdmin {
		t.Errorf("viewer = %+v, want admin-1/admin", got)
	}
}
