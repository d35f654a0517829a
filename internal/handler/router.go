package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/hourman/internal/metrics"
	"github.com/hitoshi/hourman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// ヘルスチェック・メトリクス
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer

	// 作業記録
	WorkRecordService WorkRecordServiceInterface
	WorkRecordConfig  WorkRecordHandlerConfig

	// クライアント・プロジェクト
	CatalogService CatalogServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	  → (/api) Session → RateLimit(General) → CSRF
//
// /health, /metrics, /api/csrf-token はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))

	recordHandler := NewWorkRecordHandler(deps.WorkRecordService, collector, deps.WorkRecordConfig)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.Gatherer))
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.UserFinder))
		r.Use(rateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 作業記録
		r.Route("/api/work-records", func(r chi.Router) {
			r.Get("/", recordHandler.List)
			r.Post("/", recordHandler.Create)
			r.Get("/facets", recordHandler.Facets)

			// エクスポートは専用のレート制限を追加
			r.With(rateLimiter.ExportMiddleware()).Get("/export", recordHandler.Export)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recordHandler.Get)
				r.Put("/", recordHandler.Update)
				r.Delete("/", recordHandler.Delete)
			})
		})

		r.Get("/api/dashboard", recordHandler.Dashboard)

		// クライアント・プロジェクト（参照は全員、変更は管理者のみ）
		r.Route("/api/clients", func(r chi.Router) {
			r.Get("/", catalogHandler.ListClients)
			r.With(middleware.RequireAdmin).Post("/", catalogHandler.CreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Put("/", catalogHandler.UpdateClient)
				r.Delete("/", catalogHandler.DeleteClient)
			})
		})
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", catalogHandler.ListProjects)
			r.With(middleware.RequireAdmin).Post("/", catalogHandler.CreateProject)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Put("/", catalogHandler.UpdateProject)
				r.Delete("/", catalogHandler.DeleteProject)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", userHandler.Me)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}
