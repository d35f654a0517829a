package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hourman/internal/export"
	"github.com/hitoshi/hourman/internal/metrics"
	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
	"github.com/hitoshi/hourman/internal/worklog"
)

// WorkRecordServiceInterface は作業記録ハンドラーが必要とするサービスインターフェース。
type WorkRecordServiceInterface interface {
	// List はフィルタ済みの作業記録と合計時間を返す。
	List(ctx context.Context, viewer model.Viewer, state model.FilterState) (*worklog.ListResult, error)
	// Facets はファセットの候補値を返す。
	Facets(ctx context.Context, viewer model.Viewer, field, query string) ([]string, error)
	Dashboard(ctx context.Context, viewer model.Viewer) (*worklog.DashboardStats, error)
	Get(ctx context.Context, viewer model.Viewer, id string) (*model.WorkRecord, error)
	Create(ctx context.Context, viewer model.Viewer, in worklog.RecordInput) (*model.WorkRecord, error)
	Update(ctx context.Context, viewer model.Viewer, id string, in worklog.RecordInput) (*model.WorkRecord, error)
	Delete(ctx context.Context, viewer model.Viewer, id string) error
	// ExportSource はエクスポート対象を分割取得するSourceを返す。
	ExportSource(viewer model.Viewer) paginate.Source[model.WorkRecord]
	// ExportState はフィルタ状態を検証し、閲覧者のスコープを適用する。
	ExportState(viewer model.Viewer, state model.FilterState) (model.FilterState, error)
	// Reference は日付範囲の基準日を返す。
	Reference() time.Time
}

// WorkRecordHandlerConfig は作業記録ハンドラーの設定。
type WorkRecordHandlerConfig struct {
	Pages           PageConfig
	ExportChunkSize int
	ExportTitle     string
}

// WorkRecordHandler は作業記録のHTTPハンドラー。
type WorkRecordHandler struct {
	service WorkRecordServiceInterface
	metrics metrics.MetricsCollector
	guard   *paginate.Guard
	cfg     WorkRecordHandlerConfig
}

// NewWorkRecordHandler はWorkRecordHandlerを生成する。
func NewWorkRecordHandler(service WorkRecordServiceInterface, collector metrics.MetricsCollector, cfg WorkRecordHandlerConfig) *WorkRecordHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	if cfg.Pages.DefaultPageSize <= 0 {
		cfg.Pages.DefaultPageSize = paginate.DefaultPageSize
	}
	return &WorkRecordHandler{
		service: service,
		metrics: collector,
		guard:   paginate.NewGuard(),
		cfg:     cfg,
	}
}

// workRecordRequest は作業記録の作成・更新リクエストのボディ。
// user_idは管理者が他のユーザーの記録を作成する場合のみ使われる。
type workRecordRequest struct {
	UserID      string  `json:"user_id"`
	WorkType    string  `json:"work_type"`
	TrackerName string  `json:"tracker_name"`
	Date        string  `json:"date"`
	ProjectID   string  `json:"project_id"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description"`
}

func (req workRecordRequest) toInput() (worklog.RecordInput, error) {
	in := worklog.RecordInput{
		UserID:      strings.TrimSpace(req.UserID),
		WorkType:    model.WorkType(req.WorkType),
		TrackerName: strings.TrimSpace(req.TrackerName),
		ProjectID:   strings.TrimSpace(req.ProjectID),
		Hours:       req.Hours,
		Description: req.Description,
	}
	if req.Date != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			return in, model.NewInvalidRequestError("日付の形式が不正です（YYYY-MM-DD）")
		}
		in.Date = d
	}
	return in, nil
}

type facetsResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// List はフィルタとページネーションを適用した作業記録一覧を返す。
// GET /api/work-records
func (h *WorkRecordHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	state, err := parseFilterState(q)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	mode, params, err := parsePagination(q, h.cfg.Pages)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 同じユーザーの追加読み込みは同時に1件まで
	if mode == paginate.ModeLoadMore {
		if !h.guard.TryAcquire(viewer.UserID) {
			handleServiceError(w, model.NewLoadInProgressError())
			return
		}
		defer h.guard.Release(viewer.UserID)
	}

	result, err := h.service.List(r.Context(), viewer, state)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	strategy, err := paginate.New[model.WorkRecord](mode)
	if err != nil {
		handleServiceError(w, model.NewInvalidPaginationError(string(mode)))
		return
	}
	view, err := strategy.Paginate(result.Records, params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordList(string(mode), len(view.Items))

	writeJSON(w, http.StatusOK, workRecordListResponse{
		Records:       toWorkRecordResponses(view.Items, viewer.IsAdmin()),
		Total:         view.Total,
		TotalHours:    result.TotalHours,
		TotalDisplay:  result.TotalDisplay,
		ReferenceDate: result.Reference.Format(model.DateLayout),
		Pagination:    toPaginationResponse(view, params.PageSize),
	})
}

// Facets はファセットの候補値を返す。
// GET /api/work-records/facets?field=&q=
func (h *WorkRecordHandler) Facets(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	field := r.URL.Query().Get("field")
	values, err := h.service.Facets(r.Context(), viewer, field, r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, facetsResponse{Field: field, Values: values})
}

// Dashboard はダッシュボード統計を返す。
// GET /api/dashboard
func (h *WorkRecordHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Dashboard(r.Context(), viewer)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(stats))
}

// Get は作業記録を1件返す。
// GET /api/work-records/{id}
func (h *WorkRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Get(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkRecordResponse(*rec, viewer.IsAdmin()))
}

// Create は作業記録を作成する。
// POST /api/work-records
func (h *WorkRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req workRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rec, err := h.service.Create(r.Context(), viewer, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkRecordResponse(*rec, viewer.IsAdmin()))
}

// Update は作業記録を更新する。
// PUT /api/work-records/{id}
func (h *WorkRecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req workRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	rec, err := h.service.Update(r.Context(), viewer, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkRecordResponse(*rec, viewer.IsAdmin()))
}

// Delete は作業記録を削除する。
// DELETE /api/work-records/{id}
func (h *WorkRecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), viewer, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export はフィルタ済みの作業記録をCSV/XLSX/PDFでダウンロードさせる。
// GET /api/work-records/export?format=
func (h *WorkRecordHandler) Export(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		handleServiceError(w, model.NewInvalidRequestError("format は csv, xlsx, pdf のいずれかを指定してください。"))
		return
	}
	state, err := parseFilterState(q)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	state, err = h.service.ExportState(viewer, state)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ref := h.service.Reference()
	out := &attachmentWriter{
		w:           w,
		contentType: format.ContentType(),
		filename:    format.Filename(ref),
	}
	rows, err := export.Write(r.Context(), out, format, h.service.ExportSource(viewer), export.Options{
		State:       state,
		Reference:   ref,
		IncludeUser: viewer.IsAdmin(),
		ChunkSize:   h.cfg.ExportChunkSize,
		Title:       h.cfg.ExportTitle,
	})
	if err != nil {
		if !out.started {
			handleServiceError(w, err)
			return
		}
		// ヘッダー送信後はステータスを変えられないため、ログに残して打ち切る
		slog.Error("エクスポートの書き出しに失敗しました",
			slog.String("user_id", viewer.UserID),
			slog.String("format", string(format)),
			slog.Int("rows", rows),
			slog.String("error", err.Error()),
		)
		return
	}
	out.start()

	h.metrics.RecordExport(string(format), rows)
}

// attachmentWriter は最初の書き込み時にダウンロード用ヘッダーを送るResponseWriterのラッパー。
// 書き込み前に失敗した場合はJSONのエラーレスポンスに切り替えられる。
type attachmentWriter struct {
	w           http.ResponseWriter
	contentType string
	filename    string
	started     bool
}

func (a *attachmentWriter) start() {
	if a.started {
		return
	}
	a.started = true
	a.w.Header().Set("Content-Type", a.contentType)
	a.w.Header().Set("Content-Disposition", `attachment; filename="`+a.filename+`"`)
	a.w.WriteHeader(http.StatusOK)
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	a.start()
	return a.w.Write(p)
}
