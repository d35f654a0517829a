package worklog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/hourman/internal/metrics"
	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
	"github.com/hitoshi/hourman/internal/repository"
	"github.com/hitoshi/hourman/internal/security"
)

// ProjectFinder はプロジェクトの存在確認に使うインターフェース。
type ProjectFinder interface {
	FindByID(ctx context.Context, id string) (*model.Project, error)
}

// ListResult はフィルタ適用済みの一覧と集計値。
type ListResult struct {
	Records      []model.WorkRecord
	TotalHours   float64
	TotalDisplay string
	Reference    time.Time
}

// RecordInput は作業記録の作成・更新の入力。
type RecordInput struct {
	UserID      string
	WorkType    model.WorkType
	TrackerName string
	Date        time.Time
	ProjectID   string
	Hours       float64
	Description string
}

// Service は作業記録の一覧・集計・編集を提供するサービス層。
// 社員は自分の記録だけを参照・編集でき、管理者は全員の記録を扱える。
type Service struct {
	repo      repository.WorkRecordRepository
	projects  ProjectFinder
	sanitizer security.ContentSanitizerService
	metrics   metrics.MetricsCollector
	location  *time.Location
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// locationは「今日」を決めるタイムゾーンで、nilの場合はUTC。
func NewService(
	repo repository.WorkRecordRepository,
	projects ProjectFinder,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.UTC
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		projects:  projects,
		sanitizer: sanitizer,
		metrics:   collector,
		location:  location,
		now:       time.Now,
	}
}

// Reference は日付範囲の基準日（設定タイムゾーンでの今日）を返す。
func (s *Service) Reference() time.Time {
	return model.TruncateDate(s.now().In(s.location))
}

// scope は閲覧者が参照できる記録の所有者IDを返す。管理者は空文字列（全員）。
func scope(viewer model.Viewer) string {
	if viewer.IsAdmin() {
		return ""
	}
	return viewer.UserID
}

// snapshot は閲覧者のスコープ内の全記録を取得する。
func (s *Service) snapshot(ctx context.Context, viewer model.Viewer) ([]model.WorkRecord, error) {
	start := time.Now()
	records, err := s.repo.List(ctx, scope(viewer))
	s.metrics.RecordQueryLatency(time.Since(start))
	if err != nil {
		slog.Error("作業記録の取得に失敗しました",
			slog.String("user_id", viewer.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewFetchFailedError("作業記録を読み込めませんでした")
	}
	return records, nil
}

// List はフィルタ済みの作業記録と合計時間を返す。
// 社員の場合はユーザーファセットを自分自身に固定する。
func (s *Service) List(ctx context.Context, viewer model.Viewer, state model.FilterState) (*ListResult, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() {
		state.UserID = viewer.UserID
	}

	records, err := s.snapshot(ctx, viewer)
	if err != nil {
		return nil, err
	}

	ref := s.Reference()
	filtered, err := Filter(records, state, ref)
	if err != nil {
		return nil, err
	}

	total := TotalHours(filtered)
	return &ListResult{
		Records:      filtered,
		TotalHours:   total,
		TotalDisplay: FormatHHMM(total),
		Reference:    ref,
	}, nil
}

// Facets はフィルタ前の記録からファセット候補値を返す。queryで候補を絞り込む。
func (s *Service) Facets(ctx context.Context, viewer model.Viewer, field, query string) ([]string, error) {
	f, ok := ParseFacetField(field)
	if !ok {
		return nil, model.NewInvalidFilterError(field)
	}
	records, err := s.snapshot(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return NarrowOptions(DistinctValues(records, f), query), nil
}

// Dashboard は閲覧者のスコープ内の記録からダッシュボード統計を返す。
func (s *Service) Dashboard(ctx context.Context, viewer model.Viewer) (*DashboardStats, error) {
	records, err := s.snapshot(ctx, viewer)
	if err != nil {
		return nil, err
	}
	stats := Summarize(records, s.Reference())
	return &stats, nil
}

// ExportSource はエクスポート用に閲覧者のスコープ内の記録を分割取得するSourceを返す。
// 件数を報告するため、読み込みは総件数に達した時点で終わる。
func (s *Service) ExportSource(viewer model.Viewer) paginate.Source[model.WorkRecord] {
	userID := scope(viewer)
	return paginate.CountedSource[model.WorkRecord]{
		FetchFunc: func(ctx context.Context, offset, limit int) ([]model.WorkRecord, error) {
			records, err := s.repo.ListPage(ctx, userID, offset, limit)
			if err != nil {
				return nil, model.NewFetchFailedError("エクスポート対象を読み込めませんでした")
			}
			return records, nil
		},
		CountFunc: func(ctx context.Context) (int, error) {
			n, err := s.repo.Count(ctx, userID)
			if err != nil {
				return 0, model.NewFetchFailedError("エクスポート対象を読み込めませんでした")
			}
			return n, nil
		},
	}
}

// ExportState はエクスポート用にフィルタ状態を検証し、社員のスコープを適用して返す。
func (s *Service) ExportState(viewer model.Viewer, state model.FilterState) (model.FilterState, error) {
	if err := state.Validate(); err != nil {
		return state, err
	}
	if !viewer.IsAdmin() {
		state.UserID = viewer.UserID
	}
	return state, nil
}

// Get は作業記録を1件取得する。他人の記録は社員からは存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, viewer model.Viewer, id string) (*model.WorkRecord, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("作業記録の取得に失敗しました: %w", err)
	}
	if rec == nil || !canAccess(viewer, rec) {
		return nil, model.NewWorkRecordNotFoundError(id)
	}
	return rec, nil
}

func canAccess(viewer model.Viewer, rec *model.WorkRecord) bool {
	return viewer.IsAdmin() || rec.UserID == viewer.UserID
}

// Create は作業記録を作成する。
// 社員は自分の記録のみ作成でき、管理者は任意のユーザーの記録を作成できる。
func (s *Service) Create(ctx context.Context, viewer model.Viewer, in RecordInput) (*model.WorkRecord, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	owner := in.UserID
	if owner == "" || !viewer.IsAdmin() {
		owner = viewer.UserID
	}

	now := s.now()
	rec := &model.WorkRecord{
		ID:        uuid.New().String(),
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(rec, in)

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("作業記録の作成に失敗しました: %w", err)
	}

	slog.Info("作業記録を作成しました",
		slog.String("record_id", rec.ID),
		slog.String("user_id", owner),
	)
	return s.reload(ctx, rec)
}

// Update は作業記録を更新する。所有者は変更しない。
func (s *Service) Update(ctx context.Context, viewer model.Viewer, id string, in RecordInput) (*model.WorkRecord, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	s.apply(rec, in)
	rec.UpdatedAt = s.now()

	ok, err := s.repo.Update(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("作業記録の更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewWorkRecordNotFoundError(id)
	}
	return s.reload(ctx, rec)
}

// Delete は作業記録を削除する。
// 存在しないIDはWORK_RECORD_NOT_FOUND、バックエンドの失敗はFETCH_FAILEDを返す。
func (s *Service) Delete(ctx context.Context, viewer model.Viewer, id string) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.metrics.RecordDelete(metrics.DeleteResultFailed)
		return model.NewFetchFailedError("作業記録を削除できませんでした")
	}
	if rec == nil || !canAccess(viewer, rec) {
		s.metrics.RecordDelete(metrics.DeleteResultNotFound)
		return model.NewWorkRecordNotFoundError(id)
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		slog.Error("作業記録の削除に失敗しました",
			slog.String("record_id", id),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordDelete(metrics.DeleteResultFailed)
		return model.NewFetchFailedError("作業記録を削除できませんでした")
	}
	if !ok {
		s.metrics.RecordDelete(metrics.DeleteResultNotFound)
		return model.NewWorkRecordNotFoundError(id)
	}

	s.metrics.RecordDelete(metrics.DeleteResultSuccess)
	slog.Info("作業記録を削除しました",
		slog.String("record_id", id),
		slog.String("user_id", viewer.UserID),
	)
	return nil
}

// validate は入力値を検証する。プロジェクト指定時は存在を確認する。
func (s *Service) validate(ctx context.Context, in RecordInput) error {
	if !in.WorkType.Valid() {
		return model.NewInvalidRequestError(fmt.Sprintf("作業種別が不正です: %q", in.WorkType))
	}
	if in.Date.IsZero() {
		return model.NewInvalidRequestError("日付は必須です。")
	}
	if in.Hours < 0 {
		return model.NewInvalidRequestError("作業時間は0以上で指定してください。")
	}
	if in.ProjectID != "" {
		p, err := s.projects.FindByID(ctx, in.ProjectID)
		if err != nil {
			return fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
		}
		if p == nil {
			return model.NewProjectNotFoundError(in.ProjectID)
		}
	}
	return nil
}

// apply は入力値を記録に反映する。説明文はプレーンテキストにサニタイズする。
func (s *Service) apply(rec *model.WorkRecord, in RecordInput) {
	rec.WorkType = in.WorkType
	rec.TrackerName = in.TrackerName
	rec.Date = model.TruncateDate(in.Date)
	rec.ProjectID = in.ProjectID
	rec.Hours = in.Hours
	rec.Description = s.sanitizer.Sanitize(in.Description)
}

// reload は保存後の記録をJOIN済みの形で取り直す。取れない場合は保存した値を返す。
func (s *Service) reload(ctx context.Context, rec *model.WorkRecord) (*model.WorkRecord, error) {
	stored, err := s.repo.FindByID(ctx, rec.ID)
	if err != nil || stored == nil {
		return rec, nil
	}
	return stored, nil
}
