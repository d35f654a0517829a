package handler

import (
	"time"

	"github.com/hitoshi/hourman/internal/catalog"
	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
	"github.com/hitoshi/hourman/internal/user"
	"github.com/hitoshi/hourman/internal/worklog"
)

// --- レスポンス型 ---

// workRecordResponse は作業記録のAPIレスポンス。
// ユーザー列は管理者向けのレスポンスでのみ設定する。
type workRecordResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name,omitempty"`
	UserDesignation string    `json:"user_designation,omitempty"`
	WorkType        string    `json:"work_type"`
	WorkTypeLabel   string    `json:"work_type_label"`
	TrackerName     string    `json:"tracker_name"`
	Date            string    `json:"date"`
	ProjectID       string    `json:"project_id,omitempty"`
	ProjectName     string    `json:"project_name"`
	ClientName      string    `json:"client_name"`
	Hours           float64   `json:"hours"`
	HoursDisplay    string    `json:"hours_display"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// paginationResponse はページネーション方式ごとの表示情報。
type paginationResponse struct {
	Mode     paginate.Mode `json:"mode"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`

	CurrentPage int                 `json:"current_page,omitempty"`
	TotalPages  int                 `json:"total_pages,omitempty"`
	From        int                 `json:"from,omitempty"`
	To          int                 `json:"to,omitempty"`
	Links       []paginate.PageLink `json:"links,omitempty"`

	Loaded int `json:"loaded,omitempty"`

	StartIndex int     `json:"start_index,omitempty"`
	EndIndex   int     `json:"end_index,omitempty"`
	OffsetPx   float64 `json:"offset_px,omitempty"`
	HeightPx   float64 `json:"height_px,omitempty"`

	Cursor         string `json:"cursor,omitempty"`
	NextCursor     string `json:"next_cursor,omitempty"`
	PreviousCursor string `json:"previous_cursor,omitempty"`
	HasNext        bool   `json:"has_next"`
	HasPrevious    bool   `json:"has_previous"`
}

// workRecordListResponse は作業記録一覧のレスポンス。
// Totalと合計時間はページではなくフィルタ済みの全件に対する値。
type workRecordListResponse struct {
	Records       []workRecordResponse `json:"records"`
	Total         int                  `json:"total"`
	TotalHours    float64              `json:"total_hours"`
	TotalDisplay  string               `json:"total_display"`
	ReferenceDate string               `json:"reference_date"`
	Pagination    paginationResponse   `json:"pagination"`
}

type hoursByKeyResponse struct {
	Key   string  `json:"key"`
	Label string  `json:"label,omitempty"`
	Hours float64 `json:"hours"`
}

// dashboardResponse はダッシュボード統計のレスポンス。
type dashboardResponse struct {
	TodayHours  float64              `json:"today_hours"`
	WeekHours   float64              `json:"week_hours"`
	MonthHours  float64              `json:"month_hours"`
	TotalHours  float64              `json:"total_hours"`
	RecordCount int                  `json:"record_count"`
	ByWorkType  []hoursByKeyResponse `json:"by_work_type"`
	TopProjects []hoursByKeyResponse `json:"top_projects"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type projectResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	ClientName string    `json:"client_name"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Designation string     `json:"designation"`
	Role        model.Role `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
}

// --- 変換 ---

// toWorkRecordResponse はドメインの作業記録をレスポンス型に変換する。
func toWorkRecordResponse(rec model.WorkRecord, includeUser bool) workRecordResponse {
	resp := workRecordResponse{
		ID:            rec.ID,
		UserID:        rec.UserID,
		WorkType:      string(rec.WorkType),
		WorkTypeLabel: rec.WorkType.Label(),
		TrackerName:   rec.TrackerName,
		Date:          rec.DateString(),
		ProjectID:     rec.ProjectID,
		ProjectName:   rec.ProjectName,
		ClientName:    rec.ClientName,
		Hours:         rec.Hours,
		HoursDisplay:  worklog.FormatHHMM(rec.Hours),
		Description:   rec.Description,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if includeUser {
		resp.UserName = rec.UserName
		resp.UserDesignation = rec.UserDesignation
	}
	return resp
}

func toWorkRecordResponses(records []model.WorkRecord, includeUser bool) []workRecordResponse {
	out := make([]workRecordResponse, len(records))
	for i, rec := range records {
		out[i] = toWorkRecordResponse(rec, includeUser)
	}
	return out
}

// toPaginationResponse はページネーション結果からレコード以外の表示情報を取り出す。
func toPaginationResponse(view paginate.View[model.WorkRecord], pageSize int) paginationResponse {
	return paginationResponse{
		Mode:           view.Mode,
		PageSize:       pageSize,
		HasMore:        view.HasMore,
		CurrentPage:    view.CurrentPage,
		TotalPages:     view.TotalPages,
		From:           view.From,
		To:             view.To,
		Links:          view.Links,
		Loaded:         view.Loaded,
		StartIndex:     view.StartIndex,
		EndIndex:       view.EndIndex,
		OffsetPx:       view.OffsetPx,
		HeightPx:       view.HeightPx,
		Cursor:         view.Cursor,
		NextCursor:     view.NextCursor,
		PreviousCursor: view.PreviousCursor,
		HasNext:        view.HasNext,
		HasPrevious:    view.HasPrevious,
	}
}

func toDashboardResponse(stats *worklog.DashboardStats) dashboardResponse {
	resp := dashboardResponse{
		TodayHours:  stats.TodayHours,
		WeekHours:   stats.WeekHours,
		MonthHours:  stats.MonthHours,
		TotalHours:  stats.TotalHours,
		RecordCount: stats.RecordCount,
		ByWorkType:  make([]hoursByKeyResponse, 0, len(stats.ByWorkType)),
		TopProjects: make([]hoursByKeyResponse, 0, len(stats.TopProjects)),
	}
	for _, h := range stats.ByWorkType {
		resp.ByWorkType = append(resp.ByWorkType, hoursByKeyResponse{
			Key:   h.Key,
			Label: model.WorkType(h.Key).Label(),
			Hours: h.Hours,
		})
	}
	for _, h := range stats.TopProjects {
		resp.TopProjects = append(resp.TopProjects, hoursByKeyResponse{Key: h.Key, Hours: h.Hours})
	}
	return resp
}

func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:         p.ID,
		ClientID:   p.ClientID,
		ClientName: p.ClientName,
		Name:       p.Name,
		CreatedAt:  p.CreatedAt,
	}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Designation: u.Designation,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// --- compile-time interface checks ---

var _ WorkRecordServiceInterface = (*worklog.Service)(nil)
var _ CatalogServiceInterface = (*catalog.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
