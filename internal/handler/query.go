package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
)

// PageConfig は一覧のページサイズ設定。
type PageConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// facetParam は未指定・空文字列を番兵値 all に正規化する。
func facetParam(q url.Values, key string) string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return model.FilterAll
	}
	return v
}

// parseFilterState はクエリ文字列からFilterStateを組み立てる。
// 日付の書式不正はINVALID_RANGE、未知の範囲トークンはINVALID_FILTERを返す。
func parseFilterState(q url.Values) (model.FilterState, error) {
	state := model.NewFilterState()

	if token := q.Get("range"); token != "" {
		state.DateRange = model.DateRangeToken(token)
	}
	start, err := parseDateParam(q, "start")
	if err != nil {
		return state, err
	}
	end, err := parseDateParam(q, "end")
	if err != nil {
		return state, err
	}
	state.CustomStart = start
	state.CustomEnd = end

	state.WorkType = facetParam(q, "work_type")
	state.Tracker = facetParam(q, "tracker")
	state.Project = facetParam(q, "project")
	state.Client = facetParam(q, "client")
	state.Designation = facetParam(q, "designation")
	state.UserID = facetParam(q, "user_id")
	state.Search = q.Get("search")

	if err := state.Validate(); err != nil {
		return state, err
	}
	return state, nil
}

func parseDateParam(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, model.NewInvalidRangeError(key + " の日付形式が不正です（YYYY-MM-DD）")
	}
	return &d, nil
}

// parsePagination はクエリ文字列からページネーション方式とパラメータを組み立てる。
// 数値として解釈できない値はINVALID_PAGINATION、不正なカーソルはINVALID_CURSORを返す。
// 範囲外の数値はエラーにせず、各戦略でクランプされる。
func parsePagination(q url.Values, cfg PageConfig) (paginate.Mode, paginate.Params, error) {
	mode, err := paginate.ParseMode(q.Get("mode"))
	if err != nil {
		return "", paginate.Params{}, model.NewInvalidPaginationError("mode=" + q.Get("mode"))
	}

	var params paginate.Params
	ints := []struct {
		key string
		dst *int
	}{
		{"page", &params.Page},
		{"page_size", &params.PageSize},
		{"loaded", &params.Loaded},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", paginate.Params{}, model.NewInvalidPaginationError(p.key + "=" + raw)
		}
		*p.dst = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"scroll_offset", &params.ScrollOffset},
		{"row_height", &params.RowHeight},
		{"viewport_height", &params.ViewportHeight},
	}
	for _, p := range floats {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", paginate.Params{}, model.NewInvalidPaginationError(p.key + "=" + raw)
		}
		*p.dst = v
	}

	if params.PageSize <= 0 {
		params.PageSize = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && params.PageSize > cfg.MaxPageSize {
		params.PageSize = cfg.MaxPageSize
	}

	params.Cursor = q.Get("cursor")
	if _, err := paginate.DecodeCursor(params.Cursor); err != nil {
		return "", paginate.Params{}, model.NewInvalidCursorError(params.Cursor)
	}

	return mode, params, nil
}
