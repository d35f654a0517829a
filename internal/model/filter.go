package model

import "time"

// DateRangeToken は名前付きの日付範囲を表す。
type DateRangeToken string

const (
	DateRangeAll    DateRangeToken = "all"
	DateRangeToday  DateRangeToken = "today"
	DateRangeWeek   DateRangeToken = "week"
	DateRangeMonth  DateRangeToken = "month"
	DateRangeCustom DateRangeToken = "custom"
)

// Valid は定義済みのトークンかどうかを返す。
func (t DateRangeToken) Valid() bool {
	switch t {
	case DateRangeAll, DateRangeToday, DateRangeWeek, DateRangeMonth, DateRangeCustom:
		return true
	}
	return false
}

// FilterState は作業記録一覧のファセット選択状態。
// 各カテゴリファセットは FilterAll または具体的な値を持つ。
type FilterState struct {
	DateRange   DateRangeToken
	CustomStart *time.Time
	CustomEnd   *time.Time

	WorkType    string
	Tracker     string
	Project     string
	Client      string
	Designation string
	UserID      string

	// Search は説明・プロジェクト・クライアント・トラッカー・ユーザー名に対する
	// 大文字小文字を区別しない部分一致検索。空文字列は条件なし。
	Search string
}

// NewFilterState は全ファセットが未選択のFilterStateを返す。
func NewFilterState() FilterState {
	return FilterState{
		DateRange:   DateRangeAll,
		WorkType:    FilterAll,
		Tracker:     FilterAll,
		Project:     FilterAll,
		Client:      FilterAll,
		Designation: FilterAll,
		UserID:      FilterAll,
	}
}

// Clear はフィルタを初期状態に戻す。
func (s *FilterState) Clear() {
	*s = NewFilterState()
}

// Validate はカスタム日付範囲の不変条件を検証する。
// custom の場合は両端が必須で、開始日は終了日以前でなければならない。
func (s FilterState) Validate() error {
	if !s.DateRange.Valid() {
		return NewInvalidFilterError("range=" + string(s.DateRange))
	}
	if s.WorkType != FilterAll && !WorkType(s.WorkType).Valid() {
		return NewInvalidFilterError("work_type=" + s.WorkType)
	}
	if s.DateRange != DateRangeCustom {
		return nil
	}
	if s.CustomStart == nil || s.CustomEnd == nil {
		return NewInvalidRangeError("開始日と終了日の両方が必要です")
	}
	if s.CustomStart.After(*s.CustomEnd) {
		return NewInvalidRangeError("開始日が終了日より後になっています")
	}
	return nil
}

// facetValue は番兵値を考慮してファセットの選択値を返す。
// 未選択の場合は空文字列を返す。
func facetValue(v string) string {
	if v == "" || v == FilterAll {
		return ""
	}
	return v
}

// Selected はファセットに具体的な値が選択されている場合にその値を返す。
func Selected(v string) (string, bool) {
	fv := facetValue(v)
	return fv, fv != ""
}
