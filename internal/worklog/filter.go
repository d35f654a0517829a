package worklog

import (
	"strings"
	"time"

	"github.com/hitoshi/hourman/internal/model"
)

// Matches は記録がフィルタ状態の全ファセットを満たすかどうかを判定する。
// 日付範囲が解決できない状態（不正なcustom範囲など）では常にfalseを返す。
// 副作用はなく、同じ入力に対して常に同じ結果を返す。
func Matches(record model.WorkRecord, state model.FilterState, reference time.Time) bool {
	if state.DateRange != "" && state.DateRange != model.DateRangeAll {
		rng, err := Resolve(state.DateRange, reference, state.CustomStart, state.CustomEnd)
		if err != nil {
			return false
		}
		if !rng.Contains(record.Date) {
			return false
		}
	}
	return matchesFacets(record, state)
}

// Filter はフィルタ状態を満たす記録のみを元の順序のまま返す。
// 入力スライスは変更しない。custom範囲が不正な場合はInvalidRangeエラーを返す。
func Filter(records []model.WorkRecord, state model.FilterState, reference time.Time) ([]model.WorkRecord, error) {
	var rng *DateRange
	if state.DateRange != "" && state.DateRange != model.DateRangeAll {
		r, err := Resolve(state.DateRange, reference, state.CustomStart, state.CustomEnd)
		if err != nil {
			return nil, err
		}
		rng = &r
	}

	result := make([]model.WorkRecord, 0, len(records))
	for _, rec := range records {
		if rng != nil && !rng.Contains(rec.Date) {
			continue
		}
		if !matchesFacets(rec, state) {
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// matchesFacets は日付以外のファセットをAND条件で評価する。
func matchesFacets(rec model.WorkRecord, state model.FilterState) bool {
	if !matchExact(string(rec.WorkType), state.WorkType) {
		return false
	}
	if !matchExact(rec.TrackerName, state.Tracker) {
		return false
	}
	if !matchExact(rec.ProjectName, state.Project) {
		return false
	}
	if !matchExact(rec.ClientName, state.Client) {
		return false
	}
	if !matchExact(rec.UserDesignation, state.Designation) {
		return false
	}
	if !matchExact(rec.UserID, state.UserID) {
		return false
	}
	return matchSearch(rec, state.Search)
}

// matchExact はファセット値の完全一致（大文字小文字を区別）を判定する。
// 未選択なら常に一致し、記録側が値なしなら具体的な選択値には一致しない。
func matchExact(value, selected string) bool {
	want, ok := model.Selected(selected)
	if !ok {
		return true
	}
	if value == "" {
		return false
	}
	return value == want
}

// matchSearch は自由文検索（大文字小文字を区別しない部分一致）を判定する。
func matchSearch(rec model.WorkRecord, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	for _, field := range []string{
		rec.Description,
		rec.ProjectName,
		rec.ClientName,
		rec.TrackerName,
		rec.UserName,
	} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
