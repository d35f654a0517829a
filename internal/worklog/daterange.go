// Package worklog は作業記録一覧のフィルタリング・集計と、その管理機能を提供する。
package worklog

import (
	"fmt"
	"time"

	"github.com/hitoshi/hourman/internal/model"
)

// DateRange は両端を含む暦日の範囲。
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains は日付が範囲内（両端含む）かどうかを返す。
func (r DateRange) Contains(d time.Time) bool {
	d = model.TruncateDate(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Resolve は名前付きトークンを基準日に対する具体的な日付範囲に変換する。
// 基準日を引数で受け取るため、壁時計に依存しない。
//
//   - today:  基準日のみ
//   - week:   基準日以前で直近の日曜日から基準日まで
//   - month:  基準日の月初から基準日まで
//   - custom: 呼び出し側が指定した範囲をそのまま返す
//
// all は解決対象外で、呼び出し側が事前に除外する。
func Resolve(token model.DateRangeToken, reference time.Time, customStart, customEnd *time.Time) (DateRange, error) {
	ref := model.TruncateDate(reference)

	switch token {
	case model.DateRangeToday:
		return DateRange{Start: ref, End: ref}, nil
	case model.DateRangeWeek:
		start := ref.AddDate(0, 0, -int(ref.Weekday()))
		return DateRange{Start: start, End: ref}, nil
	case model.DateRangeMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return DateRange{Start: start, End: ref}, nil
	case model.DateRangeCustom:
		if customStart == nil || customEnd == nil {
			return DateRange{}, model.NewInvalidRangeError("開始日と終了日の両方が必要です")
		}
		start := model.TruncateDate(*customStart)
		end := model.TruncateDate(*customEnd)
		if start.After(end) {
			return DateRange{}, model.NewInvalidRangeError("開始日が終了日より後になっています")
		}
		return DateRange{Start: start, End: end}, nil
	default:
		return DateRange{}, fmt.Errorf("date range token %q cannot be resolved", token)
	}
}
