package worklog

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/hourman/internal/model"
)

// TotalHours はフィルタ済み記録の作業時間の合計を返す。
// ページネーション状態には依存しない。
func TotalHours(records []model.WorkRecord) float64 {
	var total float64
	for _, rec := range records {
		total += rec.Hours
	}
	return total
}

// FormatHHMM は小数の時間を HH:MM 形式に変換する。
// 時間は切り捨て、端数×60を最も近い分に丸める。
func FormatHHMM(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	h := math.Floor(hours)
	m := math.Round((hours - h) * 60)
	if m >= 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", int64(h), int64(m))
}

// FormatHHMMSS は小数の時間を HH:MM:SS 形式に変換する。
func FormatHHMMSS(hours float64) string {
	if hours < 0 {
		hours = 0
	}
	secs := int64(math.Round(hours * 3600))
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// HoursByKey はキーごとの合計時間。
type HoursByKey struct {
	Key   string
	Hours float64
}

// DashboardStats はダッシュボードのサマリー統計。
type DashboardStats struct {
	TodayHours  float64
	WeekHours   float64
	MonthHours  float64
	TotalHours  float64
	RecordCount int
	ByWorkType  []HoursByKey
	TopProjects []HoursByKey
}

// topProjectsLimit はダッシュボードに表示するプロジェクト数の上限。
const topProjectsLimit = 5

// Summarize は記録集合からダッシュボード統計を計算する。
// 期間別の集計は基準日に対してResolveした範囲を使う。
func Summarize(records []model.WorkRecord, reference time.Time) DashboardStats {
	today, _ := Resolve(model.DateRangeToday, reference, nil, nil)
	week, _ := Resolve(model.DateRangeWeek, reference, nil, nil)
	month, _ := Resolve(model.DateRangeMonth, reference, nil, nil)

	stats := DashboardStats{RecordCount: len(records)}
	byType := make(map[string]float64)
	byProject := make(map[string]float64)

	for _, rec := range records {
		stats.TotalHours += rec.Hours
		if today.Contains(rec.Date) {
			stats.TodayHours += rec.Hours
		}
		if week.Contains(rec.Date) {
			stats.WeekHours += rec.Hours
		}
		if month.Contains(rec.Date) {
			stats.MonthHours += rec.Hours
		}
		byType[string(rec.WorkType)] += rec.Hours
		if rec.ProjectName != "" {
			byProject[rec.ProjectName] += rec.Hours
		}
	}

	for _, wt := range model.WorkTypes() {
		if h, ok := byType[string(wt)]; ok {
			stats.ByWorkType = append(stats.ByWorkType, HoursByKey{Key: string(wt), Hours: h})
		}
	}

	stats.TopProjects = sortedByHours(byProject)
	if len(stats.TopProjects) > topProjectsLimit {
		stats.TopProjects = stats.TopProjects[:topProjectsLimit]
	}
	return stats
}

// sortedByHours は合計時間の降順（同値はキー昇順）で並べる。
func sortedByHours(m map[string]float64) []HoursByKey {
	out := make([]HoursByKey, 0, len(m))
	for k, h := range m {
		out = append(out, HoursByKey{Key: k, Hours: h})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].Key < out[j].Key
	})
	return out
}
