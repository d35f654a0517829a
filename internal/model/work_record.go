// Package model はドメインモデルを定義する。
package model

import "time"

// DateLayout は日付（時刻成分なし）のISO表記。
const DateLayout = "2006-01-02"

// FilterAll はファセット未選択を表す番兵値。
const FilterAll = "all"

// WorkType は作業種別を表す。
type WorkType string

const (
	WorkTypeTracker         WorkType = "tracker"
	WorkTypeManual          WorkType = "manual"
	WorkTypeTestTask        WorkType = "test_task"
	WorkTypeFixed           WorkType = "fixed"
	WorkTypeOfficeWork      WorkType = "office_work"
	WorkTypeOutsideOfUpwork WorkType = "outside_of_upwork"
)

// workTypeLabels は作業種別から表示ラベルへの固定マッピング。
var workTypeLabels = map[WorkType]string{
	WorkTypeTracker:         "Tracker",
	WorkTypeManual:          "Manual Time",
	WorkTypeTestTask:        "Test Task",
	WorkTypeFixed:           "Fixed Project",
	WorkTypeOfficeWork:      "Office Work",
	WorkTypeOutsideOfUpwork: "Outside of Upwork",
}

// WorkTypes は定義済みの作業種別を表示順で返す。
func WorkTypes() []WorkType {
	return []WorkType{
		WorkTypeTracker,
		WorkTypeManual,
		WorkTypeTestTask,
		WorkTypeFixed,
		WorkTypeOfficeWork,
		WorkTypeOutsideOfUpwork,
	}
}

// Valid は定義済みの作業種別かどうかを返す。
func (t WorkType) Valid() bool {
	_, ok := workTypeLabels[t]
	return ok
}

// Label は作業種別の表示ラベルを返す。未定義の値はそのまま返す。
func (t WorkType) Label() string {
	if label, ok := workTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// WorkRecord は1件の作業時間記録を表す。
// 任意項目は空文字列を「値なし」として扱う。値なしのファセットは具体的なフィルタ値に一致しない。
type WorkRecord struct {
	ID          string
	UserID      string
	WorkType    WorkType
	TrackerName string // 任意
	Date        time.Time
	ProjectID   string // 任意
	ProjectName string // 任意
	ClientName  string // 任意（プロジェクト経由で導出）
	Hours       float64
	Description string

	// 管理者向けの集計ビューでのみ設定される
	UserName        string
	UserDesignation string
	UserRole        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateString は記録日をISO形式で返す。
func (r WorkRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// ParseDate はISO形式の日付文字列をUTCの0時として解釈する。
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// TruncateDate は時刻成分を落とした暦日をUTCの0時で返す。
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
