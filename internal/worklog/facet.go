package worklog

import (
	"sort"
	"strings"

	"github.com/hitoshi/hourman/internal/model"
)

// FacetField はファセット候補値を抽出する対象フィールド。
type FacetField string

const (
	FacetTracker     FacetField = "tracker"
	FacetProject     FacetField = "project"
	FacetClient      FacetField = "client"
	FacetDesignation FacetField = "designation"
	FacetRole        FacetField = "role"
	FacetWorkType    FacetField = "work_type"
	FacetUser        FacetField = "user"
)

// ParseFacetField は文字列をFacetFieldに変換する。
func ParseFacetField(s string) (FacetField, bool) {
	f := FacetField(s)
	switch f {
	case FacetTracker, FacetProject, FacetClient, FacetDesignation, FacetRole, FacetWorkType, FacetUser:
		return f, true
	}
	return "", false
}

// value は記録から対象フィールドの値を取り出す。
func (f FacetField) value(rec model.WorkRecord) string {
	switch f {
	case FacetTracker:
		return rec.TrackerName
	case FacetProject:
		return rec.ProjectName
	case FacetClient:
		return rec.ClientName
	case FacetDesignation:
		return rec.UserDesignation
	case FacetRole:
		return rec.UserRole
	case FacetWorkType:
		return string(rec.WorkType)
	case FacetUser:
		return rec.UserID
	}
	return ""
}

// DistinctValues は記録集合から対象フィールドの空でない値を重複なく辞書順で返す。
// 選択肢はフィルタ前の全件から計算するため、他のファセット値へいつでも切り替えられる。
func DistinctValues(records []model.WorkRecord, field FacetField) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, rec := range records {
		v := field.value(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// NarrowOptions は候補値をピッカーの検索文字列で絞り込む（大文字小文字を区別しない部分一致）。
// FilterStateには影響しない。
func NarrowOptions(values []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return values
	}
	narrowed := make([]string, 0, len(values))
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			narrowed = append(narrowed, v)
		}
	}
	return narrowed
}
