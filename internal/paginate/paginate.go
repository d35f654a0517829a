// Package paginate はフィルタ済みシーケンスの表示範囲を決める
// 4種類のページネーション戦略を提供する。
//
// どの戦略も入力シーケンスの連続した部分列を順序を保ったまま返し、
// 入力を並べ替えたり変更したりしない。範囲外の指定はエラーにせずクランプする。
package paginate

import "fmt"

// Mode はページネーション戦略の識別子。
type Mode string

const (
	ModeTraditional Mode = "traditional"
	ModeLoadMore    Mode = "load_more"
	ModeVirtual     Mode = "virtual"
	ModeCursor      Mode = "cursor"
)

// ParseMode は文字列をModeに変換する。空文字列はModeTraditionalとして扱う。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeTraditional, nil
	case ModeTraditional, ModeLoadMore, ModeVirtual, ModeCursor:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown pagination mode: %q", s)
}

// DefaultPageSize はページサイズ未指定時の件数。
const DefaultPageSize = 10

// 仮想スクロールの既定値（px）。
const (
	DefaultRowHeight      = 48.0
	DefaultViewportHeight = 480.0
)

// Params は各戦略の入力パラメータ。戦略ごとに使うフィールドが異なる。
type Params struct {
	// Traditional
	Page int
	// 全戦略共通のウィンドウ幅
	PageSize int

	// LoadMore: クライアントが既に保持している件数
	Loaded int

	// Virtual
	ScrollOffset   float64
	RowHeight      float64
	ViewportHeight float64

	// Cursor: 空文字列は先頭
	Cursor string
}

// pageSize は0以下のページサイズを既定値に置き換える。
func (p Params) pageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// PageLink はページ番号ナビゲーションの1要素。
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// View は戦略が返す表示用モデル。
type View[T any] struct {
	Mode  Mode
	Items []T
	Total int

	// Traditional
	CurrentPage int
	TotalPages  int
	From        int
	To          int
	Links       []PageLink

	// LoadMore
	Loaded  int
	HasMore bool

	// Virtual
	StartIndex int
	EndIndex   int
	OffsetPx   float64
	HeightPx   float64

	// Cursor
	Cursor         string
	NextCursor     string
	PreviousCursor string
	HasNext        bool
	HasPrevious    bool
}

// Strategy はページネーション戦略の共通インターフェース。
type Strategy[T any] interface {
	Paginate(seq []T, params Params) (View[T], error)
}

// New はModeに対応する戦略を返す。
func New[T any](mode Mode) (Strategy[T], error) {
	switch mode {
	case ModeTraditional, "":
		return Traditional[T]{}, nil
	case ModeLoadMore:
		return LoadMore[T]{}, nil
	case ModeVirtual:
		return Virtual[T]{}, nil
	case ModeCursor:
		return Cursor[T]{}, nil
	}
	return nil, fmt.Errorf("unknown pagination mode: %q", mode)
}

// window は [start, end) をシーケンス長にクランプした部分列を返す。
// 戻り値は入力と配列を共有しないコピー。
func window[T any](seq []T, start, end int) []T {
	n := len(seq)
	start = clamp(start, 0, n)
	end = clamp(end, start, n)
	out := make([]T, end-start)
	copy(out, seq[start:end])
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
