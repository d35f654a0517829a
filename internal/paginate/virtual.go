package paginate

import "math"

// Virtual は仮想スクロール方式のページネーション。
// スクロール位置と行の高さから可視範囲の行だけを返す。
type Virtual[T any] struct{}

// Paginate は可視範囲 [StartIndex, EndIndex) の部分列を返す。
//
//	startIndex = floor(scrollOffset / rowHeight)
//	endIndex   = min(startIndex + ceil(viewportHeight / rowHeight) + 1, total)
//
// 常に 0 <= StartIndex <= EndIndex <= total を満たす。
func (Virtual[T]) Paginate(seq []T, params Params) (View[T], error) {
	total := len(seq)

	rowHeight := params.RowHeight
	if rowHeight <= 0 || math.IsNaN(rowHeight) || math.IsInf(rowHeight, 0) {
		rowHeight = DefaultRowHeight
	}
	viewport := params.ViewportHeight
	if viewport <= 0 || math.IsNaN(viewport) || math.IsInf(viewport, 0) {
		viewport = DefaultViewportHeight
	}
	offset := params.ScrollOffset
	if offset < 0 || math.IsNaN(offset) {
		offset = 0
	}

	start := total
	if idx := math.Floor(offset / rowHeight); idx < float64(total) {
		start = int(idx)
	}
	// 整数変換前に総件数で頭打ちにする
	rows := math.Ceil(viewport / rowHeight)
	if rows > float64(total) {
		rows = float64(total)
	}
	end := min(start+int(rows)+1, total)

	return View[T]{
		Mode:       ModeVirtual,
		Items:      window(seq, start, end),
		Total:      total,
		StartIndex: start,
		EndIndex:   end,
		OffsetPx:   float64(start) * rowHeight,
		HeightPx:   float64(total) * rowHeight,
		HasMore:    end < total,
		HasNext:    end < total,
	}, nil
}
