package paginate

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidCursor は解釈できないカーソルトークンを表す。
var ErrInvalidCursor = errors.New("invalid cursor")

// cursorPrefix はトークンの中身を識別する接頭辞。
const cursorPrefix = "o:"

// Cursor はカーソル方式のページネーション。
// トークンはシーケンス上の位置境界を指す不透明な文字列で、
// 実装上は先頭からのオフセットをエンコードしたもの。
type Cursor[T any] struct{}

// Paginate はカーソル位置から PageSize 件を返す。
// 末尾を超えた前進・先頭を超えた後退は行わず、対応するフラグがfalseになる。
func (Cursor[T]) Paginate(seq []T, params Params) (View[T], error) {
	size := params.pageSize()
	total := len(seq)

	offset, err := DecodeCursor(params.Cursor)
	if err != nil {
		return View[T]{}, err
	}
	// 範囲外のオフセットは最終ウィンドウの先頭にクランプする
	if offset >= total && total > 0 {
		offset = ((total - 1) / size) * size
	}
	offset = clamp(offset, 0, total)

	items := window(seq, offset, offset+size)
	end := offset + len(items)

	v := View[T]{
		Mode:        ModeCursor,
		Items:       items,
		Total:       total,
		Cursor:      EncodeCursor(offset),
		HasNext:     end < total,
		HasPrevious: offset > 0,
	}
	v.HasMore = v.HasNext
	if v.HasNext {
		v.NextCursor = EncodeCursor(end)
	}
	if v.HasPrevious {
		v.PreviousCursor = EncodeCursor(max(0, offset-size))
	}
	return v, nil
}

// EncodeCursor はオフセットを不透明なトークンに変換する。
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor はトークンをオフセットに戻す。空文字列は先頭（0）を表す。
func DecodeCursor(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}
