package paginate

// Traditional はページ番号ベースのページネーション。
type Traditional[T any] struct{}

// Paginate は指定ページの部分列を返す。
// ページ番号は [1, totalPages] にクランプし、totalPagesは空でも1になる。
func (Traditional[T]) Paginate(seq []T, params Params) (View[T], error) {
	size := params.pageSize()
	total := len(seq)

	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := clamp(params.Page, 1, totalPages)

	start := (page - 1) * size
	items := window(seq, start, start+size)

	from, to := 0, 0
	if len(items) > 0 {
		from = start + 1
		to = start + len(items)
	}

	return View[T]{
		Mode:        ModeTraditional,
		Items:       items,
		Total:       total,
		CurrentPage: page,
		TotalPages:  totalPages,
		From:        from,
		To:          to,
		Links:       PageLinks(page, totalPages),
		HasMore:     page < totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}

// PageLinks はページ番号ナビゲーションを生成する。
// 先頭・末尾・現在ページ±1は常に表示し、現在ページが端から2ページより離れている側は
// 間のページを省略記号1つにまとめる。
func PageLinks(current, totalPages int) []PageLink {
	if totalPages < 1 {
		totalPages = 1
	}
	current = clamp(current, 1, totalPages)

	links := make([]PageLink, 0, 7)
	add := func(p int) {
		links = append(links, PageLink{Page: p, Current: p == current})
	}

	add(1)
	if current-1 > 2 {
		links = append(links, PageLink{Ellipsis: true})
	}

	lo := max(2, current-1)
	hi := min(totalPages-1, current+1)
	if current-1 <= 2 {
		lo = 2
	}
	if totalPages-current <= 2 {
		hi = totalPages - 1
	}
	for p := lo; p <= hi; p++ {
		add(p)
	}

	if totalPages-current > 2 {
		links = append(links, PageLink{Ellipsis: true})
	}
	if totalPages > 1 {
		add(totalPages)
	}
	return links
}
