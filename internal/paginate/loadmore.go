package paginate

import (
	"context"
	"sync"
)

// LoadMore は「さらに読み込む」方式のページネーション。
// クライアントが保持済みの件数（Loaded）の続きから PageSize 件を返す。
type LoadMore[T any] struct{}

// Paginate は seq[Loaded : Loaded+PageSize] を返す。
// View.Loaded は追加後の累積件数で、総件数に達するまで単調に増加する。
func (LoadMore[T]) Paginate(seq []T, params Params) (View[T], error) {
	size := params.pageSize()
	total := len(seq)
	loaded := clamp(params.Loaded, 0, total)

	items := window(seq, loaded, loaded+size)
	accumulated := loaded + len(items)

	return View[T]{
		Mode:    ModeLoadMore,
		Items:   items,
		Total:   total,
		Loaded:  accumulated,
		HasMore: accumulated < total,
		HasNext: accumulated < total,
	}, nil
}

// Source は追加読み込みのデータ供給元。
// offsetから最大limit件を返し、末尾に達した場合はlimit未満を返す。
type Source[T any] interface {
	Fetch(ctx context.Context, offset, limit int) ([]T, error)
}

// SourceFunc は関数をSourceとして扱うアダプタ。
type SourceFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// Fetch はSourceを実装する。
func (f SourceFunc[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	return f(ctx, offset, limit)
}

// Sized は総件数を報告できるSource。
// Loaderは最初の読み込み前に一度だけTotalを呼び、累積件数が総件数に達した時点で末尾と判定する。
type Sized interface {
	Total(ctx context.Context) (int, error)
}

// CountedSource は取得関数と件数関数の組をSizedなSourceとして扱う。
type CountedSource[T any] struct {
	FetchFunc SourceFunc[T]
	CountFunc func(ctx context.Context) (int, error)
}

// Fetch はSourceを実装する。
func (s CountedSource[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	return s.FetchFunc(ctx, offset, limit)
}

// Total はSizedを実装する。
func (s CountedSource[T]) Total(ctx context.Context) (int, error) {
	return s.CountFunc(ctx)
}

// SliceSource はメモリ上のスライスをSourceとして扱う。
type SliceSource[T any] []T

// Total はSizedを実装する。
func (s SliceSource[T]) Total(context.Context) (int, error) {
	return len(s), nil
}

// Fetch はSourceを実装する。
func (s SliceSource[T]) Fetch(_ context.Context, offset, limit int) ([]T, error) {
	return window([]T(s), offset, offset+limit), nil
}

// Loader は追加読み込みの累積状態を保持する。
// 読み込み中はLoading()がtrueになり、その間のLoadMore呼び出しは何もしない。
type Loader[T any] struct {
	source   Source[T]
	pageSize int

	mu      sync.Mutex
	items   []T
	total   int // Sizedから得た総件数。未取得または不明の場合は-1
	loading bool
	done    bool
}

// NewLoader はLoaderを生成する。pageSizeが0以下の場合は既定値を使う。
func NewLoader[T any](source Source[T], pageSize int) *Loader[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Loader[T]{source: source, pageSize: pageSize, total: -1}
}

// LoadMore は次のpageSize件を取得して累積に追加する。
// 読み込み中または末尾到達済みの場合は何もせずfalseを返す。
// 取得に失敗した場合は累積を変更せずエラーを返し、再試行できる状態に戻す。
//
// SizedなSourceは累積件数が総件数に達した時点で末尾となる。
// それ以外のSourceは取得件数がpageSize未満になった時点で末尾となるため、
// 総件数がpageSizeの倍数のときは空の取得が一度余分に発生する。
func (l *Loader[T]) LoadMore(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.loading || l.done {
		l.mu.Unlock()
		return false, nil
	}
	l.loading = true
	offset := len(l.items)
	total := l.total
	l.mu.Unlock()

	var err error
	if sized, ok := l.source.(Sized); ok && total < 0 {
		total, err = sized.Total(ctx)
		if err != nil {
			l.mu.Lock()
			l.loading = false
			l.mu.Unlock()
			return false, err
		}
	}

	var batch []T
	fetched := total < 0 || offset < total
	if fetched {
		batch, err = l.source.Fetch(ctx, offset, l.pageSize)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	l.total = total
	if err != nil {
		return false, err
	}
	l.items = append(l.items, batch...)
	// 取得中に件数が減った場合も短い取得で終端とする
	if len(batch) < l.pageSize || (total >= 0 && len(l.items) >= total) {
		l.done = true
	}
	return fetched, nil
}

// Loading は読み込み中かどうかを返す。
func (l *Loader[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// HasMore はまだ読み込める可能性があるかどうかを返す。
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.done
}

// Len は累積件数を返す。
func (l *Loader[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items は累積した要素のコピーを返す。
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// ItemsFrom は累積のうちoffset以降の要素のコピーを返す。
// 直前に処理した件数を渡すと、最後のLoadMoreで追加された分だけが得られる。
func (l *Loader[T]) ItemsFrom(offset int) []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return window(l.items, offset, len(l.items))
}

// Guard はキーごとの読み込み中フラグ。
// 同じキーで実行中の読み込みがある間、TryAcquireはfalseを返す。
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewGuard はGuardを生成する。
func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]bool)}
}

// TryAcquire はキーの読み込み中フラグを立てる。既に立っている場合はfalseを返す。
func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[key] {
		return false
	}
	g.inFlight[key] = true
	return true
}

// Release はキーの読み込み中フラグを下ろす。
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}
