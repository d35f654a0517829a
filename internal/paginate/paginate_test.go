package paginate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeTraditional, m)

	for _, s := range []string{"traditional", "load_more", "virtual", "cursor"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	_, err = ParseMode("infinite")
	assert.Error(t, err)
}

func TestNew_ReturnsStrategyForEachMode(t *testing.T) {
	for _, m := range []Mode{ModeTraditional, ModeLoadMore, ModeVirtual, ModeCursor} {
		s, err := New[int](m)
		require.NoError(t, err)
		v, err := s.Paginate(seqOf(3), Params{PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, m, v.Mode)
	}
	_, err := New[int]("bogus")
	assert.Error(t, err)
}

// --- Traditional ---

func TestTraditional_TwentyFiveRecords(t *testing.T) {
	seq := seqOf(25)
	s := Traditional[int]{}

	v, err := s.Paginate(seq, Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, seq[0:10], v.Items)
	assert.Equal(t, 1, v.From)
	assert.Equal(t, 10, v.To)

	v, err = s.Paginate(seq, Params{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, seq[20:25], v.Items)
	assert.Len(t, v.Items, 5)
	assert.Equal(t, 21, v.From)
	assert.Equal(t, 25, v.To)
	assert.Equal(t, 25, v.Total)
	assert.False(t, v.HasNext)
	assert.True(t, v.HasPrevious)
}

func TestTraditional_ClampsPageNumber(t *testing.T) {
	seq := seqOf(25)
	s := Traditional[int]{}

	v, err := s.Paginate(seq, Params{Page: 0, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentPage)

	v, err = s.Paginate(seq, Params{Page: -4, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentPage)

	v, err = s.Paginate(seq, Params{Page: 99, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, v.CurrentPage)
	assert.Equal(t, seq[20:25], v.Items)
}

func TestTraditional_PagesConcatenateToSequence(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 37, 100} {
		for _, size := range []int{1, 3, 10, 50} {
			seq := seqOf(n)
			s := Traditional[int]{}
			first, err := s.Paginate(seq, Params{Page: 1, PageSize: size})
			require.NoError(t, err)

			var all []int
			count := 0
			for p := 1; p <= first.TotalPages; p++ {
				v, err := s.Paginate(seq, Params{Page: p, PageSize: size})
				require.NoError(t, err)
				count += len(v.Items)
				all = append(all, v.Items...)
			}
			assert.Equal(t, n, count, "n=%d size=%d", n, size)
			if n == 0 {
				assert.Empty(t, all)
			} else {
				assert.Equal(t, seq, all, "n=%d size=%d", n, size)
			}
		}
	}
}

func TestTraditional_EmptySequence(t *testing.T) {
	v, err := Traditional[int]{}.Paginate(nil, Params{Page: 5, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Equal(t, 1, v.TotalPages)
	assert.Equal(t, 1, v.CurrentPage)
	assert.Equal(t, 0, v.From)
	assert.Equal(t, 0, v.To)
	assert.False(t, v.HasMore)
	assert.False(t, v.HasNext)
}

func TestTraditional_DefaultPageSize(t *testing.T) {
	v, err := Traditional[int]{}.Paginate(seqOf(30), Params{Page: 1})
	require.NoError(t, err)
	assert.Len(t, v.Items, DefaultPageSize)
}

func TestTraditional_DoesNotShareBackingArray(t *testing.T) {
	seq := seqOf(5)
	v, err := Traditional[int]{}.Paginate(seq, Params{Page: 1, PageSize: 5})
	require.NoError(t, err)
	v.Items[0] = 100
	assert.Equal(t, 0, seq[0])
}

func pagesOf(links []PageLink) []int {
	out := make([]int, len(links))
	for i, l := range links {
		if l.Ellipsis {
			out[i] = -1
			continue
		}
		out[i] = l.Page
	}
	return out
}

func TestPageLinks(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 1, []int{1}},
		{1, 2, []int{1, 2}},
		{1, 10, []int{1, 2, -1, 10}},
		{3, 10, []int{1, 2, 3, 4, -1, 10}},
		{4, 10, []int{1, -1, 3, 4, 5, -1, 10}},
		{5, 10, []int{1, -1, 4, 5, 6, -1, 10}},
		{8, 10, []int{1, -1, 7, 8, 9, 10}},
		{10, 10, []int{1, -1, 9, 10}},
		{3, 5, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		links := PageLinks(tt.current, tt.total)
		assert.Equal(t, tt.want, pagesOf(links), "current=%d total=%d", tt.current, tt.total)

		currents := 0
		for _, l := range links {
			if l.Current {
				currents++
				assert.Equal(t, tt.current, l.Page)
			}
		}
		assert.Equal(t, 1, currents)
	}
}

// --- LoadMore ---

func TestLoadMore_Window(t *testing.T) {
	seq := seqOf(25)
	s := LoadMore[int]{}

	v, err := s.Paginate(seq, Params{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, seq[0:10], v.Items)
	assert.Equal(t, 10, v.Loaded)
	assert.True(t, v.HasMore)

	v, err = s.Paginate(seq, Params{PageSize: 10, Loaded: 20})
	require.NoError(t, err)
	assert.Equal(t, seq[20:25], v.Items)
	assert.Equal(t, 25, v.Loaded)
	assert.False(t, v.HasMore)

	v, err = s.Paginate(seq, Params{PageSize: 10, Loaded: 500})
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Equal(t, 25, v.Loaded)
	assert.False(t, v.HasMore)
}

func TestLoader_AccumulatesByPageSize(t *testing.T) {
	const n, size = 23, 5
	l := NewLoader[int](SliceSource[int](seqOf(n)), size)

	for k := 1; k <= 10; k++ {
		_, err := l.LoadMore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, min(k*size, n), l.Len(), "after %d loads", k)
		assert.Equal(t, l.Len() < n, l.HasMore())
	}
	assert.Equal(t, seqOf(n), l.Items())
}

func TestLoader_ItemsFromReturnsLatestBatch(t *testing.T) {
	l := NewLoader[int](SliceSource[int](seqOf(7)), 3)
	seen := 0
	var batches [][]int
	for l.HasMore() {
		_, err := l.LoadMore(context.Background())
		require.NoError(t, err)
		batch := l.ItemsFrom(seen)
		seen += len(batch)
		batches = append(batches, batch)
	}
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6}}, batches)
	assert.Empty(t, l.ItemsFrom(seen))
}

func TestLoader_ExactMultipleStopsAtTotal(t *testing.T) {
	l := NewLoader[int](SliceSource[int](seqOf(10)), 5)
	_, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, l.HasMore())
	_, err = l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, l.HasMore())

	loaded, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestLoader_CountedSourceExactMultipleStopsAtTotal(t *testing.T) {
	data := seqOf(20)
	fetches := 0
	src := CountedSource[int]{
		FetchFunc: func(ctx context.Context, offset, limit int) ([]int, error) {
			fetches++
			return window(data, offset, offset+limit), nil
		},
		CountFunc: func(ctx context.Context) (int, error) { return len(data), nil },
	}
	l := NewLoader[int](src, 10)

	for k := 1; k <= 2; k++ {
		_, err := l.LoadMore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, l.Len() < len(data), l.HasMore(), "after %d loads", k)
	}
	assert.Equal(t, 20, l.Len())
	assert.False(t, l.HasMore())
	assert.Equal(t, 2, fetches, "no empty trailing fetch")
}

func TestLoader_CountedSourceShrinkingDataStillTerminates(t *testing.T) {
	data := seqOf(7)
	src := CountedSource[int]{
		FetchFunc: func(ctx context.Context, offset, limit int) ([]int, error) {
			return window(data, offset, offset+limit), nil
		},
		// 取得開始後に記録が削除された場合を想定し、実際より多い件数を返す
		CountFunc: func(ctx context.Context) (int, error) { return 10, nil },
	}
	l := NewLoader[int](src, 5)

	for i := 0; i < 5 && l.HasMore(); i++ {
		_, err := l.LoadMore(context.Background())
		require.NoError(t, err)
	}
	assert.False(t, l.HasMore())
	assert.Equal(t, 7, l.Len())
}

func TestLoader_CountErrorIsRetryable(t *testing.T) {
	fail := true
	src := CountedSource[int]{
		FetchFunc: func(ctx context.Context, offset, limit int) ([]int, error) {
			return window(seqOf(3), offset, offset+limit), nil
		},
		CountFunc: func(ctx context.Context) (int, error) {
			if fail {
				return 0, errors.New("backend down")
			}
			return 3, nil
		},
	}
	l := NewLoader[int](src, 5)

	_, err := l.LoadMore(context.Background())
	require.Error(t, err)
	assert.False(t, l.Loading())
	assert.True(t, l.HasMore())

	fail = false
	loaded, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 3, l.Len())
	assert.False(t, l.HasMore())
}

// 件数を報告しないSourceでは、総件数がpageSizeの倍数だと終端の判定に空の取得が一度必要になる。
func TestLoader_UnsizedSourceExactMultipleNeedsTrailingFetch(t *testing.T) {
	data := seqOf(20)
	fetches := 0
	src := SourceFunc[int](func(ctx context.Context, offset, limit int) ([]int, error) {
		fetches++
		return window(data, offset, offset+limit), nil
	})
	l := NewLoader[int](src, 10)

	for l.HasMore() {
		_, err := l.LoadMore(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 20, l.Len())
	assert.Equal(t, 3, fetches)
}

func TestLoader_EmptySource(t *testing.T) {
	l := NewLoader[int](SliceSource[int](nil), 10)
	_, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.HasMore())
	assert.False(t, l.Loading())
}

func TestLoader_OverlappingLoadIsNoOp(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := SourceFunc[int](func(ctx context.Context, offset, limit int) ([]int, error) {
		close(started)
		<-release
		return seqOf(limit), nil
	})
	l := NewLoader[int](src, 3)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loaded, err := l.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.True(t, loaded)
	}()

	<-started
	assert.True(t, l.Loading())

	loaded, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded, "second trigger while loading must be a no-op")

	close(release)
	wg.Wait()
	assert.False(t, l.Loading())
	assert.Equal(t, 3, l.Len())
}

func TestLoader_FetchErrorKeepsAccumulator(t *testing.T) {
	fail := true
	src := SourceFunc[int](func(ctx context.Context, offset, limit int) ([]int, error) {
		if fail {
			return nil, errors.New("backend down")
		}
		return seqOf(limit), nil
	})
	l := NewLoader[int](src, 4)

	_, err := l.LoadMore(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Loading())

	fail = false
	loaded, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 4, l.Len())
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	assert.True(t, g.TryAcquire("user-1"))
	assert.False(t, g.TryAcquire("user-1"))
	assert.True(t, g.TryAcquire("user-2"))
	g.Release("user-1")
	assert.True(t, g.TryAcquire("user-1"))
}

// --- Virtual ---

func TestVirtual_VisibleWindow(t *testing.T) {
	seq := seqOf(100)
	v, err := Virtual[int]{}.Paginate(seq, Params{ScrollOffset: 250, RowHeight: 50, ViewportHeight: 400})
	require.NoError(t, err)
	assert.Equal(t, 5, v.StartIndex)
	assert.Equal(t, 5+8+1, v.EndIndex)
	assert.Equal(t, seq[5:14], v.Items)
	assert.Equal(t, 250.0, v.OffsetPx)
	assert.Equal(t, 5000.0, v.HeightPx)
}

func TestVirtual_WindowAlwaysWithinBounds(t *testing.T) {
	geometries := []struct {
		rowHeight, viewport float64
	}{
		{48, 300},
		{1, 1e300},
		{1e-300, 1e300},
		{1, 1e19},
		{1e-300, 1},
	}
	for _, g := range geometries {
		for _, n := range []int{0, 1, 7, 50} {
			for _, offset := range []float64{-100, 0, 1, 3, 49, 333, 2400, 1e9} {
				v, err := Virtual[int]{}.Paginate(seqOf(n), Params{ScrollOffset: offset, RowHeight: g.rowHeight, ViewportHeight: g.viewport})
				require.NoError(t, err)
				assert.True(t, 0 <= v.StartIndex && v.StartIndex <= v.EndIndex && v.EndIndex <= n,
					"n=%d offset=%v row=%v viewport=%v window=[%d,%d)", n, offset, g.rowHeight, g.viewport, v.StartIndex, v.EndIndex)
				assert.Len(t, v.Items, v.EndIndex-v.StartIndex)
			}
		}
	}
}

func TestVirtual_HugeViewportShowsRemainingRows(t *testing.T) {
	v, err := Virtual[int]{}.Paginate(seqOf(10), Params{ScrollOffset: 3, RowHeight: 1, ViewportHeight: 1e300})
	require.NoError(t, err)
	assert.Equal(t, 3, v.StartIndex)
	assert.Equal(t, 10, v.EndIndex)
	assert.Equal(t, seqOf(10)[3:], v.Items)
	assert.False(t, v.HasMore)
}

func TestVirtual_EmptySequence(t *testing.T) {
	v, err := Virtual[int]{}.Paginate(nil, Params{ScrollOffset: 1000})
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.StartIndex)
	assert.Equal(t, 0, v.EndIndex)
	assert.False(t, v.HasMore)
}

func TestVirtual_InvalidRowHeightUsesDefault(t *testing.T) {
	v, err := Virtual[int]{}.Paginate(seqOf(100), Params{ScrollOffset: 96, RowHeight: 0, ViewportHeight: 96})
	require.NoError(t, err)
	assert.Equal(t, 2, v.StartIndex)
	assert.Equal(t, 5, v.EndIndex)
}

// --- Cursor ---

func TestCursor_NextAndPrevious(t *testing.T) {
	seq := seqOf(25)
	s := Cursor[int]{}

	first, err := s.Paginate(seq, Params{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, seq[0:10], first.Items)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)
	assert.Empty(t, first.PreviousCursor)

	second, err := s.Paginate(seq, Params{PageSize: 10, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, seq[10:20], second.Items)
	assert.True(t, second.HasPrevious)

	third, err := s.Paginate(seq, Params{PageSize: 10, Cursor: second.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, seq[20:25], third.Items)
	assert.False(t, third.HasNext)
	assert.Empty(t, third.NextCursor)

	back, err := s.Paginate(seq, Params{PageSize: 10, Cursor: third.PreviousCursor})
	require.NoError(t, err)
	assert.Equal(t, second.Items, back.Items)
}

func TestCursor_PastEndIsClamped(t *testing.T) {
	seq := seqOf(25)
	v, err := Cursor[int]{}.Paginate(seq, Params{PageSize: 10, Cursor: EncodeCursor(90)})
	require.NoError(t, err)
	assert.Equal(t, seq[20:25], v.Items)
	assert.False(t, v.HasNext)
}

func TestCursor_InvalidToken(t *testing.T) {
	_, err := Cursor[int]{}.Paginate(seqOf(5), Params{Cursor: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = DecodeCursor(EncodeCursor(3)[:2])
	assert.Error(t, err)
}

func TestCursor_EmptySequence(t *testing.T) {
	v, err := Cursor[int]{}.Paginate(nil, Params{PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.False(t, v.HasNext)
	assert.False(t, v.HasPrevious)
}

func TestCursor_RoundTrip(t *testing.T) {
	for _, off := range []int{0, 1, 42, 100000} {
		got, err := DecodeCursor(EncodeCursor(off))
		require.NoError(t, err)
		assert.Equal(t, off, got)
	}
}
