// Package export はフィルタ済みの作業記録を表形式のファイルに書き出す。
//
// 書き出し対象は画面に表示中のページではなく、フィルタに一致する全件。
// 記録はpaginate.Loaderでチャンクごとに読み込み、読み込んだ順に出力する。
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/paginate"
	"github.com/hitoshi/hourman/internal/worklog"
)

// Format は出力形式。
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat は文字列をFormatに変換する。空文字列はCSV。
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// ContentType はレスポンスのContent-Typeを返す。
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename は出力ファイル名を返す。
func (f Format) Filename(generated time.Time) string {
	return fmt.Sprintf("work-records-%s.%s", generated.Format("20060102"), f)
}

// DefaultChunkSize は1回の読み込み件数の既定値。
const DefaultChunkSize = 500

// Options は書き出しの条件。
type Options struct {
	State     model.FilterState
	Reference time.Time
	// IncludeUser は管理者向けにUser列を出力するかどうか。
	IncludeUser bool
	ChunkSize   int
	Title       string
}

// Header は列見出しを返す。
func Header(includeUser bool) []string {
	cols := []string{"Designation", "Work Type", "Tracker", "Date", "Project", "Client", "Hours", "Description"}
	if includeUser {
		cols = append([]string{"User"}, cols...)
	}
	return cols
}

// Row は作業記録を1行分の文字列に変換する。
func Row(rec model.WorkRecord, includeUser bool) []string {
	cols := []string{
		rec.UserDesignation,
		rec.WorkType.Label(),
		rec.TrackerName,
		rec.DateString(),
		rec.ProjectName,
		rec.ClientName,
		worklog.FormatHHMMSS(rec.Hours),
		rec.Description,
	}
	if includeUser {
		cols = append([]string{rec.UserName}, cols...)
	}
	return cols
}

// sink は形式ごとの出力先。
type sink interface {
	header(cols []string) error
	row(cols []string) error
	finish(count int, totalHours float64) error
	// close は一時リソースを解放する。finishの成否にかかわらず呼ばれる。
	close() error
}

// openSink は形式に応じたsinkを生成する。テストで差し替える。
var openSink = newSink

func newSink(format Format, w io.Writer, opts Options) (sink, error) {
	switch format {
	case FormatCSV:
		return newCSVSink(w), nil
	case FormatXLSX:
		return newXLSXSink(w)
	case FormatPDF:
		return newPDFSink(w, opts), nil
	}
	return nil, fmt.Errorf("unsupported export format: %q", format)
}

// Write はsrcから読み込んだ記録のうちフィルタに一致するものをformat形式でwへ書き出す。
// 戻り値は出力した行数。
func Write(ctx context.Context, w io.Writer, format Format, src paginate.Source[model.WorkRecord], opts Options) (int, error) {
	if err := opts.State.Validate(); err != nil {
		return 0, err
	}
	out, err := openSink(format, w, opts)
	if err != nil {
		return 0, err
	}
	defer out.close()
	return writeRows(ctx, out, src, opts)
}

// writeRows はヘッダー・各行・終端をoutへ書き込む。
func writeRows(ctx context.Context, out sink, src paginate.Source[model.WorkRecord], opts Options) (int, error) {
	if err := out.header(Header(opts.IncludeUser)); err != nil {
		return 0, err
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	loader := paginate.NewLoader(src, chunk)

	count, seen := 0, 0
	var total float64
	for loader.HasMore() {
		loaded, err := loader.LoadMore(ctx)
		if err != nil {
			return count, err
		}
		if !loaded {
			break
		}
		batch := loader.ItemsFrom(seen)
		seen += len(batch)
		for _, rec := range batch {
			if !worklog.Matches(rec, opts.State, opts.Reference) {
				continue
			}
			if err := out.row(Row(rec, opts.IncludeUser)); err != nil {
				return count, err
			}
			count++
			total += rec.Hours
		}
	}

	if err := out.finish(count, total); err != nil {
		return count, err
	}
	return count, nil
}
