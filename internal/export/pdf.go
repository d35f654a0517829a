package export

import (
	"fmt"
	"io"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/hitoshi/hourman/internal/model"
	"github.com/hitoshi/hourman/internal/worklog"
)

const defaultTitle = "Work Hours Report"

// pdfSink は行を溜めておき、finishで表と合計行を含むレポートを生成する。
type pdfSink struct {
	out     io.Writer
	opts    Options
	headers []string
	rows    [][]string
}

func newPDFSink(w io.Writer, opts Options) *pdfSink {
	return &pdfSink{out: w, opts: opts}
}

func (s *pdfSink) header(cols []string) error {
	s.headers = cols
	return nil
}

func (s *pdfSink) row(cols []string) error {
	s.rows = append(s.rows, cols)
	return nil
}

func (s *pdfSink) close() error { return nil }

// gridSizes は12分割グリッドの列幅。説明列を広く取る。
func gridSizes(includeUser bool) []uint {
	if includeUser {
		return []uint{2, 1, 1, 1, 1, 1, 1, 1, 3}
	}
	return []uint{1, 2, 1, 1, 1, 1, 1, 4}
}

func (s *pdfSink) finish(count int, totalHours float64) error {
	title := s.opts.Title
	if title == "" {
		title = defaultTitle
	}

	m := pdf.NewMaroto(consts.Landscape, consts.A4)
	m.SetPageMargins(10, 10, 10)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(title, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text(rangeCaption(s.opts), props.Text{
					Top:   2,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  10,
				})
			})
		})
	})

	grid := gridSizes(s.opts.IncludeUser)
	m.TableList(s.headers, s.rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		ContentProp: props.TableListContent{
			Size:      8,
			GridSizes: grid,
		},
		Align:                consts.Left,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	m.Row(15, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Records: %d    Total: %s", count, worklog.FormatHHMM(totalHours)), props.Text{
				Top:   8,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  11,
			})
		})
	})

	buf, err := m.Output()
	if err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// rangeCaption はレポートの対象期間の表記を返す。
func rangeCaption(opts Options) string {
	token := opts.State.DateRange
	if token == "" || token == model.DateRangeAll {
		return "All dates"
	}
	rng, err := worklog.Resolve(token, opts.Reference, opts.State.CustomStart, opts.State.CustomEnd)
	if err != nil {
		return string(token)
	}
	return fmt.Sprintf("%s - %s", rng.Start.Format(model.DateLayout), rng.End.Format(model.DateLayout))
}
