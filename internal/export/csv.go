package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// csvSink は行ごとにそのまま書き出す。
type csvSink struct {
	w *csv.Writer
}

func newCSVSink(w io.Writer) *csvSink {
	return &csvSink{w: csv.NewWriter(w)}
}

func (s *csvSink) header(cols []string) error {
	return s.row(cols)
}

func (s *csvSink) row(cols []string) error {
	if err := s.w.Write(cols); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

func (s *csvSink) finish(int, float64) error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func (s *csvSink) close() error { return nil }
