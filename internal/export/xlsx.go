package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Work Records"

// xlsxSink はexcelizeのStreamWriterで行を書き込み、最後にブックをまとめて出力する。
type xlsxSink struct {
	out  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	next int
}

func newXLSXSink(w io.Writer) (*xlsxSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}
	return &xlsxSink{out: w, file: f, sw: sw, next: 1}, nil
}

func (s *xlsxSink) header(cols []string) error {
	return s.row(cols)
}

func (s *xlsxSink) row(cols []string) error {
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	if err := s.sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write xlsx row %d: %w", s.next, err)
	}
	s.next++
	return nil
}

func (s *xlsxSink) finish(int, float64) error {
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush xlsx: %w", err)
	}
	if err := s.file.Write(s.out); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// close はStreamWriterの一時ファイルを削除する。
func (s *xlsxSink) close() error {
	return s.file.Close()
}
