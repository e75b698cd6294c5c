package audit

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

var errNoSheet = errors.New("no active sheet")

// ExcelWriter writes tabular data to a workbook, one sheet at a time.
type ExcelWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements ExcelWriter on top of excelize.
type ExcelizeWriter struct {
	file   *excelize.File
	sheet  string
	row    int
	header int // style id for header cells
}

// NewExcelizeWriter creates an empty workbook.
func NewExcelizeWriter() ExcelWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

// AddSheet starts a new sheet. The first call takes over the default sheet.
func (w *ExcelizeWriter) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet to %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes bold column titles, freezes them and sizes the columns.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.sheet == "" {
		return errNoSheet
	}

	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.setRow(row); err != nil {
		return err
	}

	if w.header == 0 {
		style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		w.header = style
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, _ := excelize.CoordinatesToCellName(len(columns), w.row)
	if err := w.file.SetCellStyle(w.sheet, first, last, w.header); err != nil {
		return err
	}

	if lastCol, err := excelize.ColumnNumberToName(len(columns)); err == nil {
		_ = w.file.SetColWidth(w.sheet, "A", lastCol, 16)
	}
	_ = w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      w.row,
		TopLeftCell: fmt.Sprintf("A%d", w.row+1),
		ActivePane:  "bottomLeft",
	})

	w.row++
	return nil
}

// WriteRow appends row below the previous one.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.sheet == "" {
		return errNoSheet
	}
	if err := w.setRow(row); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *ExcelizeWriter) setRow(row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	return w.file.SetSheetRow(w.sheet, cell, &row)
}

// Save writes the workbook to out.
func (w *ExcelizeWriter) Save(out io.Writer) error {
	return w.file.Write(out)
}

// Close releases resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}
