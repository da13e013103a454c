package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by field key (for example "total_cost").
type Row map[string]string

// SupportedExt reports whether the file name has an extension ReadFile accepts.
func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// ReadFile reads the first sheet of an xlsx workbook (or a csv file) and maps
// each data row to the form's field keys by exact header match. Row 1 is the
// header row. Columns the form does not know are ignored and blank rows skipped.
func ReadFile(form FormType, r io.Reader, name string) ([]Row, error) {
	var (
		raw [][]string
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		raw, err = readWorkbook(r)
	case ".csv":
		raw, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	return keyRows(form, raw), nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func keyRows(form FormType, raw [][]string) []Row {
	if len(raw) < 2 {
		return nil
	}
	known := form.headerKeys()
	keys := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		keys[i] = known[strings.TrimSpace(h)]
	}
	out := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := Row{}
		blank := true
		for i, v := range cells {
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			if i < len(keys) && keys[i] != "" {
				row[keys[i]] = v
			}
		}
		if blank {
			continue
		}
		out = append(out, row)
	}
	return out
}
