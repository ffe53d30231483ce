// Package export renders parsed reports as files: indented JSON for the API
// and archives, flat rows for spreadsheets.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/PavelSyomin/oks-checker/parser"
)

// JSON writes a report, or any value composed of reports, as indented UTF-8
// JSON. HTML escaping is off so Cyrillic quotes and angle brackets survive
// as-is.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	return enc.Encode(v)
}

// Flatten lays the report out as spreadsheet rows. Every field becomes one
// column named "<section> / <label>", in document order. List-valued fields
// are exploded into one row per element, with scalar columns repeated on
// every row; the per-subzone lists all share a length, so elements of one
// subzone stay on one row.
func Flatten(r parser.Report) (header []string, rows [][]any) {
	type column struct {
		name  string
		value any
	}

	var columns []column
	for _, s := range r.Sections {
		for _, f := range s.Fields {
			columns = append(columns, column{name: s.Title + " / " + f.Label, value: f.Value})
		}
	}

	depth := 1
	for _, c := range columns {
		if list, ok := c.value.([]string); ok && len(list) > depth {
			depth = len(list)
		}
	}

	header = make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}

	rows = make([][]any, depth)
	for i := range rows {
		row := make([]any, len(columns))
		for j, c := range columns {
			if list, ok := c.value.([]string); ok {
				if i < len(list) {
					row[j] = list[i]
				}
				continue
			}
			row[j] = c.value
		}
		rows[i] = row
	}
	return header, rows
}

// Excel writes the reports into a single xlsx worksheet: one header row, then
// the flattened rows of every report in order. All reports share the fixed
// section layout, so one header serves the whole batch.
func Excel(path string, reports ...parser.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	line := 1
	for i, r := range reports {
		header, rows := Flatten(r)
		if i == 0 {
			if err := writeRow(f, sheet, line, &header); err != nil {
				return err
			}
			line++
		}
		for _, row := range rows {
			if err := writeRow(f, sheet, line, &row); err != nil {
				return err
			}
			line++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, line int, values any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return fmt.Errorf("row %d: %w", line, err)
	}
	if err := f.SetSheetRow(sheet, cell, values); err != nil {
		return fmt.Errorf("row %d: %w", line, err)
	}
	return nil
}
