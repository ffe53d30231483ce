package export

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/PavelSyomin/oks-checker/parser"
)

func scalarReport() parser.Report {
	return parser.Report{Sections: []parser.Section{
		{Title: "Реквизиты", Fields: []parser.Field{
			{Label: "Номер", Value: "RU77-221000-018394"},
			{Label: "Статус", Value: "действует"},
		}},
		{Title: "Территория", Fields: []parser.Field{
			{Label: "Площадь", Value: 1200},
			{Label: "Улица", Value: nil},
		}},
	}}
}

func subzoneReport() parser.Report {
	return parser.Report{Sections: []parser.Section{
		{Title: "Реквизиты", Fields: []parser.Field{
			{Label: "Номер", Value: "RU77-105000-047176"},
		}},
		{Title: "Подзоны", Fields: []parser.Field{
			{Label: "Номера", Value: []string{"1", "2"}},
			{Label: "Площади", Value: []string{"2500", "800"}},
		}},
	}}
}

func TestFlattenScalars(t *testing.T) {
	header, rows := Flatten(scalarReport())

	wantHeader := []string{
		"Реквизиты / Номер",
		"Реквизиты / Статус",
		"Территория / Площадь",
		"Территория / Улица",
	}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Errorf("header = %v, want %v", header, wantHeader)
	}

	wantRows := [][]any{{"RU77-221000-018394", "действует", 1200, nil}}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows = %v, want %v", rows, wantRows)
	}
}

func TestFlattenExplodesLists(t *testing.T) {
	_, rows := Flatten(subzoneReport())

	want := [][]any{
		{"RU77-105000-047176", "1", "2500"},
		{"RU77-105000-047176", "2", "800"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestFlattenRaggedLists(t *testing.T) {
	r := parser.Report{Sections: []parser.Section{
		{Title: "С", Fields: []parser.Field{
			{Label: "Длинный", Value: []string{"а", "б", "в"}},
			{Label: "Короткий", Value: []string{"х"}},
		}},
	}}

	_, rows := Flatten(r)
	want := [][]any{{"а", "х"}, {"б", nil}, {"в", nil}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestJSONNoEscaping(t *testing.T) {
	r := parser.Report{Sections: []parser.Section{
		{Title: "Раздел", Fields: []parser.Field{
			{Label: "Поле", Value: "ООО «Ромашка» <уч. 5>"},
		}},
	}}

	var sb strings.Builder
	if err := JSON(&sb, r); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	want := "{\n\t\"Раздел\": {\n\t\t\"Поле\": \"ООО «Ромашка» <уч. 5>\"\n\t}\n}\n"
	if sb.String() != want {
		t.Errorf("JSON output = %q, want %q", sb.String(), want)
	}
}

// cell reads one value out of excelize's GetRows result, which drops
// trailing empty cells.
func cell(rows [][]string, i, j int) string {
	if i >= len(rows) || j >= len(rows[i]) {
		return ""
	}
	return rows[i][j]
}

func TestExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.xlsx")

	if err := Excel(path, scalarReport()); err != nil {
		t.Fatalf("Excel: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := cell(rows, 0, 0); got != "Реквизиты / Номер" {
		t.Errorf("header cell = %q", got)
	}
	if got := cell(rows, 1, 0); got != "RU77-221000-018394" {
		t.Errorf("number cell = %q", got)
	}
	if got := cell(rows, 1, 2); got != "1200" {
		t.Errorf("area cell = %q", got)
	}
	if got := cell(rows, 1, 3); got != "" {
		t.Errorf("empty cell = %q", got)
	}
}

func TestExcelBatchConcatenates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")

	if err := Excel(path, subzoneReport(), subzoneReport()); err != nil {
		t.Fatalf("Excel: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}

	// Header plus two exploded rows per report.
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	if got := cell(rows, 2, 1); got != "2" {
		t.Errorf("first report second subzone = %q", got)
	}
	if got := cell(rows, 3, 1); got != "1" {
		t.Errorf("second report first subzone = %q", got)
	}
}
