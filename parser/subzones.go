package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// limitsCaption opens the development-limits table in both template families.
const limitsCaption = "Предельные (минимальные и (или) максимальные) размеры земельного участка"

// recognizedFirstColumns are the header signatures the limits table is known
// to carry in its first column. Any other signature rejects the table.
var recognizedFirstColumns = map[string]bool{
	"Номер_участка": true,
	"№_участка":     true,
	"N_п/п":         true,
	"№_п/п":         true,
}

// Column positions in the validated 8-column limits table.
const (
	colHeightFloors = 1
	colPercent      = 2
	colDensity      = 3
	colFloorArea    = 4
	colTotalArea    = 5
)

var (
	subzoneNumberPattern = regexp.MustCompile(`№\s*(\d+)`)
	subzoneAreaPattern   = regexp.MustCompile(`площадью\s*(\d[\d\s]*(?:[.,]\d+)?)`)
	digitRunPattern      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	numberValuePattern   = regexp.MustCompile(`\d[\d\s]*(?:[.,]\d+)?`)
)

// parseSubzones locates the development-limits table and derives one Subzone
// per title-row group. Missing table, unrecognized shape, or no usable rows
// all yield an empty mapping, never an error.
func parseSubzones(tables []RawTable) map[int]Subzone {
	subzones := make(map[int]Subzone)

	table, ok := findLimitsTable(tables)
	if !ok {
		return subzones
	}

	marker, ok := locateMarkerRow(table.Cells)
	if !ok || marker == 0 {
		return subzones
	}

	header := renameColumns(table.Cells[marker-1])
	if len(header) == 0 || !recognizedFirstColumns[header[0]] {
		return subzones
	}

	// The marker row and the two boilerplate rows after it carry no data.
	if marker+3 > len(table.Cells) {
		return subzones
	}
	data := table.Cells[marker+3:]

	// One explicit pass assigns a subzone index to every row; title rows
	// increment the index and the rows after inherit it.
	idx := make([]int, len(data))
	titles := make(map[int]string)
	current := 0
	for i, row := range data {
		if isTitleRow(row) {
			current++
			titles[current] = row[0]
			idx[i] = 0 // title rows carry no column data
			continue
		}
		idx[i] = current
	}

	if current == 0 {
		// No title rows: the whole table is one implicit subzone.
		if len(data) == 0 {
			return subzones
		}
		subzones[WholeParcelKey] = deriveSubzone("", data)
		return subzones
	}

	for key := 1; key <= current; key++ {
		var rows [][]string
		for i, row := range data {
			if idx[i] == key {
				rows = append(rows, row)
			}
		}
		subzones[key] = deriveSubzone(titles[key], rows)
	}
	return subzones
}

func findLimitsTable(tables []RawTable) (RawTable, bool) {
	for _, t := range tables {
		if strings.HasPrefix(t.Header(), limitsCaption) {
			return t, true
		}
	}
	return RawTable{}, false
}

// locateMarkerRow finds the 1..8 column-enumeration row that validates the
// table shape. A row starting with "1" that is not a full 8-column marker
// rejects the whole table.
func locateMarkerRow(cells [][]string) (int, bool) {
	for i, row := range cells {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if !strings.HasPrefix(first, "1") {
			continue
		}
		last := strings.TrimSpace(row[len(row)-1])
		if len(row) == 8 && strings.HasSuffix(last, "8") {
			return i, true
		}
		return 0, false
	}
	return 0, false
}

func renameColumns(row []string) []string {
	renamed := make([]string, len(row))
	for i, cell := range row {
		renamed[i] = strings.ReplaceAll(strings.TrimSpace(cell), " ", "_")
	}
	return renamed
}

// isTitleRow detects subzone title rows: an enumeration marker in the first
// cell and nothing anywhere else.
func isTitleRow(row []string) bool {
	if len(row) == 0 || !strings.Contains(row[0], "№") {
		return false
	}
	for _, cell := range row[1:] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// deriveSubzone builds one Subzone from its title cell and column rows.
// Fields that cannot be derived keep their "-"/zero defaults.
func deriveSubzone(title string, rows [][]string) Subzone {
	sz := Subzone{
		Number:      "-",
		Area:        "-",
		Description: "-",
		MaxHeight:   "-",
		MaxFloors:   "-",
		MaxPercent:  "-",
		MaxDensity:  "-",
	}

	if m := subzoneNumberPattern.FindStringSubmatch(title); m != nil {
		sz.Number = m[1]
	}
	if m := subzoneAreaPattern.FindStringSubmatch(title); m != nil {
		sz.Area = strings.TrimSpace(m[1])
	}
	if strings.Contains(strings.ToLower(title), "назначени") {
		if _, after, ok := strings.Cut(title, " - "); ok {
			sz.Description = strings.TrimSpace(after)
		}
	}

	sz.MaxHeight, sz.MaxFloors = heightAndFloors(columnText(rows, colHeightFloors))

	if v := trailingSegment(columnText(rows, colPercent)); v != "" {
		sz.MaxPercent = v
	}
	if v := trailingSegment(columnText(rows, colDensity)); v != "" {
		sz.MaxDensity = v
	}

	sz.FloorArea = parseBreakdown(columnText(rows, colFloorArea), floorAreaPrefixes)
	sz.TotalArea = parseBreakdown(columnText(rows, colTotalArea), totalAreaPrefixes)

	return sz
}

// columnText joins one column's cells across all rows of a subzone group.
func columnText(rows [][]string, col int) string {
	var parts []string
	for _, row := range rows {
		if col < len(row) {
			if cell := strings.TrimSpace(row[col]); cell != "" {
				parts = append(parts, cell)
			}
		}
	}
	return strings.Join(parts, " ")
}

// heightAndFloors splits a limits cell into the height and floor-count
// figures. The cell carries either a bare height, a bare floor count after
// the floor label, both separated by the label, or nothing.
func heightAndFloors(text string) (height, floors string) {
	height, floors = "-", "-"
	runs := digitRunPattern.FindAllStringIndex(text, -1)
	if len(runs) == 0 {
		return height, floors
	}

	label := strings.Index(strings.ToLower(text), "этаж")
	if label < 0 {
		height = text[runs[0][0]:runs[0][1]]
		return height, floors
	}

	for _, run := range runs {
		if run[0] < label {
			if height == "-" {
				height = text[run[0]:run[1]]
			}
		} else if floors == "-" {
			floors = text[run[0]:run[1]]
		}
	}
	return height, floors
}

// trailingSegment returns the text after the last " - " separator, which is
// how the percent and density columns phrase their values.
func trailingSegment(text string) string {
	parts := strings.Split(text, " - ")
	return strings.TrimSpace(parts[len(parts)-1])
}

// Category phrase prefixes of the built-area breakdown columns. The
// total-area column adds the underground category.
var floorAreaPrefixes = map[string]string{
	"Суммарная поэтажная площадь":      "total",
	"Жилой части":                      "residential",
	"Нежилой части":                    "nonresident",
	"Встроенно-пристроенных помещений": "builtin",
	"Гаражей и автостоянок":            "parking",
}

var totalAreaPrefixes = map[string]string{
	"Общая площадь":                    "total",
	"Жилой части":                      "residential",
	"Нежилой части":                    "nonresident",
	"Встроенно-пристроенных помещений": "builtin",
	"Гаражей и автостоянок":            "parking",
	"Подземного пространства":          "underground",
}

// parseBreakdown scans the concatenated column text for sentence-like
// segments and matches each against the known category prefixes. Unmatched
// categories stay zero.
func parseBreakdown(text string, prefixes map[string]string) Breakdown {
	var b Breakdown
	for _, segment := range splitSegments(text) {
		for prefix, category := range prefixes {
			if !strings.HasPrefix(segment, prefix) {
				continue
			}
			value := numericValue(segment[len(prefix):])
			switch category {
			case "total":
				b.Total = value
			case "residential":
				b.Residential = value
			case "nonresident":
				b.NonResident = value
			case "builtin":
				b.BuiltIn = value
			case "parking":
				b.Parking = value
			case "underground":
				b.Underground = value
			}
			break
		}
	}
	return b
}

// splitSegments cuts free text at capital-letter word boundaries, the only
// delimiter the source cells reliably have.
func splitSegments(text string) []string {
	var segments []string
	runes := []rune(text)
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsSpace(runes[i-1]) {
			if seg := strings.TrimSpace(string(runes[start:i])); seg != "" {
				segments = append(segments, seg)
			}
			start = i
		}
	}
	if seg := strings.TrimSpace(string(runes[start:])); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

// numericValue parses the first number in a segment, tolerating space-grouped
// thousands and a comma decimal. Unparseable segments count as zero.
func numericValue(text string) float64 {
	m := numberValuePattern.FindString(text)
	if m == "" {
		return 0
	}
	return parseDecimal(m)
}
