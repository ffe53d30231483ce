package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/PavelSyomin/oks-checker/parser"
)

// permitRecord is the slice of one parsed report the charts work with.
type permitRecord struct {
	month    string // issue month, YYYY-MM
	district string // administrative district, "" when unresolved
	area     float64
	floor    float64
}

type dataPoint struct {
	date  string
	value float64
}

const (
	citywideName = "CITYWIDE"
	totalName    = "TOTAL"
	noDistrict   = "(no district)"
)

var validMetrics = []string{"permits", "area", "floor-area"}

var (
	vizMetric     string
	vizDistrict   string
	vizByDistrict bool
	vizPDFOut     string
)

var vizCmd = &cobra.Command{
	Use:   "viz [dir]",
	Short: "Chart parsed permits over time",
	Long: `Viz reads the report JSONs written by the parse command (or fetched by
the download command) and charts them by issue month: number of permits
issued, total parcel area or total floor area.

The citywide series renders as a line chart; --by-district prints one
sparkline row per administrative district plus a total row. With --pdf
the same charts go to a PDF file, one page per series.

Examples:
  oks-checker viz ./parsed
  oks-checker viz ./parsed --metric area --by-district
  oks-checker viz ./parsed --district Новомосковский
  oks-checker viz ./parsed --by-district --pdf report.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runViz,
}

func init() {
	vizCmd.Flags().StringVar(&vizMetric, "metric", "permits", "metric: "+strings.Join(validMetrics, ", "))
	vizCmd.Flags().BoolVar(&vizByDistrict, "by-district", false, "one series per administrative district")
	vizCmd.Flags().StringVar(&vizDistrict, "district", "", "district filter (case-insensitive substring)")
	vizCmd.Flags().StringVar(&vizPDFOut, "pdf", "", "output PDF file path (omit for terminal output)")
	rootCmd.AddCommand(vizCmd)
}

func runViz(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if !contains(validMetrics, vizMetric) {
		return fmt.Errorf("invalid --metric %q; valid options: %s", vizMetric, strings.Join(validMetrics, ", "))
	}

	records, err := loadReports(dir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no permit reports found in %s", dir)
	}

	series, months := buildSeries(records, vizMetric, vizByDistrict, vizDistrict)
	if len(series) == 0 {
		return errors.New("no data matched the given filters")
	}

	title := metricLabel(vizMetric)
	singleEntity := len(series) == 1

	if vizPDFOut != "" {
		if err := renderPDF(vizPDFOut, title, series, sortDates(months), vizByDistrict, singleEntity); err != nil {
			return fmt.Errorf("writing PDF: %w", err)
		}
		fmt.Printf("wrote %s\n", vizPDFOut)
		return nil
	}

	if singleEntity {
		for name, points := range series {
			renderChart(title+" - "+name, points)
		}
		return nil
	}
	renderTable(title, series, months, vizByDistrict)
	return nil
}

// loadReports reads every report JSON in dir. Files that do not look like
// permit reports are skipped: the directory typically also holds batch
// results and other JSON artifacts.
func loadReports(dir string) ([]permitRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	var records []permitRecord
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var report map[string]map[string]any
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		rec, ok := extractRecord(report)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// extractRecord pulls the charted values out of one decoded report. The
// issue month is mandatory: an undated permit has no place on the time axis.
func extractRecord(report map[string]map[string]any) (permitRecord, bool) {
	particulars, ok := report[parser.SectionParticulars]
	if !ok {
		return permitRecord{}, false
	}
	issued, _ := particulars["Дата выдачи"].(string)
	if len(issued) < 7 {
		return permitRecord{}, false
	}

	rec := permitRecord{month: issued[:7]}
	if territory, ok := report[parser.SectionTerritory]; ok {
		rec.district, _ = territory["Административный округ"].(string)
		if v, ok := territory["Площадь участка, кв. м"].(float64); ok {
			rec.area = v
		}
	}
	if buildings, ok := report[parser.SectionBuildings]; ok {
		if v, ok := buildings["Суммарная поэтажная площадь, кв. м"].(float64); ok {
			rec.floor = v
		}
	}
	return rec, true
}

// entityKey buckets a record into a chart series. An empty key drops the
// record.
func entityKey(rec permitRecord, byDistrict bool, filter string) string {
	if filter != "" {
		if rec.district == "" || !strings.Contains(strings.ToLower(rec.district), strings.ToLower(filter)) {
			return ""
		}
		return rec.district
	}
	if !byDistrict {
		return citywideName
	}
	if rec.district == "" {
		return noDistrict
	}
	return rec.district
}

// buildSeries aggregates records into monthly series per entity: permits
// counts documents, the area metrics sum their square meters.
func buildSeries(records []permitRecord, metric string, byDistrict bool, filter string) (map[string][]dataPoint, map[string]bool) {
	sums := make(map[string]map[string]float64) // entity -> month -> value
	allMonths := make(map[string]bool)

	for _, rec := range records {
		key := entityKey(rec, byDistrict, filter)
		if key == "" {
			continue
		}
		allMonths[rec.month] = true

		var val float64
		switch metric {
		case "permits":
			val = 1
		case "area":
			val = rec.area
		case "floor-area":
			val = rec.floor
		}
		if sums[key] == nil {
			sums[key] = make(map[string]float64)
		}
		sums[key][rec.month] += val
	}

	series := make(map[string][]dataPoint)
	for key, byMonth := range sums {
		months := make([]string, 0, len(byMonth))
		for m := range byMonth {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			series[key] = append(series[key], dataPoint{date: m, value: byMonth[m]})
		}
	}
	return series, allMonths
}

func renderTable(title string, series map[string][]dataPoint, months map[string]bool, includeTotal bool) {
	sortedMonths := sortDates(months)

	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	sort.Strings(names)

	// The total row sums every district for each month.
	var totalPoints []dataPoint
	if includeTotal && len(names) > 1 {
		agg := make(map[string]float64)
		for _, pts := range series {
			for _, p := range pts {
				agg[p.date] += p.value
			}
		}
		for _, m := range sortedMonths {
			if v, ok := agg[m]; ok {
				totalPoints = append(totalPoints, dataPoint{date: m, value: v})
			}
		}
	}

	maxName := utf8.RuneCountInString(totalName)
	for _, n := range names {
		if w := utf8.RuneCountInString(n); w > maxName {
			maxName = w
		}
	}
	if maxName < 10 {
		maxName = 10
	}

	nPeriods := len(sortedMonths)
	dateRange := ""
	if nPeriods > 0 {
		dateRange = fmt.Sprintf("%s to %s (%d months)", sortedMonths[0], sortedMonths[nPeriods-1], nPeriods)
	}

	fmt.Println(title)
	fmt.Printf("Trend: %s\n\n", dateRange)

	fmt.Printf("%s  %10s   %s\n", padRight("District", maxName), "Latest", "Trend")
	fmt.Println(strings.Repeat("─", maxName+2+10+3+nPeriods))

	for _, name := range names {
		vals := alignValues(series[name], sortedMonths)
		fmt.Printf("%s  %10s   %s\n", padRight(name, maxName), formatNum(lastNonNaN(vals)), sparkline(vals))
	}

	if len(totalPoints) > 0 {
		fmt.Println(strings.Repeat("─", maxName+2+10+3+nPeriods))
		vals := alignValues(totalPoints, sortedMonths)
		fmt.Printf("%s  %10s   %s\n", padRight(totalName, maxName), formatNum(lastNonNaN(vals)), sparkline(vals))
	}
}

// padRight pads with spaces to the given display width. fmt's %-*s pads by
// bytes, which misaligns Cyrillic district names.
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// alignValues maps dataPoints to a slice aligned with sortedMonths, filling
// gaps with NaN.
func alignValues(pts []dataPoint, sortedMonths []string) []float64 {
	lookup := make(map[string]float64, len(pts))
	for _, p := range pts {
		lookup[p.date] = p.value
	}
	vals := make([]float64, len(sortedMonths))
	for i, m := range sortedMonths {
		if v, ok := lookup[m]; ok {
			vals[i] = v
		} else {
			vals[i] = math.NaN()
		}
	}
	return vals
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

func sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	// Find min/max ignoring NaN.
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := max - min
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := 0
		if spread > 0 {
			idx = int((v - min) / spread * float64(n-1))
			if idx >= n {
				idx = n - 1
			}
		} else {
			idx = n / 2
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

func renderChart(title string, points []dataPoint) {
	if len(points) == 0 {
		fmt.Println(title)
		fmt.Println("(no data)")
		return
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].date < points[j].date
	})

	fmt.Println(title)
	fmt.Println()

	height := 15
	nPoints := len(points)

	// Column width: fit the data area into roughly 100 characters.
	labelWidth := 10
	available := 100 - labelWidth
	colWidth := available / nPoints
	if colWidth > 8 {
		colWidth = 8
	}
	if colWidth < 3 {
		colWidth = 3
	}

	minVal, maxVal := points[0].value, points[0].value
	for _, p := range points {
		if p.value < minVal {
			minVal = p.value
		}
		if p.value > maxVal {
			maxVal = p.value
		}
	}
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1
		minVal -= 0.5
		maxVal += 0.5
	}

	// Map each point to a row (0 = bottom, height-1 = top).
	pointRows := make([]int, nPoints)
	for i, p := range points {
		row := int(math.Round((p.value - minVal) / valRange * float64(height-1)))
		if row < 0 {
			row = 0
		}
		if row >= height {
			row = height - 1
		}
		pointRows[i] = row
	}

	totalWidth := nPoints * colWidth
	grid := make([][]rune, height)
	for r := 0; r < height; r++ {
		grid[r] = make([]rune, totalWidth)
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}

	// Place data points and connect them with interpolated dots.
	for i := 0; i < nPoints; i++ {
		col := i*colWidth + colWidth/2
		grid[pointRows[i]][col] = '●'

		if i < nPoints-1 {
			startCol := col
			endCol := (i+1)*colWidth + colWidth/2
			startRow := pointRows[i]
			endRow := pointRows[i+1]
			colSpan := endCol - startCol
			for c := startCol + 1; c < endCol; c++ {
				t := float64(c-startCol) / float64(colSpan)
				r := int(math.Round(float64(startRow) + t*float64(endRow-startRow)))
				if r < 0 {
					r = 0
				}
				if r >= height {
					r = height - 1
				}
				if grid[r][c] == ' ' {
					grid[r][c] = '·'
				}
			}
		}
	}

	// Y-axis labels: 5 evenly spaced.
	yLabels := make(map[int]string)
	for i := 0; i < 5; i++ {
		row := int(math.Round(float64(i) / 4.0 * float64(height-1)))
		val := minVal + float64(row)/float64(height-1)*valRange
		yLabels[row] = formatCompact(val)
	}

	for r := height - 1; r >= 0; r-- {
		label := ""
		if l, ok := yLabels[r]; ok {
			label = l
		}
		fmt.Printf("%8s │%s\n", label, string(grid[r]))
	}

	fmt.Printf("%8s └%s\n", "", strings.Repeat("─", totalWidth))

	// X-axis labels, thinned to whatever fits under the columns.
	labelEvery := 1
	if colWidth < 8 {
		labelEvery = (8 + colWidth - 1) / colWidth
	}
	xLine := make([]byte, totalWidth)
	for i := range xLine {
		xLine[i] = ' '
	}
	for i := 0; i < nPoints; i += labelEvery {
		pos := i*colWidth + colWidth/2 - len(points[i].date)/2
		if pos < 0 {
			pos = 0
		}
		label := points[i].date
		for j := 0; j < len(label) && pos+j < totalWidth; j++ {
			xLine[pos+j] = label[j]
		}
	}
	fmt.Printf("%8s  %s\n", "", string(xLine))
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	if v == float64(int64(v)) && math.Abs(v) < 1e15 {
		return formatInt(int64(v))
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatInt(v int64) string {
	s := strconv.FormatInt(v, 10)
	if v < 0 {
		return "-" + addCommas(s[1:])
	}
	return addCommas(s)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var sb strings.Builder
	pre := n % 3
	if pre > 0 {
		sb.WriteString(s[:pre])
		sb.WriteByte(',')
	}
	for i := pre; i < n; i += 3 {
		sb.WriteString(s[i : i+3])
		if i+3 < n {
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

func formatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}

func metricLabel(m string) string {
	switch m {
	case "permits":
		return "Permits issued"
	case "area":
		return "Parcel area, sq m"
	case "floor-area":
		return "Floor area, sq m"
	}
	return m
}

func sortDates(dates map[string]bool) []string {
	sorted := make([]string, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	return sorted
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
