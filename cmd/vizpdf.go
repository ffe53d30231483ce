package cmd

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// A4 pages.
const (
	pageWidth  = 21.0 * vg.Centimeter
	pageHeight = 29.7 * vg.Centimeter
	pdfMargin  = 2.0 * vg.Centimeter
)

var chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}

func renderPDF(path, title string, series map[string][]dataPoint, sortedMonths []string, includeTotal bool, singleEntity bool) error {
	// The Liberation font in vgpdf does not render em and en dash glyphs
	// correctly, so any dash in the title becomes a plain hyphen.
	title = strings.ReplaceAll(title, "—", "-")
	title = strings.ReplaceAll(title, "–", "-")

	c := vgpdf.New(pageWidth, pageHeight)

	if singleEntity {
		var name string
		var points []dataPoint
		for k, v := range series {
			name = k
			points = v
			break
		}
		drawChartPage(c, title+" - "+name, points, sortedMonths)
	} else {
		names := sortedEntityNames(series)

		// The total series sums every district for each month.
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

		drawSummaryPages(c, title, series, names, sortedMonths, totalPoints)

		for _, name := range names {
			c.NextPage()
			drawChartPage(c, title+" - "+name, series[name], sortedMonths)
		}
		if len(totalPoints) > 0 {
			c.NextPage()
			drawChartPage(c, title+" - "+totalName, totalPoints, sortedMonths)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedEntityNames(series map[string][]dataPoint) []string {
	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

const (
	summaryRowHeight = 0.8 * vg.Centimeter
	nameColWidth     = 6.5 * vg.Centimeter
	valueColWidth    = 2.5 * vg.Centimeter
)

// drawSummaryPages lays out the sparkline-per-district overview, continuing
// onto extra pages when the district list does not fit.
func drawSummaryPages(c *vgpdf.Canvas, title string, series map[string][]dataPoint, names []string, sortedMonths []string, totalPoints []dataPoint) {
	usableW := pageWidth - 2*pdfMargin
	usableH := pageHeight - 2*pdfMargin
	sparkColWidth := usableW - nameColWidth - valueColWidth

	headerHeight := 2.5 * vg.Centimeter
	maxRowsPerPage := int((usableH - headerHeight) / summaryRowHeight)

	dateRange := ""
	if len(sortedMonths) > 0 {
		dateRange = fmt.Sprintf("%s to %s (%d months)", sortedMonths[0], sortedMonths[len(sortedMonths)-1], len(sortedMonths))
	}

	type row struct {
		name   string
		points []dataPoint
		isSep  bool
	}

	var rows []row
	for _, n := range names {
		rows = append(rows, row{name: n, points: series[n]})
	}
	if len(totalPoints) > 0 {
		rows = append(rows, row{isSep: true})
		rows = append(rows, row{name: totalName, points: totalPoints})
	}

	pageNum := 0
	rowIdx := 0
	for rowIdx < len(rows) {
		if pageNum > 0 {
			c.NextPage()
		}
		pageNum++

		dc := draw.New(c)
		area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

		var yTop vg.Length
		if pageNum == 1 {
			yTop = area.Max.Y
			fillText(area, title, vg.Points(14), area.Min.X, yTop-vg.Points(14), color.Black)
			fillText(area, dateRange, vg.Points(10), area.Min.X, yTop-1.0*vg.Centimeter, color.Gray{Y: 100})

			headerY := yTop - 1.6*vg.Centimeter
			fillText(area, "District", vg.Points(10), area.Min.X, headerY, color.Gray{Y: 80})
			fillText(area, "Latest", vg.Points(10), area.Min.X+nameColWidth, headerY, color.Gray{Y: 80})
			fillText(area, "Trend", vg.Points(10), area.Min.X+nameColWidth+valueColWidth, headerY, color.Gray{Y: 80})

			sepY := headerY - vg.Points(6)
			strokeHLine(area, area.Min.X, area.Min.X+usableW, sepY, color.Gray{Y: 180})

			yTop = sepY - vg.Points(4)
		} else {
			yTop = area.Max.Y - vg.Points(8)
			fillText(area, title+" (continued)", vg.Points(10), area.Min.X, yTop, color.Gray{Y: 100})
			yTop -= 0.7 * vg.Centimeter
		}

		rowsThisPage := maxRowsPerPage
		if pageNum == 1 {
			rowsThisPage = int((yTop - area.Min.Y) / summaryRowHeight)
		}

		drawn := 0
		for rowIdx < len(rows) && drawn < rowsThisPage {
			r := rows[rowIdx]
			rowIdx++
			if r.isSep {
				y := yTop - vg.Length(drawn)*summaryRowHeight - vg.Points(4)
				strokeHLine(area, area.Min.X, area.Min.X+usableW, y, color.Gray{Y: 180})
				continue
			}
			y := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight*0.65
			fillText(area, r.name, vg.Points(9), area.Min.X, y, color.Black)

			vals := alignValues(r.points, sortedMonths)
			fillText(area, formatNum(lastNonNaN(vals)), vg.Points(9), area.Min.X+nameColWidth, y, color.Black)

			sparkX := area.Min.X + nameColWidth + valueColWidth
			sparkY := yTop - vg.Length(drawn)*summaryRowHeight - summaryRowHeight + vg.Points(2)
			sparkArea := draw.Canvas{
				Canvas: area.Canvas,
				Rectangle: vg.Rectangle{
					Min: vg.Point{X: sparkX, Y: sparkY},
					Max: vg.Point{X: sparkX + sparkColWidth, Y: sparkY + summaryRowHeight - vg.Points(3)},
				},
			}
			drawSparkline(sparkArea, vals)

			drawn++
		}
	}
}

// drawSparkline plots the aligned monthly values without axes. Months the
// district has no permits in stay as gaps.
func drawSparkline(c draw.Canvas, vals []float64) {
	var pts plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			pts = append(pts, plotter.XY{X: float64(i), Y: v})
		}
	}
	if len(pts) < 2 {
		return
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := pts[0].Y, pts[0].Y
	for _, pt := range pts {
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

func drawChartPage(c *vgpdf.Canvas, title string, points []dataPoint, sortedMonths []string) {
	if len(points) == 0 {
		return
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].date < points[j].date
	})

	// X positions come from the shared month axis so every page lines up.
	monthIdx := make(map[string]int, len(sortedMonths))
	for i, m := range sortedMonths {
		monthIdx[m] = i
	}

	pts := make(plotter.XYs, len(points))
	for i, dp := range points {
		x, ok := monthIdx[dp.date]
		if !ok {
			x = i
		}
		pts[i] = plotter.XY{X: float64(x), Y: dp.value}
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(2)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return
	}
	scatter.Color = chartBlue
	scatter.Radius = vg.Points(3)
	scatter.Shape = draw.CircleGlyph{}

	p.Add(line, scatter, plotter.NewGrid())

	p.X.Tick.Marker = monthTicks(sortedMonths)
	p.X.Min = -0.5
	p.X.Max = float64(len(sortedMonths)) - 0.5
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Y.Tick.Marker = numTicks{}

	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	p.Draw(area)
}

// monthTicks labels at most a dozen of the monthly X positions.
type monthTicks []string

func (mt monthTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(mt)
	if n == 0 {
		return ticks
	}

	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}

	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = mt[i]
		}
		ticks = append(ticks, t)
	}
	return ticks
}

type numTicks struct{}

func (numTicks) Ticks(min, max float64) []plot.Tick {
	t := plot.DefaultTicks{}
	ticks := t.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCompact(ticks[i].Value)
		}
	}
	return ticks
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
