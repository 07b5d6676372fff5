package plot

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

const (
	curveSheet   = "Curves"
	metricsSheet = "Metrics"
	plotSheet    = "Plot"
)

// WorkbookRenderer writes an xlsx workbook holding the curve data, the
// metrics and a scatter chart of all curves with both baselines.
type WorkbookRenderer struct {
	Dir string
	// MaxPoints caps the curve grid; larger runs skip the workbook.
	MaxPoints int
	logger    zerolog.Logger
}

// NewWorkbookRenderer creates a renderer writing into dir. MaxPoints is the
// sheet row limit minus the header row.
func NewWorkbookRenderer(dir string, logger zerolog.Logger) *WorkbookRenderer {
	return &WorkbookRenderer{Dir: dir, MaxPoints: excelize.TotalRows - 1, logger: logger}
}

// Path returns the workbook path for a title.
func (w *WorkbookRenderer) Path(title string) string {
	return filepath.Join(w.Dir, FileStem(title)+".xlsx")
}

func (w *WorkbookRenderer) Render(ctx context.Context, req Request) error {
	if len(req.Entries) == 0 {
		return fmt.Errorf("nothing to render for %q", req.Title)
	}
	if points := req.Entries[0].Curve.Len(); w.MaxPoints > 0 && points > w.MaxPoints {
		w.logger.Warn().
			Str("title", req.Title).
			Int("points", points).
			Int("max_points", w.MaxPoints).
			Msg("Curve grid exceeds the sheet row limit, workbook skipped")
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", plotSheet); err != nil {
		return fmt.Errorf("failed to name plot sheet: %w", err)
	}
	rows, err := writeCurveSheet(f, req)
	if err != nil {
		return fmt.Errorf("failed to write curve data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeMetricsSheet(f, req); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if err := addCharts(f, req, rows); err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}

	path := w.Path(req.Title)
	if err := saveWorkbook(f, w.Dir, path); err != nil {
		return err
	}

	w.logger.Info().
		Str("path", path).
		Int("curves", len(req.Entries)).
		Int("rows", rows).
		Msg("Workbook written")
	return nil
}

// ownGrid reports whether every curve needs its own x column. Curves on the
// true-negative axis advance x at different ranks.
func (r Request) ownGrid() bool {
	return r.XAxis() == curve.AxisTrueNegatives
}

// curveColumns returns the x and y columns of entry i on the Curves sheet:
// A x, B screened, C perfect, D random, then one y column per curve, or an
// x and y pair per curve on an own-grid axis.
func curveColumns(req Request, i int) (x, y int) {
	if req.ownGrid() {
		return 5 + 2*i, 6 + 2*i
	}
	return 1, 5 + i
}

// writeCurveSheet streams the x-grid, both baselines and every curve's
// values as columns. It returns the number of data rows.
func writeCurveSheet(f *excelize.File, req Request) (int, error) {
	if _, err := f.NewSheet(curveSheet); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(curveSheet)
	if err != nil {
		return 0, err
	}

	header := []interface{}{"x", "screened", req.Baselines.Perfect.Legend, req.Baselines.Random.Legend}
	rows := 0
	for _, e := range req.Entries {
		if req.ownGrid() {
			header = append(header, e.Curve.Legend+" x")
		}
		header = append(header, e.Curve.Legend)
		if e.Curve.Len() > rows {
			rows = e.Curve.Len()
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, err
	}

	grid := req.Entries[0].Curve.Points
	for i := 0; i < rows; i++ {
		row := make([]interface{}, 0, len(header))
		row = append(row, xAt(grid, i), screenedAt(grid, i),
			yAt(req.Baselines.Perfect.Points, i), yAt(req.Baselines.Random.Points, i))
		for _, e := range req.Entries {
			if req.ownGrid() {
				row = append(row, xAt(e.Curve.Points, i))
			}
			row = append(row, yAt(e.Curve.Points, i))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return 0, err
		}
	}
	return rows, sw.Flush()
}

func xAt(points []curve.Point, i int) interface{} {
	if i < len(points) {
		return points[i].X
	}
	return ""
}

func screenedAt(points []curve.Point, i int) interface{} {
	if i < len(points) {
		return points[i].Screened
	}
	return ""
}

func yAt(points []curve.Point, i int) interface{} {
	if i < len(points) {
		return points[i].Y
	}
	return ""
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func writeMetricsSheet(f *excelize.File, req Request) error {
	if _, err := f.NewSheet(metricsSheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Title", req.Title},
		{"Run", req.RunID},
		{"Library total", req.Totals.Library, "True negative total", req.Totals.TrueNegatives},
		{"True positive total", req.Totals.TruePositives, "X axis", string(req.XAxis())},
		{},
		{"Legend", "Group", "AUC", "AUC sqrt(x)", "NSQ_AUC", "NSQ mode", "NSQ_AUC literal", "NSQ_AUC normalized"},
	}
	for _, e := range req.Entries {
		m := e.Metrics
		rows = append(rows, []interface{}{
			e.Curve.Legend, e.Group, m.Curve.AUC, m.Curve.AUCSqrtX,
			m.NsqAuc, string(m.NsqMode), m.NsqAucLiteral, optional(m.NsqAucNormalized),
		})
	}
	if len(req.Entries) > 0 {
		m := req.Entries[0].Metrics
		rows = append(rows,
			[]interface{}{req.Baselines.Perfect.Legend, "", m.Perfect.AUC, m.Perfect.AUCSqrtX, m.Perfect.NsqAuc, string(m.NsqMode)},
			[]interface{}{req.Baselines.Random.Legend, "", m.Random.AUC, m.Random.AUCSqrtX, m.Random.NsqAuc, string(m.NsqMode)},
		)
	}

	if len(req.Summaries) > 0 {
		rows = append(rows, []interface{}{},
			[]interface{}{"Group", "Curves", "AUC mean", "AUC std", "NSQ_AUC mean", "NSQ_AUC std", "NSQ_AUC min", "NSQ_AUC max"})
		for _, s := range req.Summaries {
			rows = append(rows, []interface{}{
				s.Group, s.Count, s.AUC.Mean, s.AUC.StdDev,
				s.NsqAuc.Mean, s.NsqAuc.StdDev, s.NsqAuc.Min, s.NsqAuc.Max,
			})
		}
	}

	if len(req.Markers) > 0 {
		rows = append(rows, []interface{}{},
			[]interface{}{"Marker", "ID", "Curve", "Rank", "x", "y"})
		for _, h := range req.Markers {
			row := []interface{}{h.Marker.Name, int64(h.Marker.ID), h.Legend}
			if h.Found {
				row = append(row, h.Rank, h.Point.X, h.Point.Y)
			} else {
				row = append(row, "not ranked")
			}
			rows = append(rows, row)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(metricsSheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func addCharts(f *excelize.File, req Request, rows int) error {
	full := scatter(req, rows, req.Title)
	if req.LogX {
		full.XAxis.LogBase = 10
	}
	if err := f.AddChart(plotSheet, "A1", full); err != nil {
		return err
	}

	if !req.Window.Enabled {
		return nil
	}
	zoom := scatter(req, rows, fmt.Sprintf("Zoom of the first %g%%", req.Window.Zoom))
	zoom.Dimension = excelize.ChartDimension{Width: 480, Height: 320}
	xMin, xMax := 0.0, req.Window.Zoom
	yMin, yMax := 0.0, math.Floor(req.Window.Y*100)/100
	if yMax <= 0 {
		yMax = 100
	}
	zoom.XAxis.Minimum, zoom.XAxis.Maximum = &xMin, &xMax
	zoom.YAxis.Minimum, zoom.YAxis.Maximum = &yMin, &yMax
	return f.AddChart(plotSheet, "P1", zoom)
}

func scatter(req Request, rows int, title string) *excelize.Chart {
	chart := &excelize.Chart{
		Type:      excelize.Scatter,
		Title:     []excelize.RichTextRun{{Text: title}},
		Dimension: excelize.ChartDimension{Width: 960, Height: 720},
		Legend:    excelize.ChartLegend{Position: "top_right"},
		XAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: req.XAxisTitle()}},
		},
		YAxis: excelize.ChartAxis{
			MajorGridLines: true,
			Title:          []excelize.RichTextRun{{Text: req.YAxisTitle()}},
		},
	}

	series := func(xCol, yCol int) excelize.ChartSeries {
		name, _ := excelize.CoordinatesToCellName(yCol, 1, true)
		return excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!%s", curveSheet, name),
			Categories: columnRange(xCol, rows),
			Values:     columnRange(yCol, rows),
			Marker:     excelize.ChartMarker{Symbol: "none"},
		}
	}
	chart.Series = append(chart.Series, series(1, 3), series(1, 4))
	for i := range req.Entries {
		chart.Series = append(chart.Series, series(curveColumns(req, i)))
	}
	return chart
}

func columnRange(col, rows int) string {
	from, _ := excelize.CoordinatesToCellName(col, 2, true)
	to, _ := excelize.CoordinatesToCellName(col, rows+1, true)
	return fmt.Sprintf("'%s'!%s:%s", curveSheet, from, to)
}

// saveWorkbook writes to a temporary file and renames it into place.
func saveWorkbook(f *excelize.File, dir, path string) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return vserr.Wrap(vserr.KindIO, path, err, "failed to encode workbook")
	}
	return writeFileAtomic(dir, path, buf.Bytes())
}
