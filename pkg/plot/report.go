package plot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/metrics"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// ReportExt is the extension of report files in a report directory.
const ReportExt = ".json"

// ReportCurve is one experiment in a report.
type ReportCurve struct {
	Legend  string         `json:"legend"`
	Group   string         `json:"group"`
	Source  string         `json:"source,omitempty"`
	Metrics metrics.Bundle `json:"metrics"`
	Points  []curve.Point  `json:"points,omitempty"`
}

// Report is the JSON document written for a run and served by the report API.
type Report struct {
	RunID     string            `json:"run_id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	Totals    intersect.Totals  `json:"totals"`
	XAxis     curve.Axis        `json:"x_axis"`
	XLabel    string            `json:"x_label"`
	YLabel    string            `json:"y_label"`
	LogX      bool              `json:"log_x"`
	Window    curve.Window      `json:"zoom"`
	Curves    []ReportCurve     `json:"curves"`
	Perfect   curve.Curve       `json:"perfect"`
	Random    curve.Curve       `json:"random"`
	Summaries []metrics.Summary `json:"summaries,omitempty"`
	Markers   []curve.MarkerHit `json:"markers,omitempty"`
}

// NewReport builds the report document of a request.
func NewReport(req Request) *Report {
	rep := &Report{
		RunID:     req.RunID,
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
		Totals:    req.Totals,
		XAxis:     req.XAxis(),
		XLabel:    req.XAxisTitle(),
		YLabel:    req.YAxisTitle(),
		LogX:      req.LogX,
		Window:    req.Window,
		Perfect:   req.Baselines.Perfect,
		Random:    req.Baselines.Random,
		Summaries: req.Summaries,
		Markers:   req.Markers,
	}
	for _, e := range req.Entries {
		rep.Curves = append(rep.Curves, ReportCurve{
			Legend:  e.Curve.Legend,
			Group:   e.Group,
			Source:  e.Source,
			Metrics: e.Metrics,
			Points:  e.Curve.Points,
		})
	}
	return rep
}

// Overview returns a copy of the report without point data.
func (r *Report) Overview() *Report {
	out := *r
	out.Curves = make([]ReportCurve, len(r.Curves))
	for i, c := range r.Curves {
		c.Points = nil
		out.Curves[i] = c
	}
	out.Perfect = curve.Curve{Legend: r.Perfect.Legend}
	out.Random = curve.Curve{Legend: r.Random.Legend}
	return &out
}

// JSONRenderer writes the report document into Dir.
type JSONRenderer struct {
	Dir    string
	logger zerolog.Logger
}

// NewJSONRenderer creates a renderer writing into dir.
func NewJSONRenderer(dir string, logger zerolog.Logger) *JSONRenderer {
	return &JSONRenderer{Dir: dir, logger: logger}
}

// Path returns the report path for a title.
func (j *JSONRenderer) Path(title string) string {
	return filepath.Join(j.Dir, FileStem(title)+ReportExt)
}

func (j *JSONRenderer) Render(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(NewReport(req), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	path := j.Path(req.Title)
	if err := writeFileAtomic(j.Dir, path, data); err != nil {
		return err
	}

	j.logger.Info().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("Report written")
	return nil
}

// LoadReport reads a report document.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vserr.Wrap(vserr.KindIO, path, err, "could not read report")
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, vserr.Wrap(vserr.KindParse, path, err, "invalid report")
	}
	return &rep, nil
}

// ListReports returns the report names in dir, sorted. A missing directory
// holds no reports.
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, vserr.Wrap(vserr.KindIO, dir, err, "could not list reports")
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != ReportExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ReportExt))
	}
	sort.Strings(names)
	return names, nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return vserr.Wrap(vserr.KindIO, dir, err, "failed to create report directory")
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return vserr.Wrap(vserr.KindIO, path, err, "failed to create report")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to write report")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to close report")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return vserr.Wrap(vserr.KindIO, path, err, "failed to move report into place")
	}
	return nil
}
