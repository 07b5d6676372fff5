package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/vsroc/pkg/config"
	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/manifest"
	"github.com/gilchrisn/vsroc/pkg/metrics"
	"github.com/gilchrisn/vsroc/pkg/plot"
	"github.com/gilchrisn/vsroc/pkg/ranking"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

// Pipeline runs load -> intersect -> count -> build -> evaluate -> render
// for one manifest.
type Pipeline struct {
	cfg      *config.Config
	renderer plot.Renderer
	logger   zerolog.Logger
}

// Result contains the complete output of one run
type Result struct {
	RunID      string
	Title      string
	Totals     intersect.Totals
	Shared     int
	Curves     []curve.Curve
	Baselines  curve.Baselines
	Bundles    []metrics.Bundle
	Summaries  []metrics.Summary
	Window     curve.Window
	XAxis      curve.Axis
	Markers    []curve.MarkerHit
	CurveFiles []string
	Reused     bool
	RuntimeMS  int64
}

// PlotOptions are the presentation settings of a run. An empty XAxis is
// AxisLibrary.
type PlotOptions struct {
	XAxis  curve.Axis
	XLabel string
	YLabel string
	Zoom   float64
	LogX   bool
}

// New creates a pipeline. A nil renderer skips rendering.
func New(cfg *config.Config, renderer plot.Renderer, logger zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, renderer: renderer, logger: logger}
}

// PlotOptionsFor resolves the plot settings of m against the configuration.
func (p *Pipeline) PlotOptionsFor(m *manifest.Manifest) (PlotOptions, error) {
	axisName := p.cfg.XAxis()
	if m.XAxis != "" {
		axisName = m.XAxis
	}
	axis, err := curve.ParseAxis(axisName)
	if err != nil {
		return PlotOptions{}, err
	}

	opts := PlotOptions{
		XAxis:  axis,
		XLabel: p.cfg.XLabel(),
		YLabel: p.cfg.YLabel(),
		Zoom:   p.cfg.Zoom(),
		LogX:   p.cfg.LogX(),
	}
	if axis == curve.AxisTrueNegatives {
		opts.XLabel = p.cfg.ROCXLabel()
	}
	if m.XLabel != "" {
		opts.XLabel = m.XLabel
	}
	if m.YLabel != "" {
		opts.YLabel = m.YLabel
	}
	if m.Zoom != nil {
		opts.Zoom = *m.Zoom
	}
	if m.LogX != nil {
		opts.LogX = *m.LogX
	}
	return opts, nil
}

// CurveLocation returns the store and file name of an experiment's curve.
// Without a curve directory the curve sits next to the ranked result.
func (p *Pipeline) CurveLocation(m *manifest.Manifest, exp manifest.Experiment, axis curve.Axis) (*curve.Store, string) {
	name := curve.FileName(curve.Key{
		Legend:        exp.Legend,
		TruePositives: m.TruePositives,
		TrueNegatives: m.TrueNegatives,
		Omit:          m.OmitSpec(),
		Axis:          axis,
	})
	dir := p.cfg.CurveDir()
	if dir == "" {
		dir = filepath.Dir(exp.Path)
	}
	return curve.NewStore(dir), name
}

// curvePaths resolves every experiment's curve file and fails when two
// experiments would share one.
func (p *Pipeline) curvePaths(m *manifest.Manifest, axis curve.Axis) ([]string, error) {
	paths := make([]string, len(m.Experiments))
	owner := make(map[string]string, len(m.Experiments))
	for i, exp := range m.Experiments {
		store, name := p.CurveLocation(m, exp, axis)
		path := filepath.Clean(store.Path(name))
		if other, taken := owner[path]; taken {
			return nil, vserr.New(vserr.KindParse, exp.Legend,
				"curve file %s is also used by %s, choose distinct legends", path, other)
		}
		owner[path] = exp.Legend
		paths[i] = path
	}
	return paths, nil
}

// Run executes the complete pipeline for m.
func (p *Pipeline) Run(ctx context.Context, m *manifest.Manifest) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	cats, err := m.Categories()
	if err != nil {
		return nil, err
	}
	markers, err := m.MarkerList()
	if err != nil {
		return nil, err
	}
	opts, err := p.PlotOptionsFor(m)
	if err != nil {
		return nil, err
	}
	if err := m.CheckAxis(opts.XAxis); err != nil {
		return nil, err
	}
	curveFiles, err := p.curvePaths(m, opts.XAxis)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("title", m.Title).
		Int("experiments", len(m.Experiments)).
		Int("true_positives", cats.TruePositives.Len()).
		Int("true_negatives", cats.TrueNegatives.Len()).
		Str("omit", cats.Omit.String()).
		Str("x_axis", string(opts.XAxis)).
		Int("workers", p.cfg.Workers()).
		Msg("Starting run")

	if p.cfg.ReuseCurves() && storedCurvesExist(curveFiles) {
		logger.Info().Msg("Stored curves found, skipping recomputation")
		stored := make([]manifest.Experiment, len(m.Experiments))
		for i, exp := range m.Experiments {
			stored[i] = manifest.Experiment{Legend: exp.Legend, Group: exp.GroupName(), Path: curveFiles[i]}
		}
		res, err := p.replot(ctx, logger, runID, m.Title, stored, opts)
		if err != nil {
			return nil, err
		}
		if len(markers) > 0 {
			logger.Warn().Int("markers", len(markers)).Msg("Markers need the ranked results and are skipped for stored curves")
		}
		res.Reused = true
		res.RuntimeMS = time.Since(startTime).Milliseconds()
		return res, nil
	}

	// Step 1: load every ranked result
	results, err := p.loadAll(ctx, logger, m.Experiments)
	if err != nil {
		return nil, err
	}

	// Step 2: reduce to the shared population
	intersected, shared, err := intersect.Intersect(results, intersect.WithUniverse(cats.Universe()))
	if err != nil {
		return nil, err
	}
	logger.Info().Int("shared", shared.Len()).Msg("Intersection completed")

	// Step 3: recount the categories per experiment and compare
	named := make([]intersect.NamedTotals, len(intersected))
	for i, r := range intersected {
		t, err := intersect.CountTotals(intersect.Shared(r.IDSet()), cats)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Experiments[i].Legend, err)
		}
		named[i] = intersect.NamedTotals{Name: m.Experiments[i].Legend, Totals: t}
		logger.Debug().
			Str("experiment", m.Experiments[i].Legend).
			Int("records", r.Len()).
			Int("library_total", t.Library).
			Int("true_positive_total", t.TruePositives).
			Msg("Categories counted")
	}
	if err := intersect.CheckTotals(named); err != nil {
		return nil, err
	}
	totals := named[0].Totals

	logger.Info().
		Int("library_total", totals.Library).
		Int("true_positive_total", totals.TruePositives).
		Int("true_negative_total", totals.TrueNegatives).
		Msg("Totals agree across experiments")

	// Step 4: build and store the curves
	curves, files, err := p.buildAll(ctx, logger, m, intersected, cats, totals, opts.XAxis)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		Title:      m.Title,
		Totals:     totals,
		Shared:     shared.Len(),
		Curves:     curves,
		CurveFiles: files,
		XAxis:      opts.XAxis,
	}
	for i, r := range intersected {
		res.Markers = append(res.Markers, curve.LocateMarkers(r, curves[i], cats, markers)...)
	}

	// Step 5: metrics and rendering
	groups := make([]string, len(m.Experiments))
	sources := make([]string, len(m.Experiments))
	for i, exp := range m.Experiments {
		groups[i] = exp.GroupName()
		sources[i] = exp.Path
	}
	if err := p.finish(ctx, logger, res, groups, sources, opts); err != nil {
		return nil, err
	}

	res.RuntimeMS = time.Since(startTime).Milliseconds()
	logger.Info().Int64("runtime_ms", res.RuntimeMS).Msg("Run completed")
	return res, nil
}

// Replot evaluates and renders stored curve files. Experiment paths name
// curve files, not ranked results.
func (p *Pipeline) Replot(ctx context.Context, title string, stored []manifest.Experiment, opts PlotOptions) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	res, err := p.replot(ctx, logger, runID, title, stored, opts)
	if err != nil {
		return nil, err
	}
	res.Reused = true
	res.RuntimeMS = time.Since(startTime).Milliseconds()
	logger.Info().Int64("runtime_ms", res.RuntimeMS).Msg("Replot completed")
	return res, nil
}

func (p *Pipeline) replot(ctx context.Context, logger zerolog.Logger, runID, title string, stored []manifest.Experiment, opts PlotOptions) (*Result, error) {
	if len(stored) == 0 {
		return nil, fmt.Errorf("no stored curves to plot")
	}

	curves := make([]curve.Curve, len(stored))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers())
	for i, s := range stored {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := curve.Load(s.Path, s.Legend)
			if err != nil {
				return err
			}
			curves[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	axis := opts.XAxis
	if axis == "" {
		axis = curve.AxisLibrary
	}
	named := make([]intersect.NamedTotals, len(curves))
	for i, c := range curves {
		t, err := curve.Totals(c, axis)
		if err != nil {
			return nil, err
		}
		named[i] = intersect.NamedTotals{Name: c.Legend, Totals: t}
	}
	if err := intersect.CheckTotals(named); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:  runID,
		Title:  title,
		Totals: named[0].Totals,
		Shared: named[0].Totals.Library,
		Curves: curves,
		XAxis:  axis,
	}
	groups := make([]string, len(stored))
	sources := make([]string, len(stored))
	for i, s := range stored {
		groups[i] = s.GroupName()
		sources[i] = s.Path
		res.CurveFiles = append(res.CurveFiles, s.Path)
	}

	logger.Info().
		Int("curves", len(curves)).
		Int("library_total", res.Totals.Library).
		Int("true_positive_total", res.Totals.TruePositives).
		Msg("Stored curves loaded")

	if err := p.finish(ctx, logger, res, groups, sources, opts); err != nil {
		return nil, err
	}
	return res, nil
}

func storedCurvesExist(paths []string) bool {
	for _, path := range paths {
		if !curve.NewStore(filepath.Dir(path)).Exists(filepath.Base(path)) {
			return false
		}
	}
	return true
}

func (p *Pipeline) loadAll(ctx context.Context, logger zerolog.Logger, exps []manifest.Experiment) ([]*ranking.Result, error) {
	results := make([]*ranking.Result, len(exps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers())
	for i, exp := range exps {
		i, exp := i, exp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := ranking.LoadFile(exp.Path)
			if err != nil {
				return err
			}
			results[i] = r
			logger.Info().
				Str("experiment", exp.Legend).
				Str("path", exp.Path).
				Int("records", r.Len()).
				Msg("Ranked result loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) buildAll(ctx context.Context, logger zerolog.Logger, m *manifest.Manifest,
	intersected []*ranking.Result, cats intersect.Categories, totals intersect.Totals, axis curve.Axis) ([]curve.Curve, []string, error) {
	curves := make([]curve.Curve, len(intersected))
	files := make([]string, len(intersected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers())
	for i, r := range intersected {
		i, r := i, r
		exp := m.Experiments[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := curve.Build(r, cats, totals, axis)
			if err != nil {
				return err
			}
			c.Legend = exp.Legend

			store, name := p.CurveLocation(m, exp, axis)
			path, err := store.Save(c, name)
			if err != nil {
				return err
			}
			curves[i] = c
			files[i] = path

			logger.Info().
				Str("experiment", exp.Legend).
				Int("points", c.Len()).
				Str("curve_file", path).
				Msg("Curve built")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return curves, files, nil
}

// finish derives the baselines, evaluates every curve and renders the run.
func (p *Pipeline) finish(ctx context.Context, logger zerolog.Logger, res *Result, groups, sources []string, opts PlotOptions) error {
	mode, err := metrics.ParseMode(p.cfg.NsqMode())
	if err != nil {
		return err
	}

	res.Baselines, err = curve.NewBaselines(res.Curves[0], res.Totals.TruePositives, res.XAxis)
	if err != nil {
		return err
	}

	engine := metrics.NewEngine(mode)
	entries := make([]metrics.Entry, len(res.Curves))
	res.Bundles = make([]metrics.Bundle, len(res.Curves))
	for i, c := range res.Curves {
		// true-negative axes advance at different ranks per curve, so each
		// curve is scored against baselines on its own grid
		base := res.Baselines
		if res.XAxis == curve.AxisTrueNegatives && i > 0 {
			if base, err = curve.NewBaselines(c, res.Totals.TruePositives, res.XAxis); err != nil {
				return err
			}
		}
		b, err := engine.Evaluate(c, base)
		if err != nil {
			return err
		}
		res.Bundles[i] = b
		entries[i] = metrics.Entry{Group: groups[i], Bundle: b}

		logger.Info().
			Str("experiment", c.Legend).
			Float64("auc", b.Curve.AUC).
			Float64("auc_sqrt_x", b.Curve.AUCSqrtX).
			Float64("nsq_auc", b.NsqAuc).
			Str("nsq_mode", string(b.NsqMode)).
			Msg("Curve evaluated")
	}

	if res.Summaries, err = metrics.Summarize(entries); err != nil {
		return fmt.Errorf("failed to summarize replicate groups: %w", err)
	}
	res.Window = curve.ZoomWindow(res.Curves, opts.Zoom)

	if p.renderer == nil {
		return nil
	}

	req := plot.Request{
		RunID:     res.RunID,
		Title:     res.Title,
		Baselines: res.Baselines,
		Totals:    res.Totals,
		Axis:      res.XAxis,
		XLabel:    opts.XLabel,
		YLabel:    opts.YLabel,
		Window:    res.Window,
		LogX:      opts.LogX,
		Markers:   res.Markers,
		Summaries: res.Summaries,
	}
	for i, c := range res.Curves {
		req.Entries = append(req.Entries, plot.Entry{
			Curve:   c,
			Metrics: res.Bundles[i],
			Group:   groups[i],
			Source:  sources[i],
		})
	}
	if err := p.renderer.Render(ctx, req); err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	return nil
}
