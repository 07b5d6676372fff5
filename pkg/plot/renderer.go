package plot

import (
	"context"
	"fmt"
	"strings"

	"github.com/gilchrisn/vsroc/pkg/curve"
	"github.com/gilchrisn/vsroc/pkg/intersect"
	"github.com/gilchrisn/vsroc/pkg/metrics"
)

// Entry is one experiment curve with its metrics.
type Entry struct {
	Curve   curve.Curve
	Metrics metrics.Bundle
	Group   string
	Source  string
}

// Request carries everything a renderer draws for one run.
type Request struct {
	RunID     string
	Title     string
	Entries   []Entry
	Baselines curve.Baselines
	Totals    intersect.Totals
	Axis      curve.Axis
	XLabel    string
	YLabel    string
	Window    curve.Window
	LogX      bool
	Markers   []curve.MarkerHit
	Summaries []metrics.Summary
}

// XAxis returns the x axis of the run, AxisLibrary when unset.
func (r Request) XAxis() curve.Axis {
	if r.Axis == "" {
		return curve.AxisLibrary
	}
	return r.Axis
}

// XAxisTitle is the x label with the x total appended: the library, or the
// true negatives on a ROC axis.
func (r Request) XAxisTitle() string {
	return fmt.Sprintf("%s (total=%d)", r.XLabel, r.XAxis().Denominator(r.Totals))
}

// YAxisTitle is the y label with the true-positive total appended.
func (r Request) YAxisTitle() string {
	return fmt.Sprintf("%s (total=%d)", r.YLabel, r.Totals.TruePositives)
}

// Renderer is a terminal sink for a finished run.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

// Multi renders to every renderer in order and stops at the first error.
type Multi []Renderer

func (m Multi) Render(ctx context.Context, req Request) error {
	for _, r := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Render(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// FileStem turns a title into the base name of its output files.
func FileStem(title string) string {
	stem := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	stem = strings.NewReplacer("/", "_", "\\", "_").Replace(stem)
	if stem == "" {
		return "untitled"
	}
	return stem
}
