package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/vsroc/pkg/api"
	"github.com/gilchrisn/vsroc/pkg/cleanup"
	"github.com/gilchrisn/vsroc/pkg/config"
	"github.com/gilchrisn/vsroc/pkg/manifest"
	"github.com/gilchrisn/vsroc/pkg/pipeline"
	"github.com/gilchrisn/vsroc/pkg/plot"
	"github.com/gilchrisn/vsroc/pkg/runlog"
	"github.com/gilchrisn/vsroc/pkg/vserr"
)

type app struct {
	configFile string
	envFile    string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	rootCmd := a.rootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vsroc:", err)
	}
	stop()
	os.Exit(exitCode(err))
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vsroc",
		Short:         "Compare virtual screening experiments with enrichment curves",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")

	rootCmd.AddCommand(
		a.newRunCmd(),
		a.newReplotCmd(),
		a.newCleanCmd(),
		a.newServeCmd(),
	)
	return rootCmd
}

func (a *app) setup() error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return vserr.Wrap(vserr.KindIO, a.envFile, err, "could not load environment file")
	}

	a.cfg = config.NewConfig()
	if a.configFile != "" {
		if err := a.cfg.LoadFromFile(a.configFile); err != nil {
			return vserr.Wrap(vserr.KindIO, a.configFile, err, "could not load configuration")
		}
	}
	if a.logLevel != "" {
		a.cfg.Set("logging.level", a.logLevel)
	}

	a.logger = a.cfg.CreateLogger()
	log.Logger = a.logger
	return nil
}

func (a *app) renderer() plot.Renderer {
	renderers := plot.Multi{plot.NewJSONRenderer(a.cfg.ReportDir(), a.logger)}
	if a.cfg.Workbook() {
		renderers = append(renderers, plot.NewWorkbookRenderer(a.cfg.ReportDir(), a.logger))
	}
	return renderers
}

type runFlags struct {
	manifestPath  string
	truePositives string
	trueNegatives string
	omit          string
	markers       string
	zoom          float64
	logX          bool
	xAxis         string
	nsqMode       string
	curveDir      string
	reportDir     string
	workers       int
	reuse         bool
	noWorkbook    bool
}

func (a *app) newRunCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [title] [legend results.csv]...",
		Short: "Build curves and metrics from ranked results",
		Long: `Intersect the ranked results of every experiment, build one enrichment
curve per experiment, evaluate AUC, AUC over sqrt(x) and NSQ_AUC, and write
the report and workbook.

Experiments come from a manifest or from the command line:
  vsroc run -m run.yaml
  vsroc run "Kinase benchmark" glide glide/results.csv icm icm/results.csv --tp 1-514 --omit 0-0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyRunFlags(cmd, f)

			var m *manifest.Manifest
			var err error
			if f.manifestPath != "" {
				if len(args) > 0 {
					return vserr.New(vserr.KindParse, "run", "positional experiments cannot be combined with --manifest")
				}
				m, err = manifest.Load(f.manifestPath)
			} else {
				m, err = manifestFromArgs(args, f)
			}
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("zoom") {
				m.Zoom = &f.zoom
			}
			if cmd.Flags().Changed("log-x") {
				m.LogX = &f.logX
			}
			if cmd.Flags().Changed("x-axis") {
				m.XAxis = f.xAxis
			}

			p := pipeline.New(a.cfg, a.renderer(), a.logger)
			res, err := p.Run(cmd.Context(), m)
			if err != nil {
				return err
			}
			printResult(res)
			return a.writeRunLog(res.RunID)
		},
	}

	cmd.Flags().StringVarP(&f.manifestPath, "manifest", "m", "", "Run manifest (yaml)")
	cmd.Flags().StringVar(&f.truePositives, "tp", "", "True positive IDs, e.g. 1-514,6001")
	cmd.Flags().StringVar(&f.trueNegatives, "tn", "", "True negative IDs; restricts the library to tp+tn")
	cmd.Flags().StringVar(&f.omit, "omit", "", "IDs to omit; 0-0 omits nothing")
	cmd.Flags().StringVar(&f.markers, "markers", "", "Reference ligands to locate, e.g. lig1:328,lig2:535")
	cmd.Flags().Float64Var(&f.zoom, "zoom", 0, "Inset of the first N percent of the x-axis; 0 disables it")
	cmd.Flags().BoolVar(&f.logX, "log-x", false, "Logarithmic x-axis")
	addOutputFlags(cmd, &f)
	return cmd
}

func addXAxisFlag(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVar(&f.xAxis, "x-axis", "", "X axis: library (enrichment) or true_negatives (ROC, needs --tn)")
}

func addOutputFlags(cmd *cobra.Command, f *runFlags) {
	addXAxisFlag(cmd, f)
	cmd.Flags().StringVar(&f.nsqMode, "nsq-mode", "", "NSQ_AUC normalization: normalized|literal")
	cmd.Flags().StringVar(&f.curveDir, "curve-dir", "", "Directory for stored curves (default: next to each result)")
	cmd.Flags().StringVar(&f.reportDir, "report-dir", "", "Directory for reports and workbooks")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent experiments")
	cmd.Flags().BoolVar(&f.reuse, "reuse", false, "Reuse stored curves when all of them exist")
	cmd.Flags().BoolVar(&f.noWorkbook, "no-workbook", false, "Skip the xlsx workbook")
}

// applyRunFlags copies explicitly set flags over the configuration.
func (a *app) applyRunFlags(cmd *cobra.Command, f runFlags) {
	changed := cmd.Flags().Changed
	if changed("nsq-mode") {
		a.cfg.Set("run.nsq_mode", f.nsqMode)
	}
	if changed("curve-dir") {
		a.cfg.Set("output.curve_dir", f.curveDir)
	}
	if changed("report-dir") {
		a.cfg.Set("output.report_dir", f.reportDir)
	}
	if changed("workers") {
		a.cfg.Set("run.workers", f.workers)
	}
	if changed("reuse") {
		a.cfg.Set("run.reuse_curves", f.reuse)
	}
	if changed("no-workbook") {
		a.cfg.Set("output.workbook", !f.noWorkbook)
	}
}

// manifestFromArgs builds a manifest from "title legend path [legend path]...".
func manifestFromArgs(args []string, f runFlags) (*manifest.Manifest, error) {
	if len(args) < 3 || len(args)%2 == 0 {
		return nil, vserr.New(vserr.KindParse, "run", "expected a title followed by legend and path pairs")
	}

	m := &manifest.Manifest{
		Title:         args[0],
		TruePositives: f.truePositives,
		TrueNegatives: f.trueNegatives,
		Omit:          f.omit,
		Markers:       f.markers,
	}
	for i := 1; i < len(args); i += 2 {
		m.Experiments = append(m.Experiments, manifest.Experiment{Legend: args[i], Path: args[i+1]})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) newReplotCmd() *cobra.Command {
	var f runFlags
	var xLabel, yLabel string

	cmd := &cobra.Command{
		Use:   "replot [title] [legend curve.csv]...",
		Short: "Evaluate and render stored curve files",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyRunFlags(cmd, f)
			if len(args)%2 == 0 {
				return vserr.New(vserr.KindParse, "replot", "expected a title followed by legend and curve file pairs")
			}

			var stored []manifest.Experiment
			for i := 1; i < len(args); i += 2 {
				stored = append(stored, manifest.Experiment{Legend: args[i], Path: args[i+1]})
			}

			p := pipeline.New(a.cfg, a.renderer(), a.logger)
			opts, err := p.PlotOptionsFor(&manifest.Manifest{XAxis: f.xAxis, XLabel: xLabel, YLabel: yLabel})
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("zoom") {
				opts.Zoom = f.zoom
			}
			if cmd.Flags().Changed("log-x") {
				opts.LogX = f.logX
			}

			res, err := p.Replot(cmd.Context(), args[0], stored, opts)
			if err != nil {
				return err
			}
			printResult(res)
			return a.writeRunLog(res.RunID)
		},
	}

	cmd.Flags().Float64Var(&f.zoom, "zoom", 0, "Inset of the first N percent of the x-axis; 0 disables it")
	cmd.Flags().BoolVar(&f.logX, "log-x", false, "Logarithmic x-axis")
	cmd.Flags().StringVar(&xLabel, "x-label", "", "X axis label")
	cmd.Flags().StringVar(&yLabel, "y-label", "", "Y axis label")
	addOutputFlags(cmd, &f)
	return cmd
}

func (a *app) newCleanCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clean [dir]",
		Short: "Delete slice directories and log files left by earlier runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			listing, err := cleanup.ReadListing(dir)
			if err != nil {
				return err
			}
			plan := cleanup.PlanDeletions(dir, listing)

			confirm := cleanup.Prompt(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = cleanup.AlwaysConfirm
			}
			out, err := cleanup.Apply(plan, confirm)
			if err != nil {
				return err
			}

			a.logger.Info().
				Str("dir", dir).
				Int("planned", out.Planned).
				Int("removed", out.Removed).
				Bool("declined", out.Declined).
				Msg("Cleanup finished")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	var address, reportDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("address") {
				a.cfg.Set("server.address", address)
			}
			if cmd.Flags().Changed("report-dir") {
				a.cfg.Set("output.report_dir", reportDir)
			}

			a.logger.Info().
				Str("address", a.cfg.ServerAddress()).
				Str("report_dir", a.cfg.ReportDir()).
				Dur("read_timeout", a.cfg.ServerReadTimeout()).
				Msg("Configuration loaded")
			return api.Serve(cmd.Context(), api.NewServer(a.cfg))
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory holding the reports")
	return cmd
}

func (a *app) writeRunLog(runID string) error {
	entry, err := runlog.Current(runID)
	if err != nil {
		return err
	}
	return runlog.Write(a.cfg.LogFile(), entry)
}

func printResult(res *pipeline.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t(x axis=%s, library=%d, true positives=%d, true negatives=%d)\n",
		res.Title, res.XAxis, res.Totals.Library, res.Totals.TruePositives, res.Totals.TrueNegatives)
	fmt.Fprintln(w, "legend\tauc\tauc_sqrt_x\tnsq_auc")
	for _, b := range res.Bundles {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.6f\n", b.Legend, b.Curve.AUC, b.Curve.AUCSqrtX, b.NsqAuc)
	}
	if len(res.Bundles) > 0 {
		b := res.Bundles[0]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.6f\n", "Perfect", b.Perfect.AUC, b.Perfect.AUCSqrtX, b.Perfect.NsqAuc)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.6f\n", "Random", b.Random.AUC, b.Random.AUCSqrtX, b.Random.NsqAuc)
	}
	w.Flush()
}

// exitCode maps an error kind onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch vserr.KindOf(err) {
	case vserr.KindParse:
		return 2
	case vserr.KindEmptyIntersection:
		return 3
	case vserr.KindZeroCategory:
		return 4
	case vserr.KindMismatchedTotals:
		return 5
	case vserr.KindIO:
		return 6
	}
	return 1
}
