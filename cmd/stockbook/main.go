package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/komsit37/stockbook/pkg/stockbook/config"
	"github.com/komsit37/stockbook/pkg/stockbook/logging"
	"github.com/komsit37/stockbook/pkg/stockbook/market"
	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/news"
	"github.com/komsit37/stockbook/pkg/stockbook/pipeline"
	"github.com/komsit37/stockbook/pkg/stockbook/render"
	"github.com/komsit37/stockbook/pkg/stockbook/source"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

type flags struct {
	configFile   string
	envFile      string
	period       string
	sections     string
	file         string
	fromWorkbook bool
	noColor      bool
	pretty       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var fl flags
	v := config.New()

	root := &cobra.Command{
		Use:           "stockbook",
		Short:         "Stock analysis and comparison reports in the terminal or a workbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&fl.configFile, "config", "", "YAML config file")
	pf.StringVar(&fl.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&fl.period, "period", "", "period label: "+strings.Join(types.PeriodLabels(), ", "))
	pf.String("format", "table", "output format: table, json, line or xlsx")
	pf.String("workbook", "stockbook.xlsx", "workbook path for xlsx output")
	pf.String("chart-dir", "", "also save chart PNGs to this directory")
	pf.StringVar(&fl.sections, "sections", "", `metric sections to show: names "risk,growth", glob "PROF*" or /regex/`)
	pf.StringVar(&fl.file, "file", "", "YAML file or directory with a tickers list")
	pf.BoolVar(&fl.fromWorkbook, "from-workbook", false, "read tickers and period from the workbook input cells")
	pf.BoolVar(&fl.noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&fl.pretty, "pretty", true, "indent JSON output")
	_ = v.BindPFlag(config.KeyOutputFormat, pf.Lookup("format"))
	_ = v.BindPFlag(config.KeyWorkbookPath, pf.Lookup("workbook"))
	_ = v.BindPFlag(config.KeyChartDir, pf.Lookup("chart-dir"))

	root.AddCommand(
		&cobra.Command{
			Use:   "analyze [TICKER]",
			Short: "Analyze one stock: metrics, chart and news",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, v, fl, args, source.ModeSingle)
			},
		},
		&cobra.Command{
			Use:   "compare T1 T2 [T3]",
			Short: "Compare 2 or 3 stocks side by side",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, v, fl, args, source.ModeCompare)
			},
		},
		&cobra.Command{
			Use:   "sections",
			Short: "List metric sections and their labels",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				w := cmd.OutOrStdout()
				for _, s := range metrics.Sections {
					fmt.Fprintln(w, s.Name)
					for _, l := range s.Labels {
						fmt.Fprintf(w, "  %s\n", l)
					}
				}
				return nil
			},
		},
	)
	return root
}

func run(cmd *cobra.Command, v *viper.Viper, fl flags, args []string, mode string) error {
	cfg, err := config.Load(v, fl.configFile, fl.envFile)
	if err != nil {
		return report(cmd, err)
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return report(cmd, err)
	}
	defer log.Sync() //nolint:errcheck

	sections, err := pipeline.ResolveSections(fl.sections)
	if err != nil {
		return report(cmd, err)
	}

	sel, err := selection(cmd.Context(), cfg, fl, args, mode)
	if err != nil {
		return report(cmd, err)
	}
	period := resolvePeriod(cmd, fl.period, sel.Period, log)

	a, err := newApp(cfg, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return report(cmd, err)
	}

	opts := pipeline.ExecuteOptions{
		Sections:   sections,
		Color:      !fl.noColor && os.Getenv("NO_COLOR") == "",
		PrettyJSON: fl.pretty,
	}
	if mode == source.ModeCompare {
		_, err = a.runner.Compare(cmd.Context(), sel.Tickers, period, opts)
	} else {
		for _, t := range sel.Tickers {
			if _, err = a.runner.Analyze(cmd.Context(), t, period, opts); err != nil {
				break
			}
		}
	}
	if err != nil {
		a.failed(mode)
		return report(cmd, err)
	}
	return nil
}

// selection resolves what to run from args, then --file, then the workbook.
func selection(ctx context.Context, cfg *config.Config, fl flags, args []string, mode string) (*source.Selection, error) {
	switch {
	case len(args) > 0:
		return &source.Selection{Tickers: args}, nil
	case fl.file != "":
		sel, err := source.YAMLSource{}.Load(ctx, fl.file)
		if err != nil {
			return nil, err
		}
		if mode == source.ModeCompare && len(sel.Tickers) > pipeline.MaxCompareTickers {
			sel.Tickers = sel.Tickers[:pipeline.MaxCompareTickers]
		}
		return sel, nil
	case fl.fromWorkbook:
		return source.WorkbookSource{Mode: mode}.Load(ctx, cfg.Workbook)
	}
	if mode == source.ModeCompare {
		return nil, pipeline.ErrTooFewTickers
	}
	return nil, pipeline.ErrNoTicker
}

// resolvePeriod prefers an explicit --period, then the source's period.
func resolvePeriod(cmd *cobra.Command, flagPeriod, sourcePeriod string, log *zap.Logger) string {
	p := sourcePeriod
	if f := cmd.Flag("period"); (f != nil && f.Changed) || p == "" {
		p = flagPeriod
	}
	if p == "" {
		return types.PeriodLabel(types.DefaultPeriod)
	}
	for _, l := range types.PeriodLabels() {
		if l == p {
			return p
		}
	}
	log.Warn("unknown period, using default", zap.String("period", p), zap.String("default", types.PeriodLabel(types.DefaultPeriod)))
	return types.PeriodLabel(types.DefaultPeriod)
}

func report(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	return err
}

type app struct {
	runner   *pipeline.Runner
	workbook *render.WorkbookRenderer
	last     string
	log      *zap.Logger
}

func newApp(cfg *config.Config, log *zap.Logger, stdout, stderr io.Writer) (*app, error) {
	yc := market.NewYahooClient(
		market.WithTimeout(cfg.HTTP.Timeout),
		market.WithRateLimit(cfg.HTTP.RateLimit),
		market.WithUserAgent(cfg.HTTP.UserAgent),
		market.WithLogger(log),
	)
	var summary market.SummarySource = market.NewYFSummary(cfg.HTTP.Timeout)
	if cfg.Direct {
		summary = yc
	}
	var fetcher market.Fetcher = market.NewService(yc, summary, log)
	if cfg.Cache.Size > 0 && cfg.Cache.TTL > 0 {
		fetcher = market.NewCacheService(fetcher, cfg.Cache.TTL, cfg.Cache.Size)
	}

	retriever := news.NewRetriever(log,
		news.NewYahooSource(yc),
		news.NewRSSSource(cfg.NewsRSS, &http.Client{Timeout: cfg.HTTP.Timeout}, cfg.HTTP.UserAgent),
	)

	a := &app{log: log}
	var renderer render.Renderer
	switch strings.ToLower(cfg.Output) {
	case render.FormatXLSX, "workbook":
		a.workbook = render.NewWorkbookRenderer(cfg.Workbook).WithLogger(log)
		renderer = a.workbook
	case "", render.FormatTable:
		renderer = render.NewTableRenderer(terminalWidth(stdout))
	default:
		r, err := render.New(cfg.Output, cfg.Workbook)
		if err != nil {
			return nil, err
		}
		renderer = r
	}

	a.runner = &pipeline.Runner{
		Fetcher:  fetcher,
		News:     retriever,
		Renderer: renderer,
		Writer:   stdout,
		Status: func(msg string) {
			a.last = msg
			fmt.Fprintln(stderr, msg)
		},
		Log:         log,
		Concurrency: cfg.Compare.Concurrency,
		ChartDir:    cfg.ChartDir,
	}
	return a, nil
}

// failed copies the last status into the workbook status cell.
func (a *app) failed(mode string) {
	if a.workbook == nil || a.last == "" {
		return
	}
	sheet := render.SheetSingle
	if mode == source.ModeCompare {
		sheet = render.SheetCompare
	}
	if err := a.workbook.SetStatus(sheet, a.last); err != nil {
		a.log.Warn("workbook status", zap.Error(err))
	}
}
