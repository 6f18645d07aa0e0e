package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/komsit37/fa/pkg/fa/config"
	"github.com/komsit37/fa/pkg/fa/filter"
	"github.com/komsit37/fa/pkg/fa/logging"
	"github.com/komsit37/fa/pkg/fa/pipeline"
	"github.com/komsit37/fa/pkg/fa/provider"
	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/render"
	"github.com/komsit37/fa/pkg/fa/source"
	"github.com/komsit37/fa/pkg/fa/types"
)

const defaultTicker = "NISP.JK"

// Seams for tests.
var (
	stdinIsTerminal = func() bool { return isTerminal(os.Stdin) }
	askTicker       = promptTicker
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile, watchlist string

	cmd := &cobra.Command{
		Use:   "fa [TICKER...]",
		Short: "Fundamental ratio dashboard for stock tickers",
		Example: `  fa AAPL
  fa NISP.JK BBCA.JK --groups liquidity,solvency
  fa -f watchlists/banks.yaml --format csv
  fa AAPL --ratios '/Margin$/' --statements`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, config.Options{ConfigFile: configFile})
			if err != nil {
				return err
			}
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				cfg.Color = false
			}
			return run(cmd.Context(), cfg, args, watchlist)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&watchlist, "file", "f", "", "watchlist YAML file or directory")
	f.StringVar(&configFile, "config", "", "config file (default <user config dir>/fa/config.yaml)")
	f.String("start", "2020-01-01", "price history start date (YYYY-MM-DD)")
	f.String("format", "table", "output format: "+strings.Join(config.Formats, ", "))
	f.StringSlice("groups", nil, "ratio groups to show: "+strings.Join(ratio.GroupNames(), ", "))
	f.String("ratios", "", "ratio filter: a,b names, *glob, /regex/ or substring")
	f.Bool("statements", false, "also print the raw statements")
	f.Int("news", 5, "number of headlines, 0 to skip news")
	f.String("offline", "", "read <DIR>/<TICKER>.yaml fixtures instead of Yahoo")
	f.Duration("timeout", 10*time.Second, "per-request timeout")
	f.Int("max-col-width", 0, "max table column width, 0 derives from the terminal")
	f.Bool("no-color", false, "disable colors")
	f.String("log-level", "warn", "log level: trace, debug, info, warn, error")

	bindFlags(v, f, map[string]string{
		config.KeyStart:       "start",
		config.KeyFormat:      "format",
		config.KeyGroups:      "groups",
		config.KeyRatios:      "ratios",
		config.KeyStatements:  "statements",
		config.KeyNewsLimit:   "news",
		config.KeyOfflineDir:  "offline",
		config.KeyTimeout:     "timeout",
		config.KeyMaxColWidth: "max-col-width",
		config.KeyLogLevel:    "log-level",
	})
	return cmd
}

func bindFlags(v *viper.Viper, f *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func run(ctx context.Context, cfg config.Config, args []string, watchlist string) error {
	logger, err := logging.New(cfg.LogLevel, os.Stderr, cfg.Color && isTerminal(os.Stderr))
	if err != nil {
		return err
	}

	lists, err := loadLists(ctx, args, watchlist)
	if err != nil {
		return err
	}
	filt, err := ratioFilter(cfg.Groups, cfg.Ratios)
	if err != nil {
		return err
	}
	rnd, err := render.New(cfg.Format)
	if err != nil {
		return err
	}

	width := cfg.MaxColWidth
	if width == 0 {
		width = terminalWidth(os.Stdout) / 2
	}

	runner := &pipeline.Runner{
		Provider: newProvider(cfg, logger),
		Renderer: rnd,
		Writer:   os.Stdout,
		Logger:   logger,
	}
	return runner.Execute(ctx, lists, pipeline.ExecuteOptions{
		Analyze: pipeline.Options{
			Start:     cfg.StartTime(),
			NewsLimit: cfg.NewsLimit,
			Ratios:    filt,
			Logger:    logger,
		},
		Render: render.RenderOptions{
			Color:       cfg.Color && isTerminal(os.Stdout),
			PrettyJSON:  true,
			MaxColWidth: width,
			Statements:  cfg.Statements,
		},
	})
}

func newProvider(cfg config.Config, logger *log.Logger) provider.Provider {
	if cfg.OfflineDir != "" {
		logger.Info().Str("dir", cfg.OfflineDir).Msg("offline mode")
		return provider.File{Dir: cfg.OfflineDir}
	}
	return provider.NewYahoo(provider.YahooOptions{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		CookieURL: provider.DefaultYahooCookieURL,
		Logger:    logger,
	})
}

// loadLists gathers tickers from the watchlist file and the arguments,
// prompting for one on an interactive terminal when both are empty.
func loadLists(ctx context.Context, args []string, watchlist string) ([]types.Watchlist, error) {
	var lists []types.Watchlist
	if watchlist != "" {
		ls, err := source.YAMLSource{}.Load(ctx, watchlist)
		if err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		lists = append(lists, ls...)
	}
	if len(args) > 0 {
		ls, err := source.ArgsSource{}.Load(ctx, args)
		if err != nil {
			return nil, err
		}
		lists = append(lists, ls...)
	}
	if len(lists) > 0 {
		return lists, nil
	}

	if !stdinIsTerminal() {
		return nil, errors.New("no tickers: pass TICKER... or -f watchlist.yaml")
	}
	ticker, err := askTicker()
	if err != nil {
		return nil, err
	}
	return source.ArgsSource{}.Load(ctx, []string{ticker})
}

func promptTicker() (string, error) {
	var ticker string
	err := survey.AskOne(&survey.Input{
		Message: "Stock symbol (e.g. AAPL, GOOGL, NISP.JK):",
		Default: defaultTicker,
	}, &ticker, survey.WithValidator(survey.Required))
	return ticker, err
}

// ratioFilter combines the group selection with the name expression.
func ratioFilter(groups []string, expr string) (filter.Filter, error) {
	parsed, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return parsed, nil
	}
	names, err := ratio.ExpandGroups(groups)
	if err != nil {
		return nil, err
	}
	return filter.And(filter.In(names), parsed), nil
}
