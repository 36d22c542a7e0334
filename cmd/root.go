package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cokovskak/workloadgenerator/internal/banner"
	"github.com/cokovskak/workloadgenerator/internal/cli"
	"github.com/cokovskak/workloadgenerator/internal/dummy"
	"github.com/cokovskak/workloadgenerator/internal/runner"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "workloadgen",
	Short: "workloadgen - concurrency sweep against a compute endpoint",
	Long: `
workloadgen measures how a request/response service scales with concurrency.

It sends a single baseline request, then fires batches of 1, 10, 50, ... 1000
simultaneous requests, one level at a time, and reports mean latency,
throughput and speedup over the baseline for each level.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(viper.GetViper())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.Run(ctx, opts, cmd.OutOrStdout())
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(dummyCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.workloadgen.yaml)")

	f := rootCmd.Flags()
	f.StringP("url", "u", runner.DefaultURL, "Target endpoint")
	f.Int("n", runner.DefaultWorkload, "Workload size sent as the n query parameter")
	f.StringP("levels", "l", joinLevels(runner.DefaultLevels), "Comma separated concurrency levels")
	f.Duration("timeout", runner.DefaultTimeout, "Per request timeout")
	f.Int("max-workers", runner.DefaultMaxWorkers, "Cap on concurrent workers per level (0 = one per request)")
	f.String("plot", "load_test.png", "PNG chart output path (empty to skip)")
	f.StringP("out", "o", "", "Output filename prefix for CSV/JSON/Parquet reports")
	f.Bool("tui", false, "Show a live terminal dashboard while the sweep runs")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	viper.BindPFlags(f)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".workloadgen")
		}
	}
	viper.SetEnvPrefix("workloadgen")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

// loadOptions resolves flags, environment and config file into run options.
func loadOptions(v *viper.Viper) (cli.Options, error) {
	levels, err := levelsFrom(v.Get("levels"))
	if err != nil {
		return cli.Options{}, err
	}

	cfg := runner.Config{
		URL:        v.GetString("url"),
		Workload:   v.GetInt("n"),
		Levels:     levels,
		Timeout:    v.GetDuration("timeout"),
		MaxWorkers: v.GetInt("max-workers"),
	}
	if err := cfg.Validate(); err != nil {
		return cli.Options{}, err
	}

	return cli.Options{
		Config:      cfg,
		PlotPath:    v.GetString("plot"),
		OutPrefix:   v.GetString("out"),
		TUI:         v.GetBool("tui"),
		MetricsAddr: v.GetString("metrics-addr"),
	}, nil
}

// levelsFrom accepts "1,10,50" from flags and env, or a YAML list.
func levelsFrom(raw interface{}) ([]int, error) {
	switch val := raw.(type) {
	case nil:
		return append([]int(nil), runner.DefaultLevels...), nil
	case string:
		return runner.ParseLevels(val)
	}
	levels, err := cast.ToIntSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid levels: %w", err)
	}
	return levels, nil
}

func joinLevels(levels []int) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, ",")
}

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a local /compute server to sweep against",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		srv := dummy.Start(dummy.ServerConfig{Port: port})
		fmt.Fprintf(cmd.OutOrStdout(), "🧪 Dummy server on http://localhost:%d/compute\n", port)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8080, "Port to run dummy server on")
}
