package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/cokovskak/workloadgenerator/internal/runner"
)

func TestLoadOptionsDefaults(t *testing.T) {
	v := viper.New()
	v.BindPFlags(rootCmd.Flags())

	opts, err := loadOptions(v)
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	if !reflect.DeepEqual(opts.Config, runner.DefaultConfig()) {
		t.Errorf("config = %+v, want defaults %+v", opts.Config, runner.DefaultConfig())
	}
	if opts.PlotPath != "load_test.png" {
		t.Errorf("plot = %q", opts.PlotPath)
	}
	if opts.TUI || opts.OutPrefix != "" || opts.MetricsAddr != "" {
		t.Errorf("unexpected optional outputs enabled: %+v", opts)
	}
}

func TestLoadOptionsFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	yaml := `url: http://localhost:8080/compute
n: 1000
levels: [1, 5, 20]
timeout: 30s
max-workers: 0
out: results/run1
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.BindPFlags(rootCmd.Flags())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	opts, err := loadOptions(v)
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	want := runner.Config{
		URL:        "http://localhost:8080/compute",
		Workload:   1000,
		Levels:     []int{1, 5, 20},
		Timeout:    30 * time.Second,
		MaxWorkers: 0,
	}
	if !reflect.DeepEqual(opts.Config, want) {
		t.Errorf("config = %+v, want %+v", opts.Config, want)
	}
	if opts.OutPrefix != "results/run1" {
		t.Errorf("out = %q", opts.OutPrefix)
	}
}

func TestLoadOptionsRejectsBadLevels(t *testing.T) {
	for _, levels := range []string{"1,x,3", "0,10", ""} {
		v := viper.New()
		v.BindPFlags(rootCmd.Flags())
		v.Set("levels", levels)
		if _, err := loadOptions(v); err == nil {
			t.Errorf("levels %q accepted", levels)
		}
	}
}

func TestLevelsFromSlice(t *testing.T) {
	got, err := levelsFrom([]interface{}{1, "10", 50})
	if err != nil {
		t.Fatalf("levelsFrom: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 10, 50}) {
		t.Errorf("levels = %v", got)
	}
}
