package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/marketpipe/internal/brain"
	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/pipelineconfig"
	"github.com/wonny/marketpipe/internal/report"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "파이프라인 1회 실행",
	Long: `수집 → 가공 → 분석 → 인사이트 파이프라인을 한 번 실행합니다.

설정 우선순위: 플래그 > --pipeline YAML > 기본값
DATABASE_URL이 설정되어 있으면 실행 결과를 저장합니다.

Example:
  go run ./cmd/marketpipe run --tickers AAPL,MSFT --period 6mo
  go run ./cmd/marketpipe run --sources primary,secondary --api-key demo
  go run ./cmd/marketpipe run --fixture testdata/prices.json --json
  go run ./cmd/marketpipe run --tickers 005930 --sources naver --xlsx report.xlsx`,
	RunE: runPipeline,
}

var (
	runTickers       []string
	runPeriod        string
	runSources       []string
	runAPIKey        string
	runStopOnFailure bool
	runJSON          bool
	runXLSX          string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runTickers, "tickers", nil, "tickers to analyze (comma separated)")
	runCmd.Flags().StringVar(&runPeriod, "period", "", "history period (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max)")
	runCmd.Flags().StringSliceVar(&runSources, "sources", nil, "data sources in priority order")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "API key for keyed sources (default: $ALPHA_VANTAGE_API_KEY)")
	runCmd.Flags().BoolVar(&runStopOnFailure, "stop-on-failure", false, "skip remaining stages after a failed stage")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full pipeline context as JSON")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "write an Excel report to this path")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	overrides := pipelineconfig.Overrides{
		Tickers:     runTickers,
		Period:      runPeriod,
		DataSources: runSources,
		APIKey:      runAPIKey,
	}
	if cmd.Flags().Changed("stop-on-failure") {
		overrides.StopOnFailure = &runStopOnFailure
	}

	cfg, err := a.pipelineConfig(overrides)
	if err != nil {
		return err
	}

	if hash, err := pipelineconfig.Hash(&cfg); err == nil {
		a.log.WithFields(map[string]interface{}{
			"config_hash": hash[:12],
			"tickers":     len(cfg.Tickers),
		}).Info("Pipeline config resolved")
	}

	if !runJSON {
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Printf("  %s v%s\n", brain.PipelineName, brain.Version)
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Printf("  Tickers   : %s\n", strings.Join(cfg.Tickers, ", "))
		fmt.Printf("  Period    : %s\n", cfg.Period)
		fmt.Printf("  Sources   : %s\n", strings.Join(cfg.DataSources, ", "))
		fmt.Println("───────────────────────────────────────────────────────────")
	}

	start := time.Now()
	pc := a.pipeline.Run(ctx, cfg)

	if a.metrics != nil {
		a.metrics.ObserveInsights(pc)
	}
	if a.store != nil {
		if err := a.store.SaveRun(ctx, pc); err != nil {
			a.log.WithError(err).WithField("run_id", pc.RunID).Error("Failed to store pipeline run")
		}
	}

	if runXLSX != "" {
		if err := writeXLSX(runXLSX, pc); err != nil {
			return err
		}
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(pc); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		fmt.Println(brain.Summary(pc))
		if runXLSX != "" {
			fmt.Printf("📄 Excel report written to %s\n", runXLSX)
		}
		printRunCompletion(pc, time.Since(start))
	}

	if !pc.Success() {
		return fmt.Errorf("pipeline run %s failed", pc.RunID)
	}
	return nil
}

func writeXLSX(path string, pc *contracts.PipelineContext) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteExcel(f, pc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printRunCompletion prints the footer in the same shape for every run
func printRunCompletion(pc *contracts.PipelineContext, elapsed time.Duration) {
	fmt.Println()
	if pc.Success() {
		fmt.Printf("✅ Run %s completed in %.2fs\n", pc.RunID, elapsed.Seconds())
		return
	}
	fmt.Printf("❌ Run %s failed after %.2fs (%d errors)\n", pc.RunID, elapsed.Seconds(), len(pc.Errors))
	for _, e := range pc.Errors {
		fmt.Printf("   - [stage %d] %s: %s\n", e.StageIndex, e.Stage, e.Error)
	}
}
