package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	pipelineFile string
	logLevel     string
	fixtureFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketpipe",
	Short: "marketpipe - 시장 데이터 분석 파이프라인",
	Long: `marketpipe CLI

수집 → 가공 → 기술적 분석 → 인사이트 4단계 파이프라인.
가격 이력을 받아 지표, 시그널, 리스크, 추천 리포트를 생성합니다.

Usage:
  go run ./cmd/marketpipe [command]

Examples:
  go run ./cmd/marketpipe run --tickers AAPL,MSFT
  go run ./cmd/marketpipe run --pipeline pipeline.yaml --xlsx report.xlsx
  go run ./cmd/marketpipe api
  go run ./cmd/marketpipe schedule start
  go run ./cmd/marketpipe sources`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&pipelineFile, "pipeline", "", "pipeline YAML (default: $PIPELINE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&fixtureFile, "fixture", "", "JSON price fixture served as the primary source")
}
