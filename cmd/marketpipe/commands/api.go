package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/marketpipe/internal/api"
	"github.com/wonny/marketpipe/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

요청 본문의 값은 --pipeline YAML 위에 덮어씌워집니다.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics (METRICS_ENABLED)
  POST /api/pipeline/run        - 파이프라인 실행
  GET  /api/pipeline/runs       - 최근 실행 목록 (DATABASE_URL)
  GET  /api/pipeline/runs/{id}  - 실행 결과 조회 (DATABASE_URL)
  GET  /api/sources             - 데이터 소스 목록

Example:
  go run ./cmd/marketpipe api
  go run ./cmd/marketpipe api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== marketpipe API Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	defaults, err := a.basePipelineConfig()
	if err != nil {
		return err
	}

	var (
		store    handlers.RunStore
		observer handlers.InsightObserver
		routes   api.Routes
	)
	if a.store != nil {
		store = a.store
		routes.Database = a.db
	}
	if a.metrics != nil {
		observer = a.metrics
		routes.Metrics = a.metrics.Handler()
	}

	routes.Pipeline = handlers.NewPipelineHandler(a.pipeline, store, observer, defaults, log)
	routes.Sources = handlers.NewSourcesHandler(a.registry)

	router := api.NewRouter(routes, log)
	server := api.New(a.cfg, log, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if routes.Metrics != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  POST /api/pipeline/run")
	fmt.Println("  GET  /api/pipeline/runs")
	fmt.Println("  GET  /api/pipeline/runs/{id}")
	fmt.Println("  GET  /api/sources")
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(ctx)
}
