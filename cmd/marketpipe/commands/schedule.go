package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/marketpipe/internal/pipelineconfig"
	"github.com/wonny/marketpipe/internal/scheduler"
	"github.com/wonny/marketpipe/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "스케줄러 관리",
	Long: `파이프라인 정기 실행 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/marketpipe schedule start
  go run ./cmd/marketpipe schedule list
  go run ./cmd/marketpipe schedule run market_pipeline`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- market_pipeline: $PIPELINE_SCHEDULE (기본: 평일 16:30)
- run_retention: 매일 03:00 (DATABASE_URL 설정 시, 오래된 실행 결과 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	scheduleListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var (
	retention  time.Duration
	jobRetries int
	retryDelay time.Duration
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)

	scheduleCmd.PersistentFlags().DurationVar(&retention, "retention", 90*24*time.Hour, "stored runs older than this are deleted")
	scheduleCmd.PersistentFlags().IntVar(&jobRetries, "retries", 2, "retries per failed job run")
	scheduleCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", time.Minute, "delay between job retries")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== marketpipe Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	stats := sched.GetJobStats()
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-16s %s\n", jobName, stats[jobName].Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-16s %s\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		fmt.Printf("❌ %s failed after %.2fs: %s\n", result.JobName, result.Duration.Seconds(), result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	fmt.Printf("✅ %s completed in %.2fs\n", result.JobName, result.Duration.Seconds())
	return nil
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp(context.Background())
	if err != nil {
		return nil, nil, err
	}

	cfg, err := a.pipelineConfig(pipelineconfig.Overrides{})
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	sched := scheduler.New(a.log, scheduler.WithRetry(jobRetries, retryDelay))

	var (
		saver    jobs.RunSaver
		observer jobs.InsightObserver
	)
	if a.store != nil {
		saver = a.store
	}
	if a.metrics != nil {
		observer = a.metrics
	}

	registered := []scheduler.Job{
		jobs.NewPipelineJob(a.pipeline, cfg, a.cfg.Pipeline.Schedule, saver, observer, a.log),
	}
	if a.store != nil {
		registered = append(registered, jobs.NewRetentionJob(a.store, retention, a.log))
	}

	for _, job := range registered {
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}
