package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotelpulse/hotelpulse/cmd/hotelpulsectl/cli"
	"github.com/hotelpulse/hotelpulse/jobs"
)

var (
	redisAddr     string
	warmupUser    string
	warmupWindows []int
	scheduledSize int
)

var rootCmd = &cobra.Command{
	Use:   "hotelpulsectl",
	Short: "Operational helpers for the HotelPulse dashboard",
	Long:  `Trigger dashboard cache jobs, inspect the job queue and validate tenant directory files.`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage dashboard background jobs",
}

var jobsWarmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Enqueue a payload cache warmup",
	Long: `Enqueue a payload cache warmup for one user or every user.

Examples:
  hotelpulsectl jobs warmup
  hotelpulsectl jobs warmup --user ana --window 7 --window 30
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return trigger(cmd, jobs.TaskDashboardWarmup)
	},
}

var jobsInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Enqueue a payload cache invalidation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return trigger(cmd, jobs.TaskDashboardInvalidate)
	},
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show default queue statistics and scheduled tasks",
	RunE:  runJobsStats,
}

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Tenant directory helpers",
}

var tenantsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a tenant directory file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantsCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address of the job queue")

	jobsWarmupCmd.Flags().StringVar(&warmupUser, "user", "", "Warm a single user (default: every user)")
	jobsWarmupCmd.Flags().IntSliceVar(&warmupWindows, "window", nil, "Range length in days, repeatable (default: 7, 30, 90)")
	jobsStatsCmd.Flags().IntVar(&scheduledSize, "limit", 10, "Maximum scheduled tasks to list")

	jobsCmd.AddCommand(jobsWarmupCmd, jobsInvalidateCmd, jobsStatsCmd)
	tenantsCmd.AddCommand(tenantsCheckCmd)
	rootCmd.AddCommand(jobsCmd, tenantsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func trigger(cmd *cobra.Command, task string) error {
	helper := cli.NewJobsCLI(redisAddr)
	defer func() { _ = helper.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	info, err := helper.Trigger(ctx, task, cli.WarmupRequest{UserID: warmupUser, Windows: warmupWindows})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (id %s, queue %s)\n", info.Type, info.ID, info.Queue)
	return nil
}

func runJobsStats(cmd *cobra.Command, args []string) error {
	helper := cli.NewJobsCLI(redisAddr)
	defer func() { _ = helper.Close() }()

	stats, err := helper.InspectQueue()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "queue %s: pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)

	scheduled, err := helper.ListScheduled(scheduledSize)
	if err != nil {
		return err
	}
	for _, t := range scheduled {
		fmt.Fprintf(out, "  %s %s at %s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
	}
	return nil
}

func runTenantsCheck(cmd *cobra.Command, args []string) error {
	summary, err := cli.CheckTenants(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d hotels, %d users\n", summary.Hotels, summary.Users)
	if len(summary.Unassigned) > 0 {
		fmt.Fprintf(out, "unassigned hotels: %s\n", strings.Join(summary.Unassigned, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
