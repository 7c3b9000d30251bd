package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/mcp"
	"github.com/huangsam/filepulse/internal/scheduler"
	"github.com/huangsam/filepulse/internal/server"
	"github.com/spf13/cobra"
)

// daemonCmd runs the scheduler in the foreground.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled report jobs until interrupted",
	Long: `Run the scheduler in the foreground and fire the report email job at its
scheduled times. Schedule changes made with "filepulse schedule" while the
daemon runs are picked up on restart. Stop with Ctrl+C or SIGTERM.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := newService()
		sched := scheduler.Start(cfg.Timezone, logger)
		svc.AttachScheduler(sched)
		logger.Info("Daemon started", "timezone", cfg.Timezone.String(), "jobs", len(sched.Jobs()))
		if err := ow.WriteSchedule(svc.ScheduleStatus(), cfg); err != nil {
			contract.LogWarn("Cannot print schedule", err)
		}

		<-ctx.Done()
		logger.Info("Daemon stopping")
		sched.Shutdown(true)
		svc.WaitGenerations()
		return nil
	},
}

// serveCmd runs the scheduler together with the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled jobs and the HTTP API until interrupted",
	Long: `Run the scheduler and a JSON HTTP API on --addr.

Routes:
  GET    /api/reports          archived reports, newest first
  POST   /api/reports          start a background generation (409 while busy)
  DELETE /api/reports/{name}   remove an archived report
  GET    /api/generation       progress of the latest generation
  GET    /api/thresholds       current ranges
  PUT    /api/thresholds       replace the ranges
  GET    /api/schedule         schedule and next fire time
  GET    /healthz              liveness
  GET    /metrics              Prometheus metrics`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := newService()
		sched := scheduler.Start(cfg.Timezone, logger)
		svc.AttachScheduler(sched)
		defer func() {
			sched.Shutdown(true)
			svc.WaitGenerations()
		}()

		fmt.Printf("Serving the FilePulse API on http://%s\n", cfg.Addr)
		return server.New(cfg.Addr, svc, logger).Run(ctx)
	},
}

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the FilePulse MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents generate, list and classify neglect reports via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to the log file and stderr; stdout is reserved for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, newService())
	},
}
