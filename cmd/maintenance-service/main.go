package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "maintenance-service",
	Short:         "Fleet maintenance service",
	Long:          `Fleet maintenance service manages work orders, parts inventory and preventive maintenance alerts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily alert scheduler",
	RunE:  runServe,
}

var scanAlertsCmd = &cobra.Command{
	Use:   "scan-alerts",
	Short: "Run one preventive maintenance alert scan and exit",
	RunE:  runScanAlerts,
}

var withoutScheduler bool

func init() {
	serveCmd.Flags().BoolVar(&withoutScheduler, "no-scheduler", false, "Serve the API without running the daily alert scan")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanAlertsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
