package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	monitorOn   bool
	monitorPort int
	openBrowser bool
	traceFormat string
	traceFile   string
)

var rootCmd = &cobra.Command{
	Use:   "tlpbridge",
	Short: "tlpbridge simulates a PCIe TLP to BAR-handler bridge.",
	Long: `tlpbridge simulates a protocol bridge that decodes PCIe TLPs ` +
		`from a fixed-width beat stream, dispatches memory accesses to ` +
		`BAR handlers, and reassembles read completions.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A .env file can override monitor settings.
		_ = godotenv.Load()

		if p := os.Getenv("TLPBRIDGE_MONITOR_PORT"); p != "" {
			if port, err := strconv.Atoi(p); err == nil {
				monitorPort = port
			}
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&monitorOn, "monitor", false,
		"start the monitoring web server")
	rootCmd.PersistentFlags().IntVar(&monitorPort, "monitor-port", 0,
		"port number of the monitoring web server")
	rootCmd.PersistentFlags().BoolVar(&openBrowser, "browser", false,
		"open the monitoring dashboard in a browser")
	rootCmd.PersistentFlags().StringVar(&traceFormat, "trace", "",
		"task trace format, either csv or sqlite")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace-file", "",
		"file name of the task trace, without extension")
}
