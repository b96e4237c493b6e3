package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// buildVersion is set by the release process; left as "dev" for local
// builds.
var buildVersion = "dev"

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "fractalserver",
		Short: "Newton fractal rendering server",
		Long:  "Serves interactive Newton-fractal viewports over HTTP, streaming freshly rendered frames while superseding stale in-flight work.",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (optional, flags and env vars override)")

	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(buildVersion)
			return nil
		},
	}
}
