package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configPath путь к YAML конфигу (флаг --config)
var configPath string

func main() {
	root := &cobra.Command{
		Use:           "shopapp-server",
		Short:         "Shop backend: catalog, orders and JWT sessions",
		Version:       fmt.Sprintf("%s - build %.7s @ %s - %s", Version, GitCommit, BuildDate, runtime.Version()),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default ./config.yaml)")

	root.AddCommand(serveCmd)
	root.AddCommand(migrateCmd())
	root.AddCommand(createAdminCmd())
	root.AddCommand(genSecretCmd)
	root.AddCommand(versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ShopApp Server\n")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
	},
}
