package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"staticfund-api/internal/config"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "staticfund",
		Short:         "StaticFund energy-audit API server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("STATICFUND_CONFIG"), "path to YAML config file")

	load := func() (*config.Config, error) { return config.Load(configPath) }

	serve := newServeCmd(load)
	root.RunE = serve.RunE

	root.AddCommand(
		serve,
		newMigrateCmd(load),
		newBackupCmd(load),
		newMigratePasswordsCmd(load),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
