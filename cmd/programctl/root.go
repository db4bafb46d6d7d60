package main

import (
	"github.com/SeuMarco/program/internal/config"

	"github.com/spf13/cobra"
)

// newRootCmd wires the command tree. The returned function releases the
// resources opened by the executed command and must run after Execute.
func newRootCmd(open openFunc) (*cobra.Command, func() error) {
	var envFile, metricsFile string
	var current *app

	root := &cobra.Command{
		Use:           "programctl",
		Short:         "Manage result levels and their generated top-level menus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context(), envFile)
			if err != nil {
				return err
			}
			if metricsFile != "" {
				a.cfg.MetricsFile = metricsFile
			}
			current = a
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to preload (defaults to ./.env when present)")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit (overrides "+config.EnvMetricsFile+")")

	get := func() *app { return current }
	root.AddCommand(
		newTemplatesCmd(get),
		newLevelCmd(get),
		newMenuCmd(get),
		newSnapshotCmd(get),
	)
	closeApp := func() error {
		if current == nil {
			return nil
		}
		a := current
		current = nil
		return a.close()
	}
	return root, closeApp
}
