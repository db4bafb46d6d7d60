package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "templates", Short: "Manage reference menus and actions"}

	var catalogPath string
	install := &cobra.Command{
		Use:   "install",
		Short: "Install the template catalog; entries already present are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			catalog, err := a.catalog(catalogPath)
			if err != nil {
				return err
			}
			registry, _, err := a.service.InstallTemplates(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			for _, key := range registry.Keys() {
				id, _ := registry.Resolve(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, id)
			}
			return nil
		},
	}
	install.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog path (overrides PROGRAM_TEMPLATE_CATALOG)")
	cmd.AddCommand(install)
	return cmd
}
