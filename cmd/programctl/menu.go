package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/SeuMarco/program/internal/core"

	"github.com/spf13/cobra"
)

func newMenuCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "menu", Short: "Manage level menus and inspect menu trees"}

	var name string
	create := &cobra.Command{
		Use:   "create LEVEL_ID",
		Short: "Create the visible menu of a result level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menu, _, err := get().service.CreateMenu(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), menu)
		},
	}
	create.Flags().StringVar(&name, "name", "", "menu name")
	_ = create.MarkFlagRequired("name")

	var asJSON bool
	tree := &cobra.Command{
		Use:   "tree MENU_ID",
		Short: "Print a menu and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := get().service.MenuTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), node)
			}
			printTree(cmd.OutOrStdout(), node, 0)
			return nil
		},
	}
	tree.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")

	cmd.AddCommand(create, tree)
	return cmd
}

func printTree(w io.Writer, node core.MenuNode, depth int) {
	line := fmt.Sprintf("%s%s [%s]", strings.Repeat("  ", depth), node.Menu.Name, node.Menu.ID)
	if node.Action != nil {
		line += fmt.Sprintf(" -> %s %s", node.Action.Model, node.Action.Domain)
	}
	fmt.Fprintln(w, line)
	for _, child := range node.Children {
		printTree(w, child, depth+1)
	}
}
