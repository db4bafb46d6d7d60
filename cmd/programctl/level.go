package main

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// levelView is the printed form of a result level, including computed fields.
type levelView struct {
	domain.ResultLevel
	Depth       int      `json:"depth"`
	ChainRootID string   `json:"chain_root_id"`
	ChildIDs    []string `json:"child_ids"`
}

func viewOf(level domain.ResultLevel) levelView {
	children := level.ChildIDs
	if children == nil {
		children = []string{}
	}
	return levelView{ResultLevel: level, Depth: level.Depth, ChainRootID: level.ChainRootID, ChildIDs: children}
}

// levelFlags binds the writable fields; only flags set on the command line
// become part of the payload.
type levelFlags struct {
	name         string
	sequence     int
	parent       string
	clearParent  bool
	menuID       string
	topLevelMenu bool
	menuName     string
}

func (f *levelFlags) bind(fs *pflag.FlagSet, update bool) {
	fs.StringVar(&f.name, "name", "", "level name")
	fs.IntVar(&f.sequence, "sequence", 0, "ordering among siblings")
	fs.StringVar(&f.parent, "parent", "", "parent level ID")
	fs.StringVar(&f.menuID, "menu", "", "visible menu ID of the level")
	fs.BoolVar(&f.topLevelMenu, "top-level-menu", false, "own a generated top-level menu")
	fs.StringVar(&f.menuName, "menu-name", "", "name of the generated top-level menu")
	if update {
		fs.BoolVar(&f.clearParent, "clear-parent", false, "detach the levels from their parent")
	}
}

func (f *levelFlags) values(fs *pflag.FlagSet) domain.ResultLevelValues {
	var vals domain.ResultLevelValues
	if fs.Changed("name") {
		vals.Name = domain.String(f.name)
	}
	if fs.Changed("sequence") {
		vals.Sequence = domain.Int(f.sequence)
	}
	if fs.Changed("parent") {
		vals.ParentID = domain.String(f.parent)
	}
	if f.clearParent {
		vals.ParentID = domain.String("")
	}
	if fs.Changed("menu") {
		vals.MenuID = domain.String(f.menuID)
	}
	if fs.Changed("top-level-menu") {
		vals.TopLevelMenu = domain.Bool(f.topLevelMenu)
	}
	if fs.Changed("menu-name") {
		vals.TopLevelMenuName = domain.String(f.menuName)
	}
	return vals
}

func newLevelCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "level", Short: "Create, write, unlink and inspect result levels"}

	var createFlags levelFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a result level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, _, err := get().service.CreateResultLevel(cmd.Context(), createFlags.values(cmd.Flags()))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(level))
		},
	}
	createFlags.bind(create.Flags(), false)
	_ = create.MarkFlagRequired("name")

	var writeFlags levelFlags
	write := &cobra.Command{
		Use:   "write ID...",
		Short: "Apply the given fields to one or more result levels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, _, err := get().service.WriteResultLevels(cmd.Context(), args, writeFlags.values(cmd.Flags()))
			if err != nil {
				return err
			}
			views := make([]levelView, 0, len(levels))
			for _, l := range levels {
				views = append(views, viewOf(l))
			}
			return writeJSON(cmd.OutOrStdout(), views)
		},
	}
	writeFlags.bind(write.Flags(), true)
	write.MarkFlagsMutuallyExclusive("parent", "clear-parent")

	unlink := &cobra.Command{
		Use:   "unlink ID...",
		Short: "Delete result levels, handing over or destroying their menus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := get().service.UnlinkResultLevels(cmd.Context(), args)
			return err
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a result level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := get().service.ResultLevel(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(level))
		},
	}

	cmd.AddCommand(create, write, unlink, show)
	return cmd
}
