package main

import (
	"fmt"

	"github.com/SeuMarco/program/internal/core"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{Use: "snapshot", Short: "Archive and restore the whole store state"}

	archiver := func(cmd *cobra.Command) (*core.SnapshotArchiver, error) {
		a := get()
		blobs, err := core.OpenArchive(cmd.Context(), a.cfg.Archive)
		if err != nil {
			return nil, err
		}
		return core.NewSnapshotArchiver(a.store, blobs, a.logger), nil
	}

	push := &cobra.Command{
		Use:   "push [KEY]",
		Short: "Export the store state to the archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := archiver(cmd)
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			info, err := arch.Push(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Key)
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore KEY",
		Short: "Replace the store state with an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := archiver(cmd)
			if err != nil {
				return err
			}
			return arch.Restore(cmd.Context(), args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arch, err := archiver(cmd)
			if err != nil {
				return err
			}
			infos, err := arch.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format("2006-01-02T15:04:05Z07:00"))
			}
			return nil
		},
	}

	cmd.AddCommand(push, restore, list)
	return cmd
}
