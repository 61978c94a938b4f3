package main

import (
	"errors"
	"fmt"

	"github.com/Station-Manager/orderdebug"
	"github.com/spf13/cobra"
)

func newClearLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-log",
		Short: "Delete the contents of the debug log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.service.ClearLog(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Debug log cleared.")
			return nil
		},
	}
}

func newShowLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show-log",
		Short: "Print the debug log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			contents, err := a.service.LogContents()
			if errors.Is(err, orderdebug.ErrNoEntries) {
				fmt.Fprintln(cmd.OutOrStdout(), "No log entries yet.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), contents)
			return nil
		},
	}
}
