package main

import (
	"fmt"
	"strings"

	"github.com/Station-Manager/orderdebug"
	"github.com/spf13/cobra"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change the logging categories",
	}
	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Fprintln(cmd.OutOrStdout(), settingsTable(a.service.Settings()))
			return nil
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category>=<on|off> [actions=a,b] [filters=c,d]...",
		Short: "Change one or more settings",
		Example: "  orderdebugd settings set cart=off status-changes=on\n" +
			"  orderdebugd settings set actions=woocommerce_cart_emptied",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()

			settings, err := applyAssignments(a.service.Settings(), args)
			if err != nil {
				return err
			}
			if err = a.service.UpdateSettings(cmd.Context(), settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), settingsTable(a.service.Settings()))
			return nil
		},
	}
}

// applyAssignments applies key=value arguments to a copy of settings.
func applyAssignments(settings orderdebug.Settings, args []string) (orderdebug.Settings, error) {
	settings = settings.Clone()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return settings, fmt.Errorf("expected key=value, got %q", arg)
		}
		key = strings.TrimSpace(strings.ToLower(key))
		switch key {
		case "actions", "log_actions":
			settings.Actions = orderdebug.SplitList(value)
			continue
		case "filters", "log_filters":
			settings.Filters = orderdebug.SplitList(value)
			continue
		}
		category, known := orderdebug.ParseCategory(key)
		if !known {
			return settings, fmt.Errorf("unknown category %q", key)
		}
		on, valid := orderdebug.ParseFlag(value)
		if !valid {
			return settings, fmt.Errorf("invalid value %q for %s", value, category)
		}
		settings.Set(category, on)
	}
	return settings, nil
}

func settingsTable(settings orderdebug.Settings) string {
	rows := make([][]string, 0, len(orderdebug.Categories())+2)
	for _, c := range orderdebug.Categories() {
		rows = append(rows, []string{string(c), c.Label(), onOff(settings.Enabled(c))})
	}
	rows = append(rows,
		[]string{"actions", "Log Actions", strings.Join(settings.Actions, ", ")},
		[]string{"filters", "Log Filters", strings.Join(settings.Filters, ", ")},
	)
	return renderTable([]string{"Setting", "Label", "Value"}, rows)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
