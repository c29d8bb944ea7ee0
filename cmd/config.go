package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/textcore/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or edit the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigSetCmd(a), newConfigPathCmd(a))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a commented default config file",
		Long: `Write a commented default config file to PATH, or to
` + config.ProjectConfigPath + ` when PATH is omitted. An existing file is kept
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a value in the config file",
		Long: `Set a dotted KEY such as editor.tab_width or theme.colors.syntax.keyword in
the active config file (or ` + config.ProjectConfigPath + ` if none was found).
Comments and other settings in the file are preserved.

The updated file is validated before it is kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgPath
			if path == "" {
				path = config.ProjectConfigPath
			}

			var previous []byte
			existed := false
			if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: config path from flag or fixed location
				previous, existed = data, true
			}

			if err := config.SaveValue(path, args[0], args[1]); err != nil {
				return err
			}
			if _, _, err := config.Load(path); err != nil {
				if existed {
					_ = os.WriteFile(path, previous, 0o600)
				} else {
					_ = os.Remove(path)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %s\n", path, args[0], args[1])
			return nil
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfgPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(defaults)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.cfgPath)
			return nil
		},
	}
}
