package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var name string
	var adminPassword string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.home
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, adminPassword)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "bank name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for the admin user (required)")
	_ = cmd.MarkFlagRequired("admin-password")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, adminPassword string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := config.Save(path, config.Default(name)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	a, err := openApp(&globalOptions{home: dir})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.svc.EnsureAdmin(cmd.Context(), adminPassword); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized tally ledger %q at %s\n", name, dir)
	return nil
}
