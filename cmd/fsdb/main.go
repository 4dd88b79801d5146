// Command fsdb inspects and manipulates fsdb containers from the
// command line.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/J-Cake/fsdb"
	fsdbfile "github.com/J-Cake/fsdb/internal/container/file"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:     "fsdb",
		Short:   "Inspect and manipulate fsdb containers",
		Version: version,
	}

	root.AddCommand(newInspectCmd(logger))
	root.AddCommand(newCreatePageCmd(logger))

	return root
}

func newInspectCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print a container's page table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := fsdbfile.Open(args[0])
			if err != nil {
				return fmt.Errorf("open container: %w", err)
			}
			defer c.Close()

			var meta map[string]any
			db, err := fsdb.Open(c, &meta, fsdb.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			for _, name := range db.PageNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newCreatePageCmd(logger *slog.Logger) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "create-page <path> <name>",
		Short: "Create a new, empty page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := fsdbfile.Open(args[0])
			if err != nil {
				return fmt.Errorf("open container: %w", err)
			}
			defer c.Close()

			var meta map[string]any
			db, err := fsdb.Open(c, &meta, fsdb.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if _, err := db.CreatePage(args[1], owner); err != nil {
				return fmt.Errorf("create page: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "*", "owner principal for the new page's ACL")
	return cmd
}
