package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/composer/internal/domain/entities"
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Manage blocks in the block repository",
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.AddCommand(newBlocksPublishCmd())
}

func newBlocksPublishCmd() *cobra.Command {
	var id, blockVersion string

	cmd := &cobra.Command{
		Use:   "publish <profile.yaml>",
		Short: "Publish a containment profile as a block",
		Long: `Validate a containment profile and store it in the configured block
repository, where compositions reference it by id and version.`,
		Example: `  composer blocks publish shared.yaml --id blocks/shared --version 1.0.0`,
		Args:    cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			repo := ctx.Container.Repository()
			if repo == nil {
				return fmt.Errorf("no block repository configured (set repository.layout in the system config)")
			}
			if id == "" {
				return fmt.Errorf("--id is required")
			}

			path := filepath.Clean(args[0])
			// Load first so that invalid blocks are never published.
			if _, err := ctx.Container.ProfileLoader().LoadContainment(ctx.Context, path); err != nil {
				return fmt.Errorf("invalid block: %w", err)
			}
			//nolint:gosec // G304: path is the user-provided block file
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read block: %w", err)
			}

			resource := entities.ResourceDirective{ID: id, Version: blockVersion}
			desc, err := repo.Publish(ctx.Context, resource, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%s)\n", resource, desc.Digest) //nolint:errcheck // Best-effort terminal output
			return nil
		}),
	}

	cmd.Flags().StringVar(&id, "id", "", "Block id")
	cmd.Flags().StringVar(&blockVersion, "version", "", "Block version")
	return cmd
}
