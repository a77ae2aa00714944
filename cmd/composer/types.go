package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/composer/internal/application/dto"
)

func newTypesCmd() *cobra.Command {
	var typePaths []string
	var format string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the component types of the catalog",
		Long:  `Scan the type paths and list every component type with its services, dependencies and packaged profiles.`,
		Args:  cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, _ []string) error {
			summaries, err := ctx.Container.CatalogUseCase().ListTypes(ctx.Context, dto.CatalogRequest{
				TypePaths: ctx.Container.TypePaths(typePaths...),
			})
			if err != nil {
				return err
			}

			switch format {
			case "table":
				return printTypes(cmd, summaries)
			case "yaml":
				data, err := yaml.Marshal(summaries)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				return fmt.Errorf("invalid format: %s (valid: table, yaml)", format)
			}
		}),
	}

	cmd.Flags().StringSliceVar(&typePaths, "types", nil, "Directories scanned for type descriptors (added to the configured type paths)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, yaml")
	return cmd
}

func init() {
	rootCmd.AddCommand(newTypesCmd())
}

//nolint:errcheck // Best-effort terminal output
func printTypes(cmd *cobra.Command, summaries []dto.TypeSummary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No types found.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLASSNAME\tVERSION\tSERVICES\tDEPENDENCIES\tPROFILES")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Classname,
			orDash(s.Version),
			orDash(strings.Join(s.Services, ",")),
			orDash(strings.Join(s.Dependencies, ",")),
			orDash(strings.Join(s.Profiles, ",")))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
