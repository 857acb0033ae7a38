package commands

import (
	"fmt"
	"strings"

	"github.com/de-tools/report-export/pkg/services/config"
	"github.com/spf13/cobra"
)

type SourcesCmd struct {
	sourcesPath string
}

func NewSourcesCmd() *cobra.Command {
	sc := &SourcesCmd{}
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the named SQL sources",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.sourcesPath, "sources", DefaultSourcesPath(), "Path to the sources file")

	return cmd
}

func (sc *SourcesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := config.NewRegistry(sc.sourcesPath)
	if err != nil {
		return err
	}

	profiles, err := registry.GetProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No sources found in %s\n", sc.sourcesPath)
		return nil
	}

	lines := make([]string, 0, len(profiles))
	for _, name := range profiles {
		profile, err := registry.GetProfile(ctx, name)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s (invalid: %v)", name, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", name, profile.Driver))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sources in %s:\n%s\n", sc.sourcesPath, strings.Join(lines, "\n"))
	return nil
}
