package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/presentation"
	"github.com/zjrosen/docval/internal/source"
)

var (
	setsGroup             string
	setsArtifact          string
	setsIncludeDeprecated bool
)

var setsListCmd = &cobra.Command{
	Use:   "sets:list",
	Short: "List the executor sets of the catalog",
	Long: `List the executor sets declared by the catalog as JSON, in catalog order.

Deprecated sets are hidden unless --include-deprecated is given.

Examples:
  # List all current sets
  docval sets:list

  # Filter by group
  docval sets:list --group eu.peppol.bis3

  # Every version of one document type, including deprecated ones
  docval sets:list -g eu.peppol.bis3 -a invoice --include-deprecated

  # Parse specific fields with jq
  docval sets:list | jq '.[].id'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if setsArtifact != "" && setsGroup == "" {
			return fmt.Errorf("--artifact requires --group")
		}
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		sets := rt.registry.FindAll(setFilter(setsGroup, setsArtifact, setsIncludeDeprecated))

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatSets(presentation.FromSets(sets))
	},
}

func init() {
	setsListCmd.Flags().StringVarP(&setsGroup, "group", "g", "", "Filter by set group (e.g., eu.peppol.bis3)")
	setsListCmd.Flags().StringVarP(&setsArtifact, "artifact", "a", "", "Filter by artifact, requires --group")
	setsListCmd.Flags().BoolVar(&setsIncludeDeprecated, "include-deprecated", false, "Include deprecated sets")
	rootCmd.AddCommand(setsListCmd)
}

// setFilter combines the list flags into one predicate.
func setFilter(group, artifact string, includeDeprecated bool) validation.Predicate[*source.Document] {
	var preds []validation.Predicate[*source.Document]
	switch {
	case group != "" && artifact != "":
		preds = append(preds, validation.ByGroupAndArtifact[*source.Document](group, artifact))
	case group != "":
		preds = append(preds, validation.ByGroup[*source.Document](group))
	}
	if !includeDeprecated {
		preds = append(preds, validation.NotDeprecated[*source.Document]())
	}
	return validation.And(preds...)
}
