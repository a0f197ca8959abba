package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/presentation"
)

// ErrValidationFailed is returned by validate when a document has errors,
// unless --fail-on-error=false.
var ErrValidationFailed = errors.New("validation failed")

var (
	validateSet         string
	validateFailOnError bool
	validateFormat      string
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate documents against an executor set",
	Long: `Validate one or more XML documents with the executor set named by --set.

Each layer of the set runs in order; the results are written as JSON (default)
or as a text report.

Examples:
  # Validate an invoice
  docval validate --set eu.peppol.bis3:invoice:3.13.0 invoice.xml

  # Fail the command when any document has error findings
  docval validate --set eu.peppol.bis3:invoice:3.13.0 --fail-on-error=false *.xml

  # Human readable report
  docval validate --set eu.peppol.bis3:invoice:3.13.0 --format text invoice.xml

  # Only the outcome per document
  docval validate -s eu.peppol.bis3:invoice:3.13.0 a.xml b.xml | jq '.[].outcome'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSet, "set", "s", "", "Executor set ID (group:artifact:version)")
	validateCmd.Flags().BoolVar(&validateFailOnError, "fail-on-error", true, "Exit non-zero when any document has error findings")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "json", "Output format: json or text")
	_ = validateCmd.MarkFlagRequired("set")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	id, err := validation.ParseVESID(validateSet)
	if err != nil {
		return fmt.Errorf("--set: %w", err)
	}
	if validateFormat != "json" && validateFormat != "text" {
		return fmt.Errorf("--format must be \"json\" or \"text\", got %q", validateFormat)
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	results, err := rt.validateFiles(cmd.Context(), id, args)
	if err != nil {
		return err
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	dtos := presentation.FromResults(results)
	if validateFormat == "text" {
		err = formatter.FormatText(dtos)
	} else {
		err = formatter.FormatResults(dtos)
	}
	if err != nil {
		return err
	}

	if validateFailOnError {
		for _, r := range results {
			if !r.IsValid() {
				return fmt.Errorf("%w: %s", ErrValidationFailed, r.SystemID())
			}
		}
	}
	return nil
}
