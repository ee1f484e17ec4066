package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterflow/d0010-ingest/internal/importer"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import D0010 flow files",
		Long: "Import one or more D0010 flow files. Records that fail validation are\n" +
			"reported and skipped; the rest of the file still commits. Only fatal\n" +
			"errors (duplicate filename, unreadable file, database failure) exit\n" +
			"non-zero.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			imp, err := e.newImporter()
			if err != nil {
				return err
			}

			for _, path := range args {
				result, err := imp.ImportFile(cmd.Context(), path, importer.Options{DryRun: dryRun})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printResult(result)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without committing any rows")
	return cmd
}

func printResult(result *importer.Result) {
	mode := "imported"
	if result.DryRun {
		mode = "dry run"
	}
	fmt.Printf("%s: %s - %d records, %d meter points, %d meters, %d readings, %d skipped\n",
		result.FlowFile.Filename,
		mode,
		result.RecordCount,
		result.MeterPointsCreated,
		result.MetersCreated,
		result.ReadingsCreated,
		result.RecordsSkipped,
	)
	for _, recordErr := range result.Errors {
		fmt.Printf("  line %d: %s: %s\n", recordErr.Line, recordErr.Kind, recordErr.Message)
	}
}
