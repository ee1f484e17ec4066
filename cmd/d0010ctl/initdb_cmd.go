package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterflow/d0010-ingest/internal/db"
)

func newInitDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Apply the bootstrap schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if err := db.EnsureSchema(cmd.Context(), e.pool); err != nil {
				return err
			}

			fmt.Println("schema applied")
			return nil
		},
	}
	return cmd
}
