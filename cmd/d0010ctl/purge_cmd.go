package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <filename>",
		Short: "Purge an imported flow file and its readings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			deleted, err := e.repo.DeleteFlowFileByFilename(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no flow file named %q", args[0])
			}

			fmt.Printf("%s: purged\n", args[0])
			return nil
		},
	}
	return cmd
}
