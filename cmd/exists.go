package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getExistsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <id>",
		Short: "Print whether a remote file exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}

			exists, err := store.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}
