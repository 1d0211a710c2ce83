package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a remote file",
		Long: `Delete a remote file. Prints true when the file was removed and false
when there was nothing to remove.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}

			deleted, err := store.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), deleted)
			return nil
		},
	}
}
