package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getURLCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "url <id>",
		Short: "Print the public URL of a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.URL(args[0]))
			return nil
		},
	}
}
