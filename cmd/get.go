package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const downloadFilePermissions = 0644

func getGetCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Download a remote file to stdout or a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			store, err := c.store()
			if err != nil {
				return err
			}

			s := NewSpinner(cmd.ErrOrStderr(), "Downloading "+args[0]+"...", c.verbose || output == "")
			s.Start()
			rc, err := store.Open(cmd.Context(), args[0])
			s.Stop()
			if err != nil {
				return err
			}
			defer rc.Close()

			w := cmd.OutOrStdout()
			if output != "" {
				f, ferr := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, downloadFilePermissions)
				if ferr != nil {
					return fmt.Errorf("failed to create %s: %w", output, ferr)
				}
				defer func() {
					err = multierr.Append(err, f.Close())
				}()
				w = f
			}

			if _, err := io.Copy(w, rc); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
