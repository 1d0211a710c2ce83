package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

const DefaultUploadConcurrency = 4

func getUploadCmd(c *cli) *cobra.Command {
	var (
		id          string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload local files and print their URLs",
		Long: `Upload one or more local files into the remote directory. Each file is
stored under its base name unless --id is given. Files are uploaded
concurrently, each over its own connection.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" && len(args) != 1 {
				return fmt.Errorf("--id requires exactly one file, got %d", len(args))
			}
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
			}

			store, err := c.store()
			if err != nil {
				return err
			}

			ids := make([]string, len(args))
			for i, file := range args {
				ids[i] = filepath.Base(file)
			}
			if id != "" {
				ids[0] = id
			}

			s := NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Uploading %d file(s)...", len(args)), c.verbose)
			s.Start()
			l := logger.FromContext(cmd.Context())

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(concurrency)
			for i, file := range args {
				g.Go(func() error {
					src := storage.LocalFile(file)
					defer src.Close()

					if err := store.Upload(ctx, src, ids[i], nil); err != nil {
						l.ErrorWithFields("upload failed", zap.String("file", file), zap.String("id", ids[i]), zap.Error(err))
						return fmt.Errorf("failed to upload %s: %w", file, err)
					}
					l.InfoWithFields("uploaded", zap.String("file", file), zap.String("id", ids[i]))
					return nil
				})
			}
			err = g.Wait()
			s.Stop()
			if err != nil {
				return err
			}

			for _, uploaded := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), store.URL(uploaded))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Remote file name (only with a single file)")
	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultUploadConcurrency, "Maximum parallel uploads")

	return cmd
}
