package sftpstore_test

import (
	"context"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bacalhau-project/remotestore/internal/testutil"
	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/sftpstore"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

var _ = Describe("Storage", func() {
	var (
		ctx   context.Context
		srv   *testutil.SFTPServer
		store *sftpstore.Storage
	)

	BeforeEach(func() {
		ctx = context.Background()
		srv = testutil.NewSFTPServer()

		var err error
		store, err = sftpstore.New(storage.Config{
			Host:     "ftp.example.com",
			User:     "u",
			Password: "p",
			Dir:      "uploads",
		},
			sftpstore.WithDialer(sftpstore.DialerFunc(func(ctx context.Context) (sftpstore.Session, error) {
				c, err := srv.Dial(ctx)
				if err != nil {
					return nil, err
				}
				return c, nil
			})),
			sftpstore.WithLogger(logger.NewNopLogger()),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("after uploading file1.txt", func() {
		BeforeEach(func() {
			err := store.Upload(ctx, storage.FromReader(strings.NewReader("abc")), "file1.txt", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports the file as existing", func() {
			Expect(store.Exists(ctx, "file1.txt")).To(BeTrue())
		})

		It("serves the uploaded bytes", func() {
			rc, err := store.Open(ctx, "file1.txt")
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()
			Expect(io.ReadAll(rc)).To(Equal([]byte("abc")))
		})

		It("no longer exists once deleted", func() {
			Expect(store.Delete(ctx, "file1.txt")).To(BeTrue())
			Expect(store.Exists(ctx, "file1.txt")).To(BeFalse())
			Expect(srv.CountMethod("Remove")).To(Equal(1))
		})

		It("builds the public URL from host, dir and id", func() {
			Expect(store.URL("file1.txt")).To(Equal("ftp.example.com/uploads/file1.txt"))
		})
	})

	It("does not remove anything for an unknown id", func() {
		Expect(store.Delete(ctx, "ghost.txt")).To(BeFalse())
		Expect(srv.CountMethod("Remove")).To(BeZero())
	})

	It("opens a new session for every call", func() {
		_, _ = store.Exists(ctx, "a")
		_, _ = store.Exists(ctx, "b")
		Expect(srv.Dials()).To(Equal(2))
	})
})
