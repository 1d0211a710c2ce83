package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/remotestore/internal/testutil"
	"github.com/bacalhau-project/remotestore/pkg/ftpstore"
	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

func ExecuteCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)

	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorf("Panic occurred: %v", r)
			err = fmt.Errorf("panic occurred: %v", r)
		}
	}()

	_, err = root.ExecuteC()

	_ = logger.Get().Sync()

	return buf.String(), err
}

type CmdTestSuite struct {
	suite.Suite
	srv              *testutil.FakeFTPServer
	configPath       string
	cleanupConfig    func()
	origNewStoreFunc func(string, storage.Config) (Store, error)
}

func TestCmdSuite(t *testing.T) {
	suite.Run(t, new(CmdTestSuite))
}

func (s *CmdTestSuite) SetupTest() {
	s.srv = testutil.NewFakeFTPServer()

	var err error
	s.configPath, s.cleanupConfig, err = testutil.WriteStringToTempFileWithExtension(testutil.TestFTPConfig, ".yaml")
	s.Require().NoError(err)

	s.origNewStoreFunc = NewStoreFunc
	NewStoreFunc = func(backend string, cfg storage.Config) (Store, error) {
		if backend != backendFTP {
			return newStore(backend, cfg)
		}
		store, err := ftpstore.New(cfg,
			ftpstore.WithDialer(ftpstore.DialerFunc(func(ctx context.Context) (ftpstore.Conn, error) {
				c, err := s.srv.Dial(ctx)
				if err != nil {
					return nil, err
				}
				return c, nil
			})),
			ftpstore.WithLogger(logger.NewTestLogger(s.T()).Logger),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func (s *CmdTestSuite) TearDownTest() {
	NewStoreFunc = s.origNewStoreFunc
	s.cleanupConfig()
}

func (s *CmdTestSuite) run(args ...string) (string, error) {
	return ExecuteCommand(GetRootCommand(), append(args, "--config", s.configPath)...)
}

func (s *CmdTestSuite) writeLocalFile(name, content string) string {
	p := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(p, []byte(content), 0600))
	return p
}

func (s *CmdTestSuite) TestURL() {
	out, err := s.run("url", "file1.txt")
	s.Require().NoError(err)
	s.Equal("ftp.example.com/uploads/file1.txt\n", out)
}

func (s *CmdTestSuite) TestURLHonorsPrefixFlag() {
	out, err := s.run("url", "file1.txt", "--prefix", "https://cdn.example.com")
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/uploads/file1.txt\n", out)
}

func (s *CmdTestSuite) TestEnvironmentOverridesConfigFile() {
	s.T().Setenv("REMOTESTORE_DIR", "media")

	out, err := s.run("url", "file1.txt")
	s.Require().NoError(err)
	s.Equal("ftp.example.com/media/file1.txt\n", out)
}

func (s *CmdTestSuite) TestUploadExistsGetDelete() {
	local := s.writeLocalFile("file1.txt", "abc")

	out, err := s.run("upload", local)
	s.Require().NoError(err)
	s.Equal("ftp.example.com/uploads/file1.txt\n", out)

	data, ok := s.srv.File("uploads/file1.txt")
	s.Require().True(ok)
	s.Equal("abc", string(data))

	out, err = s.run("exists", "file1.txt")
	s.Require().NoError(err)
	s.Equal("true\n", out)

	out, err = s.run("get", "file1.txt")
	s.Require().NoError(err)
	s.Equal("abc", out)

	target := filepath.Join(s.T().TempDir(), "copy.txt")
	out, err = s.run("get", "file1.txt", "-o", target)
	s.Require().NoError(err)
	s.Empty(out)
	got, err := os.ReadFile(target)
	s.Require().NoError(err)
	s.Equal("abc", string(got))

	out, err = s.run("delete", "file1.txt")
	s.Require().NoError(err)
	s.Equal("true\n", out)

	out, err = s.run("exists", "file1.txt")
	s.Require().NoError(err)
	s.Equal("false\n", out)

	out, err = s.run("delete", "file1.txt")
	s.Require().NoError(err)
	s.Equal("false\n", out)
}

func (s *CmdTestSuite) TestUploadSeveralFiles() {
	a := s.writeLocalFile("a.txt", "first")
	b := s.writeLocalFile("b.txt", "second")

	out, err := s.run("upload", a, b, "--concurrency", "2")
	s.Require().NoError(err)
	s.Equal("ftp.example.com/uploads/a.txt\nftp.example.com/uploads/b.txt\n", out)

	data, ok := s.srv.File("uploads/b.txt")
	s.Require().True(ok)
	s.Equal("second", string(data))

	dials, quits := s.srv.Sessions()
	s.Equal(2, dials)
	s.Equal(dials, quits)
}

func (s *CmdTestSuite) TestUploadWithID() {
	local := s.writeLocalFile("local.txt", "abc")

	out, err := s.run("upload", local, "--id", "renamed.txt")
	s.Require().NoError(err)
	s.Equal("ftp.example.com/uploads/renamed.txt\n", out)

	_, ok := s.srv.File("uploads/renamed.txt")
	s.True(ok)
}

func (s *CmdTestSuite) TestUploadIDRequiresSingleFile() {
	a := s.writeLocalFile("a.txt", "first")
	b := s.writeLocalFile("b.txt", "second")

	_, err := s.run("upload", a, b, "--id", "x.txt")
	s.Require().Error(err)
	s.Contains(err.Error(), "--id requires exactly one file")
	s.Empty(s.srv.Commands())
}

func (s *CmdTestSuite) TestGetMissingFileIsNotFound() {
	_, err := s.run("get", "ghost.txt")
	s.Require().Error(err)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *CmdTestSuite) TestConfigIsRedacted() {
	out, err := s.run("config")
	s.Require().NoError(err)

	s.Contains(out, "password: REDACTED")
	s.NotContains(out, "s3cret")
	s.Contains(out, "port: 21")
	s.Contains(out, "prefix: ftp.example.com")
	s.Contains(out, "timeout: 10s")
	s.Contains(out, "tls: none")
}

func (s *CmdTestSuite) TestConfigForSFTPBackend() {
	out, err := s.run("config", "--backend", "sftp")
	s.Require().NoError(err)

	s.Contains(out, "backend: sftp")
	s.Contains(out, "port: 22")
	s.NotContains(out, "tls:")
}

func (s *CmdTestSuite) TestUnsupportedBackend() {
	_, err := s.run("url", "file1.txt", "--backend", "s3")
	s.Require().Error(err)
	s.Contains(err.Error(), `unsupported backend "s3"`)
}

func (s *CmdTestSuite) TestMissingConfigFile() {
	_, err := ExecuteCommand(GetRootCommand(), "url", "file1.txt", "--config", filepath.Join(s.T().TempDir(), "nope.yaml"))
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to read config")
}

func (s *CmdTestSuite) TestInvalidConfig() {
	path, cleanup, err := testutil.WriteStringToTempFileWithExtension("backend: ftp\nuser: u\npassword: p\ndir: uploads\n", ".yaml")
	s.Require().NoError(err)
	defer cleanup()

	_, err = ExecuteCommand(GetRootCommand(), "url", "file1.txt", "--config", path)
	s.Require().Error(err)
	s.Contains(err.Error(), "host cannot be empty")
}

func (s *CmdTestSuite) TestUploadMissingLocalFile() {
	missing := filepath.Join(s.T().TempDir(), "missing.txt")

	_, err := s.run("upload", missing)
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to upload "+missing)
	s.ErrorIs(err, storage.ErrNotFound)
	s.Empty(s.srv.Commands())
}

func (s *CmdTestSuite) TestInvalidIDIsRejected() {
	_, err := s.run("delete", "../uploads")
	s.Require().Error(err)
	s.ErrorIs(err, storage.ErrInvalidID)
	dials, _ := s.srv.Sessions()
	s.Zero(dials)
	s.Empty(s.srv.Commands())
}
