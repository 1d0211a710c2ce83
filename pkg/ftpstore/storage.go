// Package ftpstore stores files on a remote FTP server.
//
// Every operation opens its own passive-mode session, optionally secured
// with TLS, and closes it before returning.
package ftpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

const DefaultPort = 21

// Storage implements storage.Storage over FTP.
type Storage struct {
	cfg    storage.Config
	dialer Dialer
	logger *logger.Logger
}

var _ storage.Storage = (*Storage)(nil)

type Option func(*Storage)

// WithDialer replaces the production dialer, e.g. with a pooled or fake one.
func WithDialer(d Dialer) Option {
	return func(s *Storage) { s.dialer = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Storage) { s.logger = l }
}

func New(cfg storage.Config, opts ...Option) (*Storage, error) {
	cfg = cfg.WithDefaults(DefaultPort)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ftp config: %w", err)
	}

	s := &Storage{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewDialer(cfg)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With(zap.String("backend", "ftp"), zap.String("host", cfg.Host))

	return s, nil
}

func (s *Storage) Config() storage.Config {
	return s.cfg
}

// withConn runs fn on a fresh connection and always quits it.
func (s *Storage) withConn(ctx context.Context, op, id string, fn func(Conn) error) error {
	s.logger.DebugWithFields("ftp "+op, zap.String("dir", s.cfg.Dir), zap.String("id", id))

	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		return classify(op, id, err)
	}
	defer func() {
		if qerr := conn.Quit(); qerr != nil {
			s.logger.DebugWithFields("ftp quit failed", zap.String("op", op), zap.Error(qerr))
		}
	}()

	return classify(op, id, fn(conn))
}

// Upload writes src as dir/id, creating dir first when it is missing.
func (s *Storage) Upload(ctx context.Context, src storage.Source, id string, _ storage.Metadata) error {
	if err := storage.CheckID("upload", id); err != nil {
		return err
	}
	r, err := storage.OpenSource(src)
	if err != nil {
		return storage.SourceError("upload", id, err)
	}
	defer r.Close()

	return s.withConn(ctx, "upload", id, func(c Conn) error {
		if err := s.ensureDir(c); err != nil {
			return err
		}
		return c.Stor(id, r)
	})
}

// Open downloads dir/id into memory.
func (s *Storage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := storage.CheckID("open", id); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := s.withConn(ctx, "open", id, func(c Conn) error {
		resp, err := c.Retr(s.remotePath(id))
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(&buf, resp)
		// Close reads the transfer-complete reply; it must happen before QUIT.
		if closeErr := resp.Close(); copyErr == nil {
			copyErr = closeErr
		}
		return copyErr
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// Exists asks the server for the size of dir/id. Servers without SIZE are
// answered from a name listing of dir.
func (s *Storage) Exists(ctx context.Context, id string) (bool, error) {
	if err := storage.CheckID("exists", id); err != nil {
		return false, err
	}
	var found bool
	err := s.withConn(ctx, "exists", id, func(c Conn) error {
		var err error
		found, err = s.exists(c, id)
		return err
	})
	return found, err
}

func (s *Storage) exists(c Conn, id string) (bool, error) {
	_, err := c.FileSize(s.remotePath(id))
	switch {
	case err == nil:
		return true, nil
	case replyCode(err) == replyFileUnavailable:
		return false, nil
	case isUnsupported(err):
		s.logger.DebugWithFields("SIZE unsupported, listing directory", zap.Int("code", replyCode(err)))
		return s.listContains(c, id)
	default:
		return false, err
	}
}

func (s *Storage) listContains(c Conn, id string) (bool, error) {
	names, err := c.NameList(s.cfg.Dir)
	if err != nil {
		if replyCode(err) == replyFileUnavailable {
			return false, nil
		}
		return false, err
	}
	for _, name := range names {
		if path.Base(name) == id {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes dir/id. It reports false, without issuing a removal, when
// the file does not exist.
func (s *Storage) Delete(ctx context.Context, id string) (bool, error) {
	if err := storage.CheckID("delete", id); err != nil {
		return false, err
	}
	found, err := s.Exists(ctx, id)
	if err != nil || !found {
		return false, err
	}

	err = s.withConn(ctx, "delete", id, func(c Conn) error {
		if err := s.ensureDir(c); err != nil {
			return err
		}
		return c.Delete(id)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// URL joins prefix, dir and id. The prefix defaults to the host.
func (s *Storage) URL(id string) string {
	return storage.JoinURL(s.cfg.URLPrefix(), s.cfg.Dir, id)
}

func (s *Storage) String() string {
	return fmt.Sprintf("ftpstore.Storage{host=%q}", s.cfg.Host)
}

func (s *Storage) remotePath(id string) string {
	return path.Join(s.cfg.Dir, id)
}

// ensureDir changes into dir, creating each missing segment on the way.
func (s *Storage) ensureDir(c Conn) error {
	dir := path.Clean(s.cfg.Dir)
	if strings.HasPrefix(dir, "/") {
		if err := c.ChangeDir("/"); err != nil {
			return err
		}
	}
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		if segment == "" || segment == "." {
			continue
		}
		if err := s.changeOrCreateDir(c, segment); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) changeOrCreateDir(c Conn, dir string) error {
	err := c.ChangeDir(dir)
	if err == nil || !isPermanent(err) {
		return err
	}

	s.logger.DebugWithFields("creating remote directory", zap.String("segment", dir))
	mkErr := c.MakeDir(dir)
	if err := c.ChangeDir(dir); err != nil {
		if mkErr != nil {
			return mkErr
		}
		return err
	}
	// A failed MKD followed by a working CWD means someone else created it.
	return nil
}
