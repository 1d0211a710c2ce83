// Package sftpstore stores files on a remote host over SFTP.
package sftpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

const DefaultPort = 22

// Storage implements storage.Storage over SFTP.
type Storage struct {
	cfg    storage.Config
	dialer Dialer
	logger *logger.Logger
}

var _ storage.Storage = (*Storage)(nil)

type Option func(*Storage)

func WithDialer(d Dialer) Option {
	return func(s *Storage) { s.dialer = d }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Storage) { s.logger = l }
}

func New(cfg storage.Config, opts ...Option) (*Storage, error) {
	cfg = cfg.WithDefaults(DefaultPort)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sftp config: %w", err)
	}

	s := &Storage{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With(zap.String("backend", "sftp"), zap.String("host", cfg.Host))
	if s.dialer == nil {
		s.dialer = NewDialer(cfg)
		if cfg.KnownHostsPath == "" {
			s.logger.Warn("no known_hosts file configured, SFTP host keys are not verified")
		}
	}

	return s, nil
}

func (s *Storage) Config() storage.Config {
	return s.cfg
}

func (s *Storage) withSession(ctx context.Context, op, id string, fn func(Session) error) error {
	s.logger.DebugWithFields("sftp "+op, zap.String("dir", s.cfg.Dir), zap.String("id", id))

	sess, err := s.dialer.Dial(ctx)
	if err != nil {
		return classify(op, id, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.logger.DebugWithFields("sftp session close failed", zap.String("op", op), zap.Error(cerr))
		}
	}()

	return classify(op, id, fn(sess))
}

// Upload ensures dir exists and streams src into dir/id.
func (s *Storage) Upload(ctx context.Context, src storage.Source, id string, _ storage.Metadata) error {
	if err := storage.CheckID("upload", id); err != nil {
		return err
	}
	r, err := storage.OpenSource(src)
	if err != nil {
		return storage.SourceError("upload", id, err)
	}
	defer r.Close()

	return s.withSession(ctx, "upload", id, func(sess Session) error {
		if err := s.ensureDir(sess); err != nil {
			return err
		}

		f, err := sess.Create(s.remotePath(id))
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(f, r)
		return multierr.Append(copyErr, f.Close())
	})
}

// ensureDir creates dir and any missing parents. An existing directory,
// including one created concurrently by another caller, is not an error.
func (s *Storage) ensureDir(sess Session) error {
	return sess.MkdirAll(s.cfg.Dir)
}

// Open downloads dir/id fully into memory.
func (s *Storage) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := storage.CheckID("open", id); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := s.withSession(ctx, "open", id, func(sess Session) error {
		f, err := sess.Open(s.remotePath(id))
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(&buf, f)
		return multierr.Append(copyErr, f.Close())
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// Exists stats dir/id. A missing entry or one that is not a regular file
// maps to false.
func (s *Storage) Exists(ctx context.Context, id string) (bool, error) {
	if err := storage.CheckID("exists", id); err != nil {
		return false, err
	}
	var found bool
	err := s.withSession(ctx, "exists", id, func(sess Session) error {
		var err error
		found, err = stat(sess, s.remotePath(id))
		return err
	})
	return found, err
}

// Delete removes dir/id and reports whether a file was removed.
func (s *Storage) Delete(ctx context.Context, id string) (bool, error) {
	if err := storage.CheckID("delete", id); err != nil {
		return false, err
	}
	var removed bool
	err := s.withSession(ctx, "delete", id, func(sess Session) error {
		p := s.remotePath(id)
		found, err := stat(sess, p)
		if err != nil || !found {
			return err
		}
		if err := sess.Remove(p); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func stat(sess Session, p string) (bool, error) {
	fi, err := sess.Stat(p)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// URL joins prefix, dir and id. The prefix defaults to the host.
func (s *Storage) URL(id string) string {
	return storage.JoinURL(s.cfg.URLPrefix(), s.cfg.Dir, id)
}

func (s *Storage) String() string {
	return fmt.Sprintf("sftpstore.Storage{host=%q}", s.cfg.Host)
}

func (s *Storage) remotePath(id string) string {
	return path.Join(s.cfg.Dir, id)
}
