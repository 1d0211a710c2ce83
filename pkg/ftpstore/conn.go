package ftpstore

import (
	"context"
	"crypto/tls"
	"io"

	"github.com/jlaffaye/ftp"

	"github.com/bacalhau-project/remotestore/pkg/storage"
)

// Conn is the subset of an FTP control connection the store drives. A Conn
// is already logged in.
type Conn interface {
	ChangeDir(path string) error
	MakeDir(path string) error
	Stor(path string, r io.Reader) error
	Retr(path string) (io.ReadCloser, error)
	FileSize(path string) (int64, error)
	NameList(path string) ([]string, error)
	Delete(path string) error
	Quit() error
}

// Dialer opens one authenticated connection per call.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) {
	return f(ctx)
}

type serverConn struct {
	*ftp.ServerConn
}

func (c *serverConn) Retr(path string) (io.ReadCloser, error) {
	resp, err := c.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// NewDialer returns the production dialer for cfg. Data connections are
// always passive.
func NewDialer(cfg storage.Config) Dialer {
	return &ftpDialer{cfg: cfg}
}

type ftpDialer struct {
	cfg storage.Config
}

func (d *ftpDialer) options(ctx context.Context) []ftp.DialOption {
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(d.cfg.Timeout),
	}

	tlsConfig := &tls.Config{
		ServerName:         d.cfg.Host,
		InsecureSkipVerify: d.cfg.InsecureSkipVerify, //nolint:gosec
		ClientSessionCache: tls.NewLRUClientSessionCache(0),
	}
	switch d.cfg.TLS {
	case storage.TLSExplicit:
		opts = append(opts, ftp.DialWithExplicitTLS(tlsConfig))
	case storage.TLSImplicit:
		opts = append(opts, ftp.DialWithTLS(tlsConfig))
	}
	return opts
}

func (d *ftpDialer) Dial(ctx context.Context) (Conn, error) {
	c, err := ftp.Dial(d.cfg.Address(), d.options(ctx)...)
	if err != nil {
		return nil, storage.NewError(storage.KindTransport, "dial", "", err)
	}

	if err := c.Login(d.cfg.User, d.cfg.Password); err != nil {
		_ = c.Quit()
		return nil, classify("login", "", err)
	}

	return &serverConn{ServerConn: c}, nil
}
