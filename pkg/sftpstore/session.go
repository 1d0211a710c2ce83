package sftpstore

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"go.uber.org/multierr"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/bacalhau-project/remotestore/pkg/storage"
)

// Session is one authenticated SFTP session. *sftp.Client satisfies it.
type Session interface {
	MkdirAll(path string) error
	Create(path string) (*sftp.File, error)
	Open(path string) (*sftp.File, error)
	Stat(path string) (os.FileInfo, error)
	Remove(path string) error
	Close() error
}

var _ Session = (*sftp.Client)(nil)

// Dialer opens one session per call.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type DialerFunc func(ctx context.Context) (Session, error)

func (f DialerFunc) Dial(ctx context.Context) (Session, error) {
	return f(ctx)
}

// sshSession owns both the SFTP client and the SSH connection under it.
type sshSession struct {
	*sftp.Client
	conn *ssh.Client
}

func (s *sshSession) Close() error {
	return multierr.Append(s.Client.Close(), s.conn.Close())
}

// NewDialer returns the production dialer for cfg, authenticating with the
// configured password.
func NewDialer(cfg storage.Config) Dialer {
	return &sshDialer{cfg: cfg}
}

type sshDialer struct {
	cfg storage.Config
}

func (d *sshDialer) clientConfig() (*ssh.ClientConfig, error) {
	hostKeyCallback, err := hostKeyCallback(d.cfg.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	password := d.cfg.Password
	return &ssh.ClientConfig{
		User: d.cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.cfg.Timeout,
	}, nil
}

func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}

	expanded, err := homedir.Expand(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand known_hosts path: %w", err)
	}
	callback, err := knownhosts.New(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}
	return callback, nil
}

func (d *sshDialer) Dial(ctx context.Context) (Session, error) {
	clientConfig, err := d.clientConfig()
	if err != nil {
		return nil, storage.NewError(storage.KindTransport, "dial", "", err)
	}

	addr := d.cfg.Address()
	dialer := &net.Dialer{Timeout: d.cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, storage.NewError(storage.KindTransport, "dial", "", err)
	}

	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientConfig)
	if err != nil {
		_ = netConn.Close()
		return nil, classifyHandshake(err)
	}
	conn := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, storage.NewError(storage.KindTransport, "dial", "", fmt.Errorf("failed to start sftp subsystem: %w", err))
	}

	return &sshSession{Client: client, conn: conn}, nil
}
