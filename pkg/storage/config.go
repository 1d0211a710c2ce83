package storage

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const DefaultDialTimeout = 10 * time.Second

// TLSMode selects how an FTP control connection is secured.
type TLSMode string

const (
	TLSNone     TLSMode = "none"
	TLSExplicit TLSMode = "explicit"
	TLSImplicit TLSMode = "implicit"
)

// Config describes one remote store. It is immutable once handed to a store.
type Config struct {
	Host     string        `json:"host"               yaml:"host"               mapstructure:"host"`
	Port     int           `json:"port,omitempty"     yaml:"port,omitempty"     mapstructure:"port"`
	User     string        `json:"user"               yaml:"user"               mapstructure:"user"`
	Password string        `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	Dir      string        `json:"dir"                yaml:"dir"                mapstructure:"dir"`
	Prefix   string        `json:"prefix,omitempty"   yaml:"prefix,omitempty"   mapstructure:"prefix"`
	Timeout  time.Duration `json:"timeout,omitempty"  yaml:"timeout,omitempty"  mapstructure:"timeout"`

	// FTP only.
	TLS                TLSMode `json:"tls,omitempty"                  yaml:"tls,omitempty"                  mapstructure:"tls"`
	InsecureSkipVerify bool    `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty" mapstructure:"insecure_skip_verify"`

	// SFTP only. Empty disables host key verification.
	KnownHostsPath string `json:"known_hosts,omitempty" yaml:"known_hosts,omitempty" mapstructure:"known_hosts"`
}

// WithDefaults fills the optional fields, using defaultPort when Port is unset.
func (c Config) WithDefaults(defaultPort int) Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Prefix == "" {
		c.Prefix = c.Host
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultDialTimeout
	}
	if c.TLS == "" {
		c.TLS = TLSNone
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("dir cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}
	switch c.TLS {
	case "", TLSNone, TLSExplicit, TLSImplicit:
	default:
		return fmt.Errorf("invalid tls mode %q", c.TLS)
	}
	return nil
}

// Address is host:port for dialing.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URLPrefix is the host part of public URLs.
func (c Config) URLPrefix() string {
	if c.Prefix != "" {
		return c.Prefix
	}
	return c.Host
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "REDACTED"
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("%s@%s/%s", c.User, c.Address(), strings.TrimPrefix(c.Dir, "/"))
}

// MarshalLogObject lets configs be logged with zap.Object. The password is
// never written.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("host", c.Host)
	enc.AddInt("port", c.Port)
	enc.AddString("user", c.User)
	enc.AddString("dir", c.Dir)
	enc.AddString("prefix", c.URLPrefix())
	if c.TLS != "" {
		enc.AddString("tls", string(c.TLS))
	}
	if c.KnownHostsPath != "" {
		enc.AddString("known_hosts", c.KnownHostsPath)
	}
	return nil
}

// JoinURL joins prefix, dir and id with "/", dropping empty parts and
// duplicate separators at the seams.
func JoinURL(prefix, dir, id string) string {
	parts := make([]string, 0, 3)
	if p := strings.TrimRight(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if d := strings.Trim(dir, "/"); d != "" {
		parts = append(parts, d)
	}
	if i := strings.TrimLeft(id, "/"); i != "" {
		parts = append(parts, i)
	}
	return strings.Join(parts, "/")
}
