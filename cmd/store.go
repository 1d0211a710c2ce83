package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bacalhau-project/remotestore/pkg/ftpstore"
	"github.com/bacalhau-project/remotestore/pkg/logger"
	"github.com/bacalhau-project/remotestore/pkg/sftpstore"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

const (
	backendFTP  = "ftp"
	backendSFTP = "sftp"
)

// Store is what the subcommands need from either backend.
type Store interface {
	storage.Storage
	Config() storage.Config
	String() string
}

// NewStoreFunc builds the store for a backend. Tests replace it to run the
// commands against in-memory servers.
var NewStoreFunc = newStore

func newStore(backend string, cfg storage.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch backend {
	case backendFTP:
		s, err = ftpstore.New(cfg, ftpstore.WithLogger(logger.Get()))
	case backendSFTP:
		s, err = sftpstore.New(cfg, sftpstore.WithLogger(logger.Get()))
	default:
		return nil, fmt.Errorf("unsupported backend %q: must be %s or %s", backend, backendFTP, backendSFTP)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	for _, key := range []string{"password", "known_hosts", "logging.level", "logging.file_path", "logging.format"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("timeout", storage.DefaultDialTimeout)
	v.SetDefault("tls", string(storage.TLSNone))
	v.SetDefault("insecure_skip_verify", false)
	v.SetDefault("logging.instant_sync", false)
}

func (c *cli) backend() string {
	return strings.ToLower(strings.TrimSpace(c.v.GetString("backend")))
}

func (c *cli) storeConfig() (storage.Config, error) {
	var cfg storage.Config
	if err := c.v.Unmarshal(&cfg); err != nil {
		return storage.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c *cli) store() (Store, error) {
	cfg, err := c.storeConfig()
	if err != nil {
		return nil, err
	}
	return NewStoreFunc(c.backend(), cfg)
}
