package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/bacalhau-project/remotestore/pkg/ftpstore"
	"github.com/bacalhau-project/remotestore/pkg/sftpstore"
	"github.com/bacalhau-project/remotestore/pkg/storage"
)

// configView is the printable form of the effective config.
type configView struct {
	Backend            string `json:"backend"`
	Host               string `json:"host"`
	Port               int    `json:"port"`
	User               string `json:"user"`
	Password           string `json:"password,omitempty"`
	Dir                string `json:"dir"`
	Prefix             string `json:"prefix"`
	Timeout            string `json:"timeout"`
	TLS                string `json:"tls,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
	KnownHosts         string `json:"known_hosts,omitempty"`
}

func newConfigView(backend string, cfg storage.Config) configView {
	defaultPort := ftpstore.DefaultPort
	if backend == backendSFTP {
		defaultPort = sftpstore.DefaultPort
	}
	cfg = cfg.WithDefaults(defaultPort).Redacted()

	view := configView{
		Backend:  backend,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Dir:      cfg.Dir,
		Prefix:   cfg.Prefix,
		Timeout:  cfg.Timeout.String(),
	}
	if backend == backendSFTP {
		view.KnownHosts = cfg.KnownHostsPath
	} else {
		view.TLS = string(cfg.TLS)
		view.InsecureSkipVerify = cfg.InsecureSkipVerify
	}
	return view
}

func getConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML, with the password redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.storeConfig()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(newConfigView(c.backend(), cfg))
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
