package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bacalhau-project/remotestore/pkg/logger"
)

const (
	EnvPrefix         = "REMOTESTORE"
	DefaultConfigName = ".remotestore"
	DefaultBackend    = backendFTP
)

var VersionNumber = "v0.1.0"

// cli carries the state shared by one root command and its children.
type cli struct {
	cfgFile string
	verbose bool
	v       *viper.Viper
}

// GetRootCommand builds a fresh command tree, so every invocation gets its
// own flags and viper instance.
func GetRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "remotestore",
		Short: "remotestore moves files to and from FTP and SFTP servers",
		Long: `remotestore uploads, downloads, checks and deletes files kept in a
directory on a remote FTP or SFTP server, and prints their public URLs.`,
		Version:       VersionNumber,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			if err := c.initLogger(); err != nil {
				return err
			}
			cmd.SetContext(logger.IntoContext(cmd.Context(), logger.Get()))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.remotestore.yaml)")
	flags.BoolVar(&c.verbose, "verbose", false, "Enable verbose output")
	flags.String("backend", DefaultBackend, "Storage backend: ftp or sftp")
	flags.String("host", "", "Remote server host")
	flags.Int("port", 0, "Remote server port (default 21 for ftp, 22 for sftp)")
	flags.String("user", "", "Remote user")
	flags.String("dir", "", "Remote base directory")
	flags.String("prefix", "", "Host or CDN domain used in public URLs (default is host)")

	for _, key := range []string{"backend", "host", "port", "user", "dir", "prefix"} {
		cobra.CheckErr(c.v.BindPFlag(key, flags.Lookup(key)))
	}

	rootCmd.AddCommand(
		getUploadCmd(c),
		getGetCmd(c),
		getExistsCmd(c),
		getDeleteCmd(c),
		getURLCmd(c),
		getConfigCmd(c),
	)

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted. It is called by main.main().
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return GetRootCommand().ExecuteContext(ctx)
}

// loadConfig reads .env, the config file and REMOTESTORE_* variables.
func (c *cli) loadConfig() error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		c.v.AddConfigPath(home)
		c.v.SetConfigType("yaml")
		c.v.SetConfigName(DefaultConfigName)
	}

	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	setDefaults(c.v)

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func (c *cli) initLogger() error {
	cfg := logger.Config{
		Level:       c.v.GetString("logging.level"),
		FilePath:    c.v.GetString("logging.file_path"),
		Format:      c.v.GetString("logging.format"),
		InstantSync: c.v.GetBool("logging.instant_sync"),
	}
	if c.verbose {
		cfg.Level = "debug"
		cfg.EnableConsole = true
	}
	if err := logger.Initialize(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if used := c.v.ConfigFileUsed(); used != "" {
		logger.Get().Debugf("Using config file: %s", used)
	}
	return nil
}
