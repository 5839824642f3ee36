package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/goto/salt/cmdx"
	"github.com/goto/salt/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/datatrail-io/sextant/internal/server"
	"github.com/datatrail-io/sextant/internal/store/postgres"
)

const configFlag = "config"

type Config struct {
	// Log
	LogLevel string `yaml:"log_level" mapstructure:"log_level" default:"info"`

	// Database
	DB postgres.Config `mapstructure:"db"`

	// Service
	Service server.Config `mapstructure:"service"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	err := cmdx.SetConfig("sextant").Load(&cfg)
	if err != nil {
		if errors.As(err, &config.ConfigFileNotFoundError{}) {
			return LoadFromCurrentDir()
		}
		return &cfg, err
	}
	return &cfg, nil
}

func LoadFromCurrentDir() (*Config, error) {
	var cfg Config
	var opts []config.LoaderOption

	opts = append(opts,
		config.WithPath("./"),
		config.WithName("sextant.yaml"),
		config.WithEnvKeyReplacer(".", "_"),
		config.WithEnvPrefix("SEXTANT"),
	)

	if err := config.NewLoader(opts...).Load(&cfg); err != nil {
		if errors.As(err, &config.ConfigFileNotFoundError{}) {
			return &cfg, ErrConfigNotFound
		}
		return &cfg, err
	}
	return &cfg, nil
}

func LoadConfigFromFlag(cfgFile string, cfg *Config) error {
	var opts []config.LoaderOption
	opts = append(opts, config.WithFile(cfgFile))

	return config.NewLoader(opts...).Load(cfg)
}

func configCommand(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage server configurations",
		Example: heredoc.Doc(`
			$ sextant config init
			$ sextant config list`),
	}

	cmd.AddCommand(configInitCommand())
	cmd.AddCommand(configListCommand(cfg))

	return cmd
}

func configInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new server configuration",
		Example: heredoc.Doc(`
			$ sextant config init
		`),
		Annotations: map[string]string{
			"group": "core",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cmdx.SetConfig("sextant")

			if err := cfg.Init(&Config{}); err != nil {
				return err
			}

			fmt.Printf("config created: %v\n", cfg.File())
			return nil
		},
	}
}

func configListCommand(cfg *Config) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "list",
		Short: "List server configuration settings",
		Example: heredoc.Doc(`
			$ sextant config list
		`),
		Annotations: map[string]string{
			"group": "core",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = yaml.NewEncoder(os.Stdout).Encode(*cfg)
			return nil
		},
	}
	return cmd
}
