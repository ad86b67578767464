package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/libs/cli"
	"github.com/dreamer-zq/nft-escrow/libs/log"
)

// EnvPrefix is the prefix of environment variables that override config
// values, e.g. ESCROW_LOG_LEVEL.
const EnvPrefix = "ESCROW"

// ParseConfig retrieves the default environment configuration,
// sets up the escrow root and ensures that the root exists
func ParseConfig(conf *config.Config) (*config.Config, error) {
	if err := viper.Unmarshal(conf); err != nil {
		return nil, err
	}

	conf.SetRoot(conf.RootDir)

	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return conf, nil
}

// RootCommand constructs the root command-line entry point for escrowd.
func RootCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrowd",
		Short: "NFT escrow state machine served over ABCI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == VersionCmd.Name() {
				return nil
			}

			pconf, err := ParseConfig(conf)
			if err != nil {
				return err
			}
			*conf = *pconf
			if err := config.EnsureRoot(conf.RootDir); err != nil {
				return err
			}
			return log.OverrideWithNewLogger(logger, conf.LogFormat, conf.LogLevel)
		},
	}
	cmd.PersistentFlags().String("log_level", conf.LogLevel, "log level (debug | info | warn | error)")
	cmd.PersistentFlags().String("log_format", conf.LogFormat, "log format (plain | text | json)")
	return cli.PrepareBaseCmd(cmd, EnvPrefix, os.ExpandEnv(filepath.Join("$HOME", config.DefaultEscrowDir)))
}
