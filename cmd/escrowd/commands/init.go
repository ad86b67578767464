package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/libs/log"
)

// MakeInitCommand returns the command that writes a config file into the
// home directory.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the escrow home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(conf, logger)
		},
	}
	addAppFlags(cmd, conf)
	return cmd
}

func initFiles(conf *config.Config, logger log.Logger) error {
	path := config.ConfigFile(conf.RootDir)
	if _, err := os.Stat(path); err == nil {
		logger.Info("found config file", "path", path)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}
	logger.Info("generated config file", "path", path)
	return nil
}
