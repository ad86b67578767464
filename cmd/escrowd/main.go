package main

import (
	"github.com/dreamer-zq/nft-escrow/cmd/escrowd/commands"
	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/libs/cli"
	"github.com/dreamer-zq/nft-escrow/libs/log"
)

func main() {
	conf := config.DefaultConfig()

	logger := log.MustNewDefaultLogger(conf.LogFormat, conf.LogLevel)

	rootCmd := commands.RootCommand(conf, logger)
	rootCmd.AddCommand(
		commands.MakeInitCommand(conf, logger),
		commands.MakeStartCommand(conf, logger),
		commands.MakeOrdersCommand(conf),
		commands.MakeExportCommand(conf, logger),
		commands.MakeTxCommand(),
		commands.VersionCmd,
	)

	cli.Execute(rootCmd)
}
