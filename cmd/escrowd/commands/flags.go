package commands

import (
	"github.com/spf13/cobra"

	"github.com/dreamer-zq/nft-escrow/config"
)

// addAppFlags exposes the application settings on the command line. Flag
// names match config keys so viper binds them over the config file.
func addAppFlags(cmd *cobra.Command, conf *config.Config) {
	// abci flags
	cmd.Flags().String("proxy_app", conf.ProxyApp, "address the ABCI server listens on for Tendermint")
	cmd.Flags().String("abci", conf.ABCI, "specify abci transport (socket | grpc)")

	// escrow flags
	cmd.Flags().String("escrow.custody_address", conf.Escrow.CustodyAddress,
		"account holding escrowed assets and funds")

	// instrumentation flags
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve Prometheus metrics")
	cmd.Flags().String("instrumentation.prometheus_listen_addr", conf.Instrumentation.PrometheusListenAddr,
		"Prometheus metrics listen address")

	addDBFlags(cmd, conf)
}

func addDBFlags(cmd *cobra.Command, conf *config.Config) {
	cmd.Flags().String(
		"db_backend",
		conf.DBBackend,
		"database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb")
	cmd.Flags().String(
		"db_dir",
		conf.DBPath,
		"database directory")
}
