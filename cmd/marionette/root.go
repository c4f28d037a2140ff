/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette

import (
	"fmt"
	"os"

	"github.com/dburkart/marionette/cmd/marionette/listen"
	"github.com/dburkart/marionette/cmd/marionette/run"
	"github.com/dburkart/marionette/cmd/marionette/shell"
	"github.com/dburkart/marionette/cmd/marionette/test"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	Version        = "develop"
	CommitHash     = "n/a"
	BuildTimestamp = "n/a"

	rootCmd = &cobra.Command{
		Use:   "marionette",
		Short: "Marionette manages sets of simulated devices",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging()
			initLogLevel()
			initConfig(cmd.Root().PersistentFlags().Lookup("config").Value.String())
			initLogLevel()
			traceConfig()
		},
		Version: Version,
	}
)

func init() {
	// Configure the root binary options
	rootCmd.PersistentFlags().CountP("verbose", "v", "-v for debug logs (-vv for trace)")
	rootCmd.PersistentFlags().Bool("local", true, "Configures the logger to print readable logs")
	rootCmd.PersistentFlags().StringP("host", "H", "", "Connection string (marionette://host:port, or a device set path)")
	rootCmd.PersistentFlags().String("rc", "", "Path to the rc file holding per-user defaults (default $HOME/.marionetterc)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the marionette config file (default ./config.toml)")

	// Bind viper config to the root flags
	viper.BindPFlag("marionette.local", rootCmd.PersistentFlags().Lookup("local"))
	viper.BindPFlag("marionette.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("marionette.host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("marionette.rc", rootCmd.PersistentFlags().Lookup("rc"))
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.SetVersionTemplate(fmt.Sprintf("marionette version: %s git_commit: %s build_time: %s\n", Version, CommitHash, BuildTimestamp))

	// Bind viper flags to ENV variables
	viper.AutomaticEnv()

	// Register commands on the root binary command
	run.Command.Version = rootCmd.Version
	shell.Command.Version = rootCmd.Version
	listen.Command.Version = rootCmd.Version
	test.Command.Version = rootCmd.Version
	rootCmd.AddCommand(run.Command)
	rootCmd.AddCommand(shell.Command)
	rootCmd.AddCommand(listen.Command)
	rootCmd.AddCommand(test.Command)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("root command failed")
		os.Exit(1)
	}
}
