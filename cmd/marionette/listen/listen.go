/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package listen

import (
	"path/filepath"

	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/dburkart/marionette/pkg/history"
	"github.com/dburkart/marionette/pkg/runner"
	"github.com/dburkart/marionette/pkg/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "listen",
	Short: "Serve a device set to remote clients",

	Run: func(cmd *cobra.Command, args []string) {
		logger := viper.Get("logger").(zerolog.Logger)

		set, err := device.Open(
			logger,
			viper.GetString("marionette.set"),
			viper.GetBool("marionette.kill-stale"),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to open the device set")
		}
		hist := &history.Log{Path: filepath.Join(set.Path, runner.HistoryFile)}

		defaults, err := command.LoadDefaults(rcPath())
		if err != nil {
			logger.Error().Err(err).Msg("ignoring malformed rc file")
		}

		srv := server.New(
			logger,
			set,
			hist,
			defaults,
			viper.GetInt("marionette.port"),
			viper.GetInt("marionette.prom-port"),
		)

		// Serve the command socket
		go srv.ServeCommands()

		// Serve the metrics endpoint
		srv.ServeMetrics()
	},
}

func rcPath() string {
	if rc := viper.GetString("marionette.rc"); rc != "" {
		return rc
	}
	return command.DefaultRCPath()
}

func init() {
	// Flags for this command
	Command.Flags().IntP("port", "p", 8400, "Command server port for client connections")
	Command.Flags().Int("prom-port", 2112, "Set the port for /metrics")
	Command.Flags().StringP("set", "s", command.DefaultSetPath(), "Path to the device set to serve")
	Command.Flags().Bool("kill-stale", false, "Force devices stranded mid transition back to shutdown at startup")

	// Bind flags to viper
	viper.BindPFlag("marionette.port", Command.Flags().Lookup("port"))
	viper.BindPFlag("marionette.prom-port", Command.Flags().Lookup("prom-port"))
	viper.BindPFlag("marionette.set", Command.Flags().Lookup("set"))
	viper.BindPFlag("marionette.kill-stale", Command.Flags().Lookup("kill-stale"))
}
