/*
 * Copyright (c) 2022, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package run

import (
	"fmt"
	"os"

	marionette "github.com/dburkart/marionette/api"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "run [command tokens]",
	Short: "Run one device command and print the result",

	// The whole tail is the command vector; its flags belong to the
	// device grammar, not to cobra.
	DisableFlagParsing: true,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
			cmd.Help()
			return
		}

		log := viper.Get("logger").(zerolog.Logger)

		defaults, err := command.LoadDefaults(rcPath())
		if err != nil {
			log.Error().Err(err).Msg("ignoring malformed rc file")
		}

		client, err := marionette.NewClient(log, viper.GetString("marionette.host"), defaults)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to open a client")
		}
		defer client.Close()

		out, err := client.Run(shellquote.Join(args...))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(out)
	},
}

func rcPath() string {
	if rc := viper.GetString("marionette.rc"); rc != "" {
		return rc
	}
	return command.DefaultRCPath()
}
