/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package test

import (
	"sync"
	"time"

	marionette "github.com/dburkart/marionette/api"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Command = &cobra.Command{
	Use:   "test",
	Short: "Send a series of test commands to the server",

	Run: func(cmd *cobra.Command, args []string) {
		log := viper.Get("logger").(zerolog.Logger)

		host := viper.GetString("marionette.host")
		workers := viper.GetInt("workers")

		client, err := marionette.NewClientPool(log, host, command.Defaults{}, uint(workers))
		if err != nil {
			log.Fatal().Err(err).Str("host", host).Msg("unable to connect to server")
		}
		defer client.Close()

		// test
		timeIt("DeviceChurnTest", client, DeviceChurnTest)
	},
}

func init() {
	// Flags for this command
	Command.Flags().Int("count", 10, "Number of devices each worker creates")
	Command.Flags().Int("workers", 4, "Number of concurrent workers")

	// Bind flags to viper
	viper.BindPFlag("count", Command.Flags().Lookup("count"))
	viper.BindPFlag("workers", Command.Flags().Lookup("workers"))
}

func timeIt(name string, client marionette.Client, f func(client marionette.Client)) {
	t := time.Now()
	defer func() {
		log.Info().Str("dur", time.Since(t).String()).Str("name", name).Send()
	}()
	f(client)
}

func DeviceChurnTest(client marionette.Client) {
	count := viper.GetInt("count")
	workers := viper.GetInt("workers")

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < count; i++ {
				if _, err := client.Run("create iPhone-8"); err != nil {
					log.Error().Err(err).Send()
					return
				}
			}
		}()
	}
	wg.Wait()
}
