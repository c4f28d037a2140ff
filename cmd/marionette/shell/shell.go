/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package shell

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	marionette "github.com/dburkart/marionette/api"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/dburkart/marionette/pkg/device"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log zerolog.Logger

var (
	Command = &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt for driving a device set",

		Run: func(cmd *cobra.Command, args []string) {
			log := viper.Get("logger").(zerolog.Logger)

			defaults, err := command.LoadDefaults(rcPath())
			if err != nil {
				log.Error().Err(err).Msg("ignoring malformed rc file")
			}

			host := viper.GetString("marionette.host")
			client, err := marionette.NewClient(log, host, defaults)
			if err != nil {
				log.Fatal().Err(err).Str("host", host).Msg("unable to open a client")
			}
			defer client.Close()

			readlinePrompt(client)
		},
	}
)

func init() {
	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).
		With().
		Timestamp().
		Caller().
		Logger()
}

func rcPath() string {
	if rc := viper.GetString("marionette.rc"); rc != "" {
		return rc
	}
	return command.DefaultRCPath()
}

// listUDIDs completes device udids from a live listing, so the prompt
// tracks creates and deletes made elsewhere.
func listUDIDs(c marionette.Client) func(string) []string {
	return func(line string) []string {
		out, err := c.Run("--csv --udid list")
		if err != nil {
			return []string{}
		}

		rows := strings.Split(strings.TrimSpace(out), "\n")
		if len(rows) < 2 {
			return []string{}
		}
		return rows[1:]
	}
}

func productItems() []readline.PrefixCompleterInterface {
	items := []readline.PrefixCompleterInterface{}
	for _, p := range device.Products {
		items = append(items, readline.PcItem(p.Name))
	}
	return items
}

func actionItems() []readline.PrefixCompleterInterface {
	items := []readline.PrefixCompleterInterface{}
	for _, name := range command.ActionNames() {
		if name == "create" {
			items = append(items, readline.PcItem(name, productItems()...))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return items
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func readlinePrompt(c marionette.Client) {
	// Configure the completer. A line may lead with a device query, so
	// actions complete both bare and behind a udid or "all".
	items := actionItems()
	items = append(items, readline.PcItem("all", actionItems()...))
	items = append(items, readline.PcItemDynamic(listUDIDs(c), actionItems()...))

	completer := readline.NewPrefixCompleter(items...)

	// Setup the readline executor
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31m>\033[0m ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	// Handle input
	for {
		ln := rl.Line()
		if ln.CanContinue() {
			continue
		} else if ln.CanBreak() {
			break
		}
		line := strings.TrimSpace(ln.Line)
		if line == "" {
			continue
		}

		if strings.ToUpper(line) == "HELP" {
			fmt.Println("usage:")
			fmt.Println(completer.Tree("    "))
			continue
		}
		if strings.ToUpper(line) == "EXIT" {
			os.Exit(0)
		}

		out, err := c.Run(line)
		if err != nil {
			log.Error().Err(err).Send()
			continue
		}

		fmt.Print(out)
		fmt.Println()
	}
	rl.Clean()
}
