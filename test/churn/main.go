/*
 * Copyright (c) 2022, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	marionette "github.com/dburkart/marionette/api"
	"github.com/dburkart/marionette/pkg/command"
	"github.com/rs/zerolog"
)

/*
 * This tests aggressive connection use as well as aggressive device churn.
 * Every worker runs full lifecycles against its own devices, so the server
 * sees creates, boots, and shutdowns interleaved across connections.
 */

func main() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := marionette.NewClientPool(zerolog.Nop(), "marionette://localhost:8400", command.Defaults{}, 10)
			if err != nil {
				os.Exit(1)
			}
			defer client.Close()

			for i := 0; i < 100; i++ {
				out, err := client.Run("--csv --udid create iPhone-8")
				if err != nil {
					fmt.Println(err)
					os.Exit(1)
				}

				rows := strings.Split(strings.TrimSpace(out), "\n")
				udid := rows[len(rows)-1]

				for _, line := range []string{
					fmt.Sprintf("%s boot --scale 50", udid),
					fmt.Sprintf("%s shutdown", udid),
					fmt.Sprintf("%s delete", udid),
				} {
					if _, err := client.Run(line); err != nil {
						fmt.Println(err)
						os.Exit(1)
					}
				}
			}
		}()
	}
	wg.Wait()
}
