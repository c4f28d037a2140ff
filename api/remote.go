/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package marionette

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"net"
	"syscall"
	"time"

	"github.com/dburkart/marionette/pkg/proto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// A RemoteClient sends command lines to a marionette server. Lines run
// against the server's device set; the server's defaults apply, not the
// caller's.
type RemoteClient struct {
	log    zerolog.Logger
	target proto.ConnectionString
	conn   chan net.Conn
}

func (client *RemoteClient) open(target proto.ConnectionString, size uint) error {
	client.target = target
	client.conn = make(chan net.Conn, size)

	for i := uint(0); i < size; i++ {
		c, err := net.Dial("tcp4", client.target.Address)
		if err != nil {
			return errors.Wrap(err, "unable to reach the command server")
		}
		client.conn <- c
	}

	return nil
}

func (client *RemoteClient) Close() error {
	for i := 0; i < len(client.conn); i++ {
		conn := <-client.conn
		err := conn.Close()
		if err != nil {
			return err
		}
	}
	client.conn = nil
	return nil
}

func (client *RemoteClient) reconnectWithBackoff() (net.Conn, error) {
	var conn net.Conn
	var err error

	// Three attempts, backing off exponentially
	for i := 0; i < 3; i++ {
		delay := time.Duration(math.Exp2(float64(i)))
		time.Sleep(delay * time.Second)
		conn, err = net.Dial("tcp4", client.target.Address)
		if err == nil {
			break
		}
		client.log.Debug().Err(err).Int("attempt", i).Msg("reconnect failed")
	}

	return conn, err
}

// Run sends one line to the server and waits for its framed reply. An
// err reply surfaces as an error with the server's message.
func (client *RemoteClient) Run(line string) (string, error) {
	var err error

	conn := <-client.conn
	defer func() {
		client.conn <- conn
	}()

retry:
	_, err = fmt.Fprintf(conn, "%s\n", line)
	if err != nil {
		// Handle peer reset with reconnect logic
		if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
			conn, err = client.reconnectWithBackoff()
			if err != nil {
				return "", err
			}
			// We retry with a goto rather than calling Run again, so the
			// connection pool doesn't end up holding a duplicate net.Conn.
			goto retry
		}
		return "", err
	}

	resp, err := proto.ReadResponse(bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, io.EOF) {
			conn, err = client.reconnectWithBackoff()
			if err != nil {
				return "", err
			}
			goto retry
		}
		return "", err
	}

	if !resp.OK {
		return "", errors.New(resp.Body)
	}
	return resp.Body, nil
}
