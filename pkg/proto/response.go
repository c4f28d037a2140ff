/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package proto

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Response is one framed reply on a command connection. The body is
// length-prefixed on the wire so the reader never sniffs for a
// terminator:
//
//	ok <n>\n<body>
//	err <n>\n<message>
type Response struct {
	OK   bool
	Body string
}

func WriteResponse(w io.Writer, r Response) (int, error) {
	status := "ok"
	if !r.OK {
		status = "err"
	}
	return fmt.Fprintf(w, "%s %d\n%s", status, len(r.Body), r.Body)
}

func ReadResponse(rd *bufio.Reader) (Response, error) {
	header, err := rd.ReadString('\n')
	if err != nil {
		return Response{}, err
	}

	status, size, found := strings.Cut(strings.TrimSuffix(header, "\n"), " ")
	if !found {
		return Response{}, fmt.Errorf("malformed response header %q", header)
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return Response{}, fmt.Errorf("malformed response length %q", size)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(rd, body); err != nil {
		return Response{}, err
	}

	switch status {
	case "ok":
		return Response{OK: true, Body: string(body)}, nil
	case "err":
		return Response{OK: false, Body: string(body)}, nil
	}
	return Response{}, fmt.Errorf("unrecognized response status %q", status)
}
