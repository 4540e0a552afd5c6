// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command pcindexd drives the chunk cache from local point files named
// on the command line, for testing and benchmarking the cache without a full
// ingestion service around it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

var (
	dashc string
	dashv bool
)

func init() {
	flag.StringVar(&dashc, "c", "", "path to YAML config file")
	flag.BoolVar(&dashv, "v", false, "verbose")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if len(f) == 0 || f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(os.Stderr, f, args...)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s -c <config.yaml> ingest <points.bin>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        ingest one or more local point files\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch args[0] {
	case "ingest":
		if dashc == "" {
			exitf("usage: -c <config.yaml> ingest <points.bin>...\n")
		}
		if len(args) < 2 {
			exitf("usage: ingest <points.bin>...\n")
		}
		if err := ingest(ctx, dashc, args[1:]); err != nil {
			exitf("ingest: %s\n", err)
		}
	default:
		exitf("commands: ingest\n")
	}
}
