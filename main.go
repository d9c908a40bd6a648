// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// translayer - a CLI for exchanging and inspecting packets over a
// COBS-framed, CRC-checked serial transport.

package main

import (
	"fmt"
	"os"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
