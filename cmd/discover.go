// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List available serial ports",
	Long: `Enumerate serial ports visible to the OS, along with USB
vendor/product IDs and serial numbers where the driver reports them.

This lists ports only; it never opens a connection or talks to a peer,
so it carries none of the transport's own framing or CRC semantics.

Exit codes:
  0 - at least one port found
  1 - no ports found
  2 - enumeration error`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "enumeration error: %v\n", err)
		os.Exit(2)
	}

	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "no serial ports found")
		os.Exit(1)
	}

	for _, p := range ports {
		fmt.Printf("%s\n", p.Name)
		if p.IsUSB {
			fmt.Printf("  USB VID:PID %s:%s", p.VID, p.PID)
			if p.SerialNumber != "" {
				fmt.Printf("  serial=%s", p.SerialNumber)
			}
			fmt.Println()
			if p.Product != "" {
				fmt.Printf("  product=%s\n", p.Product)
			}
		}
	}
	return nil
}
