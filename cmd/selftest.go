// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

var selftestHex string

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Round-trip a payload through an in-memory loopback transport",
	Long: `Build a packet from --hex (or a default payload), push it through
an in-memory loopback serial port, and confirm it decodes back to the
same bytes. Does not open any real serial port; useful for confirming
a build is wired correctly before pointing it at hardware.

Exit codes:
  0 - round trip succeeded
  1 - round trip failed`,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().StringVar(&selftestHex, "hex", "48656c6c6f", "Payload bytes as hex to round-trip")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	payload, err := hex.DecodeString(selftestHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --hex payload: %v\n", err)
		os.Exit(1)
	}

	loop := translayer.NewLoopback()
	tr, err := translayer.New(cfg, loop, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transport construction failed: %v\n", err)
		os.Exit(1)
	}

	if err := tr.StageTx(0, payload); err != nil {
		fmt.Fprintf(os.Stderr, "stage failed: %v\n", err)
		os.Exit(1)
	}
	if ok, err := tr.Send(); err != nil || !ok {
		fmt.Fprintf(os.Stderr, "send failed: ok=%v err=%v\n", ok, err)
		os.Exit(1)
	}

	ok, err := tr.Receive()
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive failed: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "receive did not complete")
		os.Exit(1)
	}

	if !bytes.Equal(tr.RxPayload(), payload) {
		fmt.Fprintf(os.Stderr, "mismatch: sent %x, received %x\n", payload, tr.RxPayload())
		os.Exit(1)
	}

	fmt.Printf("PASS: round-tripped %d bytes through loopback\n", len(payload))
	return nil
}
