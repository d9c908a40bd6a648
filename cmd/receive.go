// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

var receiveTimeout int

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Wait for one valid packet on the serial port and print its payload",
	Long: `Wait up to --timeout seconds for a single valid, CRC-checked packet,
then print its decoded payload as hex.

Exit codes:
  0 - packet received
  1 - timed out
  2 - connection or receive error`,
	RunE: runReceive,
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.Flags().IntVar(&receiveTimeout, "timeout", 10, "Timeout in seconds to wait for a packet")
}

// receiveOnce polls tr.Receive() until it succeeds, errors, or timeout
// elapses. Split out from runReceive so it can be driven against an
// in-memory transport in tests without a real serial port or os.Exit.
//
// A single Receive() call returns immediately when nothing is waiting yet
// (no start byte found), so the polling here is what actually honors
// timeout; the transport's own TimeoutUS only bounds a packet already in
// progress.
func receiveOnce(tr *translayer.Transport, timeout time.Duration) (bool, error) {
	type result struct {
		ok  bool
		err error
	}
	resultChan := make(chan result, 1)

	go func() {
		for {
			ok, err := tr.Receive()
			if err != nil || ok {
				resultChan <- result{ok: ok, err: err}
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	select {
	case r := <-resultChan:
		return r.ok, r.err
	case <-time.After(timeout):
		return false, nil
	}
}

func runReceive(cmd *cobra.Command, args []string) error {
	tr, endpoint, err := openTransport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection error: %v\n", err)
		os.Exit(2)
	}
	defer endpoint.Close()

	ok, err := receiveOnce(tr, time.Duration(receiveTimeout)*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive error: %v\n", err)
		os.Exit(2)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "TIMEOUT: no valid packet received within %d seconds\n", receiveTimeout)
		os.Exit(1)
	}

	fmt.Printf("SUCCESS: received %d bytes\n", tr.RxUsed())
	fmt.Printf("  payload: %s\n", hex.EncodeToString(tr.RxPayload()))
	return nil
}
