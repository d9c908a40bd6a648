// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

var sendHex string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build a packet from a hex payload and write it to the serial port",
	Long: `Stage the payload given by --hex, frame it (COBS + CRC), and write
the resulting packet to the serial port in a single operation.

Exit codes:
  0 - packet sent
  1 - payload or configuration error
  2 - connection or write error`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendHex, "hex", "", "Payload bytes as hex, e.g. deadbeef (required)")
	sendCmd.MarkFlagRequired("hex")
}

// sendPayload stages and sends payload over tr. Split out from runSend so
// it can be driven against an in-memory transport in tests without a real
// serial port or os.Exit. staged is false when the payload itself is
// rejected (StageTx fails, or Send reports an empty payload), so the
// caller can keep distinguishing "bad payload" (exit 1) from "write
// failed" (exit 2).
func sendPayload(tr *translayer.Transport, payload []byte) (staged bool, err error) {
	if err := tr.StageTx(0, payload); err != nil {
		return false, fmt.Errorf("stage error: %w", err)
	}
	ok, err := tr.Send()
	if errors.Is(err, translayer.SentinelEmptyPayload) {
		return false, fmt.Errorf("stage error: %w", err)
	}
	if err != nil {
		return true, fmt.Errorf("send error: %w", err)
	}
	if !ok {
		return true, fmt.Errorf("send failed")
	}
	return true, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	payload, err := hex.DecodeString(sendHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --hex payload: %v\n", err)
		os.Exit(1)
	}

	tr, endpoint, err := openTransport()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection error: %v\n", err)
		os.Exit(2)
	}
	defer endpoint.Close()

	staged, err := sendPayload(tr, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if !staged {
			os.Exit(1)
		}
		os.Exit(2)
	}

	fmt.Printf("sent %d bytes\n", len(payload))
	return nil
}
