// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

var (
	// Global flags
	portName string
	baudRate int

	startByte            uint8
	delimiterByte        uint8
	crcWidth             int
	polynomial           uint32
	initialValue         uint32
	finalXor             uint32
	maxTxPayloadSize     uint8
	maxRxPayloadSize     uint8
	minRxPayloadSize     uint8
	timeoutUS            uint64
	allowStartByteErrors bool
)

var rootCmd = &cobra.Command{
	Use:   "translayer",
	Short: "Ataraxis transport layer CLI",
	Long: `translayer - a CLI for exchanging and inspecting packets over the
Ataraxis transport layer protocol: COBS framing, configurable-width CRC,
and a resumable receive state machine.

Provides one-shot send/receive, a loopback self-test, port discovery,
a live monitor dashboard, a websocket debug bridge, and capture/replay
of raw wire traffic for offline testing.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (required by commands that open a serial port)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate")

	rootCmd.PersistentFlags().Uint8Var(&startByte, "start-byte", translayer.DefaultStartByte, "Frame start byte")
	rootCmd.PersistentFlags().Uint8Var(&delimiterByte, "delimiter-byte", translayer.DefaultDelimiterByte, "COBS delimiter byte")
	rootCmd.PersistentFlags().IntVar(&crcWidth, "crc-width", 16, "CRC width in bits: 8, 16, or 32")
	rootCmd.PersistentFlags().Uint32Var(&polynomial, "crc-poly", 0x1021, "CRC polynomial")
	rootCmd.PersistentFlags().Uint32Var(&initialValue, "crc-init", 0xFFFF, "CRC initial register value")
	rootCmd.PersistentFlags().Uint32Var(&finalXor, "crc-xor-out", 0x0000, "CRC final XOR value")
	rootCmd.PersistentFlags().Uint8Var(&maxTxPayloadSize, "max-tx-payload", translayer.MaxPayloadSize, "Maximum outbound payload size")
	rootCmd.PersistentFlags().Uint8Var(&maxRxPayloadSize, "max-rx-payload", translayer.MaxPayloadSize, "Maximum inbound payload size")
	rootCmd.PersistentFlags().Uint8Var(&minRxPayloadSize, "min-rx-payload", translayer.MinPayloadSize, "Minimum inbound payload size")
	rootCmd.PersistentFlags().Uint64Var(&timeoutUS, "timeout-us", 20000, "Inter-byte timeout in microseconds")
	rootCmd.PersistentFlags().BoolVar(&allowStartByteErrors, "allow-start-errors", false, "Report StartByteNotFound instead of treating it as nothing-to-receive")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildConfig assembles a translayer.Config from the persistent flags.
func buildConfig() (translayer.Config, error) {
	width := translayer.CrcWidth(crcWidth)
	cfg := translayer.Config{
		StartByte:            startByte,
		DelimiterByte:        delimiterByte,
		CrcWidth:             width,
		Polynomial:           polynomial,
		InitialValue:         initialValue,
		FinalXor:             finalXor,
		MaxTxPayloadSize:     maxTxPayloadSize,
		MaxRxPayloadSize:     maxRxPayloadSize,
		MinRxPayloadSize:     minRxPayloadSize,
		TimeoutUS:            timeoutUS,
		AllowStartByteErrors: allowStartByteErrors,
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid transport configuration: %w", err)
	}
	return cfg, nil
}

// openTransport opens the configured serial port and constructs a
// Transport bound to it using a real clock.
func openTransport() (*translayer.Transport, *SerialEndpoint, error) {
	if portName == "" {
		return nil, nil, fmt.Errorf("--port is required")
	}

	cfg, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	endpoint, err := OpenSerialEndpoint(portName, baudRate)
	if err != nil {
		return nil, nil, err
	}

	tr, err := translayer.New(cfg, endpoint, nil)
	if err != nil {
		endpoint.Close()
		return nil, nil, err
	}
	return tr, endpoint, nil
}
