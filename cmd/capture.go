// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	captureOut      string
	captureDuration int
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record raw bytes off the serial port, with inter-arrival timing, to a CBOR file",
	Long: `Open the serial port and record every raw chunk handed back by a
Read call, tagged with the microsecond offset since capture start, into a
CBOR-encoded file. Unlike receive/monitor, this records bytes before any
framing or CRC is applied, so a capture can be replayed later to
reproduce the exact fragmentation a session saw.

Stops on --duration seconds, or on Ctrl+C if --duration is 0.`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVar(&captureOut, "out", "capture.cbor", "Output capture file path")
	captureCmd.Flags().IntVar(&captureDuration, "duration", 0, "Capture duration in seconds (0 = run until Ctrl+C)")
}

// capturedChunk is one raw Read result tagged with the microsecond offset
// since the capture began, the unit replay.go feeds back through a
// VirtualClock to reproduce the original arrival timing.
type capturedChunk struct {
	OffsetUS uint64 `cbor:"offset_us"`
	Data     []byte `cbor:"data"`
}

// captureFile is the on-disk CBOR document produced by capture and
// consumed by replay.
type captureFile struct {
	StartByte     byte            `cbor:"start_byte"`
	DelimiterByte byte            `cbor:"delimiter_byte"`
	Chunks        []capturedChunk `cbor:"chunks"`
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	if portName == "" {
		fmt.Fprintln(os.Stderr, "--port is required")
		os.Exit(2)
	}
	endpoint, err := OpenSerialEndpoint(portName, baudRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open serial port %s: %v\n", portName, err)
		os.Exit(2)
	}
	defer endpoint.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	var deadline <-chan time.Time
	if captureDuration > 0 {
		deadline = time.After(time.Duration(captureDuration) * time.Second)
	}

	out := &captureFile{StartByte: cfg.StartByte, DelimiterByte: cfg.DelimiterByte}
	start := time.Now()
	buf := make([]byte, 256)

	fmt.Printf("capturing %s @ %d baud to %s (Ctrl+C to stop)\n", portName, baudRate, captureOut)

captureLoop:
	for {
		select {
		case <-sigs:
			break captureLoop
		case <-deadline:
			break captureLoop
		default:
		}

		n, err := endpoint.Read(buf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			break
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		chunk := capturedChunk{
			OffsetUS: uint64(time.Since(start).Microseconds()),
			Data:     append([]byte(nil), buf[:n]...),
		}
		out.Chunks = append(out.Chunks, chunk)
	}

	blob, err := cbor.Marshal(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(2)
	}
	if err := os.WriteFile(captureOut, blob, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("wrote %d chunks (%d bytes total) to %s\n", len(out.Chunks), totalBytes(out.Chunks), captureOut)
	return nil
}

func totalBytes(chunks []capturedChunk) int {
	n := 0
	for _, c := range chunks {
		n += len(c.Data)
	}
	return n
}
