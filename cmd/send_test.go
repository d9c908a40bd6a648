// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

func TestSendPayload_WritesFramedPacket(t *testing.T) {
	cfg := translayer.DefaultConfig()
	port := translayer.NewBytePipe()
	tr, err := translayer.New(cfg, port, nil)
	require.NoError(t, err)

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	staged, err := sendPayload(tr, payload)
	require.NoError(t, err)
	require.True(t, staged)

	require.Equal(t, cfg.StartByte, port.Sent[0])
	require.Equal(t, byte(len(payload)), port.Sent[1])
	require.Equal(t, len(payload), tr.TxUsed())
}

func TestSendPayload_EmptyPayloadNotStaged(t *testing.T) {
	cfg := translayer.DefaultConfig()
	port := translayer.NewBytePipe()
	tr, err := translayer.New(cfg, port, nil)
	require.NoError(t, err)

	staged, err := sendPayload(tr, nil)
	require.Error(t, err)
	require.False(t, staged)
}

func TestSendPayload_OversizedPayloadNotStaged(t *testing.T) {
	cfg := translayer.DefaultConfig()
	cfg.MaxTxPayloadSize = 4
	port := translayer.NewBytePipe()
	tr, err := translayer.New(cfg, port, nil)
	require.NoError(t, err)

	staged, err := sendPayload(tr, []byte{1, 2, 3, 4, 5})
	require.Error(t, err)
	require.False(t, staged)
}
