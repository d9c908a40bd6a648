// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

func TestReceiveOnce_SendThenReceiveLoopback(t *testing.T) {
	cfg := translayer.DefaultConfig()
	loop := translayer.NewLoopback()
	tr, err := translayer.New(cfg, loop, nil)
	require.NoError(t, err)

	payload := []byte("hello")
	staged, err := sendPayload(tr, payload)
	require.NoError(t, err)
	require.True(t, staged)

	ok, err := receiveOnce(tr, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, payload, tr.RxPayload())
}

func TestReceiveOnce_TimesOutWhenNothingArrives(t *testing.T) {
	cfg := translayer.DefaultConfig()
	port := translayer.NewBytePipe()
	tr, err := translayer.New(cfg, port, nil)
	require.NoError(t, err)

	ok, err := receiveOnce(tr, 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReceiveOnce_SurfacesDecodeError(t *testing.T) {
	cfg := translayer.DefaultConfig()
	port := translayer.NewBytePipe()
	tr, err := translayer.New(cfg, port, nil)
	require.NoError(t, err)

	loop := translayer.NewLoopback()
	trBuild, err := translayer.New(cfg, loop, nil)
	require.NoError(t, err)
	staged, err := sendPayload(trBuild, []byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.True(t, staged)

	frame := append([]byte(nil), loop.Sent...)
	frame[len(frame)-1] ^= 0xFF // corrupt the CRC
	port.Feed(frame)

	ok, err := receiveOnce(tr, time.Second)
	require.Error(t, err)
	require.False(t, ok)
}
