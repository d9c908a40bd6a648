// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

// resetFlagVars restores the persistent flag package vars to DefaultConfig
// after a test mutates them, so tests don't leak state into each other.
func resetFlagVars(t *testing.T) {
	t.Helper()
	def := translayer.DefaultConfig()
	startByte = def.StartByte
	delimiterByte = def.DelimiterByte
	crcWidth = int(def.CrcWidth)
	polynomial = def.Polynomial
	initialValue = def.InitialValue
	finalXor = def.FinalXor
	maxTxPayloadSize = def.MaxTxPayloadSize
	maxRxPayloadSize = def.MaxRxPayloadSize
	minRxPayloadSize = def.MinRxPayloadSize
	timeoutUS = def.TimeoutUS
	allowStartByteErrors = def.AllowStartByteErrors
	t.Cleanup(func() {
		startByte = def.StartByte
		delimiterByte = def.DelimiterByte
		crcWidth = int(def.CrcWidth)
		polynomial = def.Polynomial
		initialValue = def.InitialValue
		finalXor = def.FinalXor
		maxTxPayloadSize = def.MaxTxPayloadSize
		maxRxPayloadSize = def.MaxRxPayloadSize
		minRxPayloadSize = def.MinRxPayloadSize
		timeoutUS = def.TimeoutUS
		allowStartByteErrors = def.AllowStartByteErrors
	})
}

func TestBuildConfig_MatchesDefault(t *testing.T) {
	resetFlagVars(t)

	cfg, err := buildConfig()
	require.NoError(t, err)
	require.Equal(t, translayer.DefaultConfig(), cfg)
}

func TestBuildConfig_RejectsInvalidCrcWidth(t *testing.T) {
	resetFlagVars(t)
	crcWidth = 24

	_, err := buildConfig()
	require.Error(t, err)
}

func TestBuildConfig_RejectsMinAboveMaxRxPayload(t *testing.T) {
	resetFlagVars(t)
	minRxPayloadSize = 200
	maxRxPayloadSize = 100

	_, err := buildConfig()
	require.Error(t, err)
}

func TestBuildConfig_HonorsCustomFraming(t *testing.T) {
	resetFlagVars(t)
	startByte = 0x7E
	delimiterByte = 0x7F
	crcWidth = 8
	polynomial = 0x07
	initialValue = 0x00
	finalXor = 0x00

	cfg, err := buildConfig()
	require.NoError(t, err)
	require.Equal(t, byte(0x7E), cfg.StartByte)
	require.Equal(t, byte(0x7F), cfg.DelimiterByte)
	require.Equal(t, translayer.CrcWidth8, cfg.CrcWidth)
}
