// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Sun-Lab-NBB/ataraxis-transport-layer-pc/pkg/translayer"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of packet/byte/error counters for a serial port",
	Long: `Open the serial port and continuously call Receive, rendering a
live dashboard of packets received, bytes decoded, the total error
count, the most recent error, and the most recently decoded payload.
Press 'q' to quit.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// monitorStats accumulates receive outcomes for the dashboard.
type monitorStats struct {
	packetsOK    uint64
	bytesOK      uint64
	errorsByKind map[translayer.Kind]uint64
	lastPayload  []byte
	lastErr      error

	// residualLen/rxCapacity feed the dashboard's residual-byte gauge: how
	// much of the reception buffer is held over, unconsumed, between
	// Receive calls (spec.md §5's Residual carryover).
	residualLen int
	rxCapacity  int
}

func newMonitorStats() *monitorStats {
	return &monitorStats{errorsByKind: make(map[translayer.Kind]uint64)}
}

func (s *monitorStats) recordOK(payload []byte) {
	s.packetsOK++
	s.bytesOK += uint64(len(payload))
	s.lastPayload = append(s.lastPayload[:0], payload...)
	s.lastErr = nil
}

func (s *monitorStats) recordErr(err error) {
	s.lastErr = err
	if e, ok := err.(*translayer.Error); ok {
		s.errorsByKind[e.Kind]++
	}
}

type monitorModel struct {
	portName string
	baudRate int
	stats    *monitorStats
	gauge    progress.Model
	quitting bool
	width    int
}

// tickMsg drives the dashboard's periodic repaint.
type tickMsg time.Time

func initialMonitorModel(portName string, baudRate int, stats *monitorStats) monitorModel {
	return monitorModel{
		portName: portName,
		baudRate: baudRate,
		stats:    stats,
		gauge:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		width:    80,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(tickMonitorCmd(), tea.EnterAltScreen)
}

func tickMonitorCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tickMonitorCmd()
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var total uint64
	for _, n := range m.stats.errorsByKind {
		total += n
	}

	out := titleStyle.Render("TRANSLAYER MONITOR") + "\n"
	out += headerStyle.Render(fmt.Sprintf("Port: %s @ %d baud | Press 'q' to quit", m.portName, m.baudRate)) + "\n\n"

	content := fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Packets:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.packetsOK)),
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.bytesOK)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", total)),
	)

	if m.stats.lastErr != nil {
		content += fmt.Sprintf("%s %s\n", labelStyle.Render("Last error:"), errorStyle.Render(m.stats.lastErr.Error()))
	}
	if len(m.stats.lastPayload) > 0 {
		content += fmt.Sprintf("%s %s\n", labelStyle.Render("Last payload:"), valueStyle.Render(hex.EncodeToString(m.stats.lastPayload)))
	}

	var ratio float64
	if m.stats.rxCapacity > 0 {
		ratio = float64(m.stats.residualLen) / float64(m.stats.rxCapacity)
	}
	content += fmt.Sprintf("%s %s %s\n",
		labelStyle.Render("Residual:"), m.gauge.ViewAs(ratio),
		valueStyle.Render(fmt.Sprintf("%d/%d bytes", m.stats.residualLen, m.stats.rxCapacity)),
	)

	out += boxStyle.Render(content)
	return out
}

func runMonitor(cmd *cobra.Command, args []string) error {
	tr, endpoint, err := openTransport()
	if err != nil {
		return err
	}
	defer endpoint.Close()

	stats := newMonitorStats()
	stats.rxCapacity = tr.RxCapacity()
	prog := tea.NewProgram(initialMonitorModel(portName, baudRate, stats))

	go func() {
		for {
			ok, err := tr.Receive()
			switch {
			case err != nil:
				stats.recordErr(err)
			case ok:
				stats.recordOK(tr.RxPayload())
			default:
				time.Sleep(time.Millisecond)
			}
			stats.residualLen = tr.ResidualLen()
		}
	}()

	_, err = prog.Run()
	return err
}
