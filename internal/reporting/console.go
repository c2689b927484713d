package reporting

import (
	"fmt"
	"io"
	"strconv"

	"deauthwatch/internal/analysis"
)

// ConsoleSink prints the per-interval table to a writer.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Report writes one table per snapshot.
func (c *ConsoleSink) Report(s analysis.Snapshot) error {
	_, err := io.WriteString(c.w, FormatTable(s))
	return err
}

// FormatTable renders a snapshot as the SEEN/MAX/MIN/TOTAL table, followed by
// the alarm banner when the interval tripped it.
func FormatTable(s analysis.Snapshot) string {
	out := "\n"
	out += "           SEEN    MAX     MIN     TOTAL\n"
	out += "           --------------------------------------\n"
	out += fmt.Sprintf("PACKETS    %-4d    %-4d    %-4s    %d\n",
		s.PacketsThisInterval, s.MaxPackets, formatMin(s, s.MinPackets), s.TotalPackets)
	out += fmt.Sprintf("DEAUTHS    %-4d    %-4d    %-4s    %d\n",
		s.DeauthsThisInterval, s.MaxDeauths, formatMin(s, s.MinDeauths), s.TotalDeauths)
	if s.Alarmed {
		out += "\n[ DEAUTH ALARM ]\n"
	}
	return out + "\n"
}

// formatMin hides the unset minimum before the first roll.
func formatMin(s analysis.Snapshot, v uint64) string {
	if !s.HasExtrema() {
		return "-"
	}
	return strconv.FormatUint(v, 10)
}
