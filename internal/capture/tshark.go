package capture

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"deauthwatch/internal/log"
	"deauthwatch/internal/models"
)

// maxSyntheticFrame caps the buffer rebuilt from tshark output; only the
// frame control octets and the frame length matter downstream.
const maxSyntheticFrame = 64

// TsharkSource runs tshark in monitor mode and rebuilds capture buffers from
// its ek output. It is useful where libpcap bindings are unavailable but a
// Wireshark install is.
type TsharkSource struct {
	Interface string
	Filter    string

	// Command overrides the tshark binary, mainly for tests.
	Command string
}

// NewTsharkSource creates a tshark backed source for iface.
func NewTsharkSource(iface, filter string) *TsharkSource {
	return &TsharkSource{Interface: iface, Filter: filter, Command: "tshark"}
}

// Run begins the tshark process and streams parsed frames to h.
func (s *TsharkSource) Run(ctx context.Context, h Handler) error {
	// -I: capture in monitor mode
	// -l: flush stdout after each packet
	// -n: disable name resolution
	// -T ek: output in Elasticsearch JSON format
	// -e ...: fields to extract
	args := []string{
		"-l", "-n", "-T", "ek",
		"-e", "frame.len",
		"-e", "wlan.fc",
		"-e", "radiotap.dbm_antsignal",
		"-e", "wlan_radio.channel",
	}

	if s.Interface != "" {
		args = append([]string{"-I", "-i", s.Interface}, args...)
	}

	if s.Filter != "" {
		args = append(args, "-f", s.Filter)
	}

	bin := s.Command
	if bin == "" {
		bin = "tshark"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start tshark: %w", err)
	}
	log.WithComponent("capture").WithField("interface", s.Interface).Info("tshark capture started")

	readErr := readEk(stdout, h)

	// Wait for command to finish (which happens when context is canceled)
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		return fmt.Errorf("%w: tshark: %v", ErrSourceClosed, waitErr)
	}
	return nil
}

// readEk parses tshark ek lines from r until EOF.
func readEk(r io.Reader, h Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		// Tshark -T ek outputs an index line before each packet sometimes, or just packet lines.
		// We look for lines containing "layers".
		if !strings.Contains(line, "\"layers\"") {
			continue
		}

		var ekPkt EkPacket
		if err := json.Unmarshal([]byte(line), &ekPkt); err != nil {
			// Skip malformed lines
			continue
		}

		if buf, ok := convertToBuffer(ekPkt); ok {
			h(buf)
		}
	}
	return scanner.Err()
}

// convertToBuffer rebuilds a buffer holding the frame control octets at
// offset 0, sized like the original frame so length policies still apply.
func convertToBuffer(ek EkPacket) (models.CaptureBuffer, bool) {
	if len(ek.Layers.FrameLen) == 0 {
		return models.CaptureBuffer{}, false
	}
	frameLen, err := strconv.Atoi(ek.Layers.FrameLen[0])
	if err != nil || frameLen < 0 {
		return models.CaptureBuffer{}, false
	}
	if frameLen > maxSyntheticFrame {
		frameLen = maxSyntheticFrame
	}

	data := make([]byte, frameLen)
	if len(ek.Layers.WlanFC) > 0 && frameLen >= 2 {
		fc, err := strconv.ParseUint(ek.Layers.WlanFC[0], 0, 16)
		if err != nil {
			return models.CaptureBuffer{}, false
		}
		data[0] = byte(fc >> 8)
		data[1] = byte(fc)
	}

	buf := models.CaptureBuffer{Data: data}

	// Multiple antennas are reported comma separated; the first is the combined signal.
	if len(ek.Layers.AntSignal) > 0 {
		first := strings.Split(ek.Layers.AntSignal[0], ",")[0]
		if v, err := strconv.Atoi(first); err == nil {
			buf.Radio.RSSI = v
		}
	}
	if len(ek.Layers.RadioChannel) > 0 {
		if v, err := strconv.Atoi(ek.Layers.RadioChannel[0]); err == nil {
			buf.Radio.Channel = v
		}
	}
	return buf, true
}
