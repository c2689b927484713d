package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"deauthwatch/internal/log"
	"deauthwatch/internal/models"
)

// RxControlSize is the size of the ESP8266 RxControl block that precedes the
// 802.11 header in a promiscuous-mode sniffer buffer.
const RxControlSize = 12

// maxDatagram comfortably holds a sniffer_buf2 (management frames up to 112
// bytes) plus the RxControl block.
const maxDatagram = 512

// ParseRxControl reads the radio metadata of an ESP8266 RxControl block.
// Fields are little-endian bit fields packed into three 32-bit words:
// rssi is byte 0, rate the low nibble of byte 1, channel the low nibble of
// byte 10.
func ParseRxControl(data []byte) models.RadioInfo {
	if len(data) < RxControlSize {
		return models.RadioInfo{}
	}
	return models.RadioInfo{
		RSSI:    int(int8(data[0])),
		Rate:    int(data[1] & 0x0F),
		Channel: int(data[10] & 0x0F),
	}
}

// SnifferBuffer wraps a raw ESP8266 sniffer buffer. The buffer length is the
// length the driver reported for the frame.
func SnifferBuffer(data []byte) models.CaptureBuffer {
	return models.CaptureBuffer{
		Data:         data,
		HeaderOffset: RxControlSize,
		Radio:        ParseRxControl(data),
	}
}

// SnifferBufSource listens for UDP datagrams carrying raw sniffer buffers, as
// forwarded by an ESP8266 running in promiscuous mode. Each datagram is one
// frame.
type SnifferBufSource struct {
	Listen string

	conn net.PacketConn
}

// NewSnifferBufSource creates a relay source listening on addr.
func NewSnifferBufSource(addr string) *SnifferBufSource {
	return &SnifferBufSource{Listen: addr}
}

// Addr returns the bound address once Run has started listening.
func (s *SnifferBufSource) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Bind opens the UDP socket. Run binds on demand; calling Bind first lets the
// caller learn the address of an ephemeral port.
func (s *SnifferBufSource) Bind() error {
	if s.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", s.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Listen, err)
	}
	s.conn = conn
	return nil
}

// Run reads datagrams until ctx is canceled. The receive buffer is reused for
// every datagram.
func (s *SnifferBufSource) Run(ctx context.Context, h Handler) error {
	if err := s.Bind(); err != nil {
		return err
	}
	defer s.conn.Close()

	logger := log.WithComponent("capture").WithField("listen", s.conn.LocalAddr().String())
	logger.Info("Waiting for sniffer relay datagrams")

	buf := make([]byte, maxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("%w: %v", ErrSourceClosed, err)
		}

		frame := SnifferBuffer(buf[:n])
		if log.TraceEnabled() {
			logger.WithFields(log.Fields{
				"from":    from.String(),
				"length":  n,
				"rssi":    frame.Radio.RSSI,
				"channel": frame.Radio.Channel,
			}).Trace("Relay datagram")
		}
		h(frame)
	}
}
