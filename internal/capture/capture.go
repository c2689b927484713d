// Package capture contains the frame sources that feed the monitor: live
// monitor-mode interfaces, pcap files, ESP8266 sniffer relays and tshark.
package capture

import (
	"context"
	"errors"

	"deauthwatch/internal/models"
)

var (
	ErrUnsupportedLinkType = errors.New("unsupported link type")
	ErrSourceClosed        = errors.New("capture source closed")
)

// Handler is called once per captured frame. The buffer is only valid for the
// duration of the call.
type Handler func(buf models.CaptureBuffer)

// Source delivers captured frames to a Handler until the context is canceled
// or the source is exhausted.
type Source interface {
	Run(ctx context.Context, h Handler) error
}
