package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"deauthwatch/internal/log"

	"github.com/google/gopacket/pcapgo"
)

// FileSource replays frames from a pcap file.
type FileSource struct {
	Path string

	// Realtime paces the replay by the capture timestamps, so interval rolls
	// see the same per-second rates as the original capture.
	Realtime bool
}

// NewFileSource creates a source that replays the pcap file at path.
func NewFileSource(path string, realtime bool) *FileSource {
	return &FileSource{Path: path, Realtime: realtime}
}

// Run reads every packet of the file and hands it to h. It returns nil once
// the file is exhausted.
func (s *FileSource) Run(ctx context.Context, h Handler) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	return s.replay(ctx, f, h)
}

func (s *FileSource) replay(ctx context.Context, r io.Reader, h Handler) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to read pcap header: %w", err)
	}

	logger := log.WithComponent("capture").WithField("file", s.Path)
	linkType := reader.LinkType()
	logger.WithField("link_type", linkType).Info("Replaying capture file")

	var (
		first    time.Time
		start    = time.Now()
		frames   int
		rejected int
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet %d: %w", frames+rejected+1, err)
		}

		if s.Realtime {
			if first.IsZero() {
				first = ci.Timestamp
			}
			if wait := ci.Timestamp.Sub(first) - time.Since(start); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
		}

		buf, err := frameBuffer(linkType, data)
		if err != nil {
			if errors.Is(err, ErrUnsupportedLinkType) {
				return err
			}
			rejected++
			logger.WithError(err).Debug("Skipping undecodable packet")
			continue
		}
		h(buf)
		frames++
	}

	logger.WithFields(log.Fields{
		"frames":   frames,
		"rejected": rejected,
	}).Info("Capture file exhausted")
	return nil
}
