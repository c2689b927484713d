package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deauthwatch/internal/dot11"
	"deauthwatch/internal/models"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// radiotapHeader builds a 15 byte radiotap header carrying rate, channel and
// antenna signal.
func radiotapHeader(freq uint16, signal int8) []byte {
	h := make([]byte, 15)
	binary.LittleEndian.PutUint16(h[2:], 15)
	binary.LittleEndian.PutUint32(h[4:], 1<<2|1<<3|1<<5)
	h[8] = 2 // rate, 500 kbps units
	// h[9] pads the channel field to 2 byte alignment
	binary.LittleEndian.PutUint16(h[10:], freq)
	binary.LittleEndian.PutUint16(h[12:], 0x00a0)
	h[14] = byte(signal)
	return h
}

// deauthFrame is a minimal deauthentication frame: header plus reason code.
func deauthFrame() []byte {
	f := make([]byte, 26)
	f[0] = 0xC0
	return f
}

func probeFrame() []byte {
	f := make([]byte, 24)
	f[0] = 0x40
	return f
}

func classify(buf models.CaptureBuffer) dot11.EventKind {
	return dot11.Classify(dot11.NewDecoder(dot11.DefaultMinLength).Decode(buf))
}

func TestFrameBufferRadiotap(t *testing.T) {
	data := append(radiotapHeader(2437, -42), deauthFrame()...)

	buf, err := frameBuffer(layers.LinkTypeIEEE80211Radio, data)
	require.NoError(t, err)
	assert.Equal(t, 15, buf.HeaderOffset)
	assert.Equal(t, -42, buf.Radio.RSSI)
	assert.Equal(t, 6, buf.Radio.Channel)
	assert.Equal(t, 2, buf.Radio.Rate)
	assert.Equal(t, dot11.Deauthentication, classify(buf))
}

func TestFrameBufferRawDot11(t *testing.T) {
	buf, err := frameBuffer(layers.LinkTypeIEEE802_11, probeFrame())
	require.NoError(t, err)
	assert.Zero(t, buf.HeaderOffset)
	assert.Equal(t, dot11.ProbeRequest, classify(buf))
}

func TestFrameBufferUnsupportedLinkType(t *testing.T) {
	_, err := frameBuffer(layers.LinkTypeEthernet, make([]byte, 64))
	assert.ErrorIs(t, err, ErrUnsupportedLinkType)
}

func TestChannelFromFrequency(t *testing.T) {
	cases := map[int]int{
		2412: 1,
		2437: 6,
		2472: 13,
		2484: 14,
		5180: 36,
		5825: 165,
		5955: 1,
		900:  0,
	}
	for mhz, want := range cases {
		assert.Equal(t, want, channelFromFrequency(mhz), "%d MHz", mhz)
	}
}

func writePcap(t *testing.T, linkType layers.LinkType, frames [][]byte, gap time.Duration) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, linkType))

	ts := time.Unix(1700000000, 0)
	for _, frame := range frames {
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(frame), Length: len(frame)}
		require.NoError(t, w.WritePacket(ci, frame))
		ts = ts.Add(gap)
	}
	return path
}

func TestFileSourceReplay(t *testing.T) {
	rt := radiotapHeader(2412, -60)
	frames := [][]byte{
		append(append([]byte{}, rt...), deauthFrame()...),
		append(append([]byte{}, rt...), probeFrame()...),
		append(append([]byte{}, rt...), deauthFrame()...),
	}
	path := writePcap(t, layers.LinkTypeIEEE80211Radio, frames, time.Millisecond)

	var kinds []dot11.EventKind
	err := NewFileSource(path, false).Run(context.Background(), func(buf models.CaptureBuffer) {
		kinds = append(kinds, classify(buf))
		assert.Equal(t, 1, buf.Radio.Channel)
	})
	require.NoError(t, err)
	assert.Equal(t, []dot11.EventKind{dot11.Deauthentication, dot11.ProbeRequest, dot11.Deauthentication}, kinds)
}

func TestFileSourceRealtimePacing(t *testing.T) {
	frames := [][]byte{probeFrame(), probeFrame(), probeFrame()}
	path := writePcap(t, layers.LinkTypeIEEE802_11, frames, 50*time.Millisecond)

	start := time.Now()
	count := 0
	require.NoError(t, NewFileSource(path, true).Run(context.Background(), func(models.CaptureBuffer) {
		count++
	}))
	assert.Equal(t, 3, count)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestFileSourceUnsupportedLinkType(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet, [][]byte{make([]byte, 60)}, 0)

	err := NewFileSource(path, false).Run(context.Background(), func(models.CaptureBuffer) {})
	assert.ErrorIs(t, err, ErrUnsupportedLinkType)
}

func TestFileSourceMissingFile(t *testing.T) {
	err := NewFileSource(filepath.Join(t.TempDir(), "none.pcap"), false).Run(context.Background(), func(models.CaptureBuffer) {})
	assert.Error(t, err)
}

func TestParseRxControl(t *testing.T) {
	data := make([]byte, RxControlSize+36)
	data[0] = byte(0xB5) // -75 dBm
	data[1] = 0x3B       // rate 11 in the low nibble
	data[10] = 0xF6      // channel 6 in the low nibble

	info := ParseRxControl(data)
	assert.Equal(t, -75, info.RSSI)
	assert.Equal(t, 11, info.Rate)
	assert.Equal(t, 6, info.Channel)

	assert.Equal(t, models.RadioInfo{}, ParseRxControl(data[:4]))
}

func TestSnifferBufferClassification(t *testing.T) {
	data := make([]byte, RxControlSize+36+2)
	data[RxControlSize] = 0xC0
	assert.Equal(t, dot11.Deauthentication, classify(SnifferBuffer(data)))

	// a driver report of 12 bytes carries no header
	assert.Equal(t, dot11.Other, classify(SnifferBuffer(data[:RxControlSize])))
}

func TestSnifferBufSourceUDP(t *testing.T) {
	src := NewSnifferBufSource("127.0.0.1:0")
	require.NoError(t, src.Bind())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []byte, 4)
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(buf models.CaptureBuffer) {
			// the receive buffer is reused, keep a copy
			got <- append([]byte(nil), buf.Data...)
		})
	}()

	conn, err := net.Dial("udp", src.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	payload := make([]byte, RxControlSize+36)
	payload[RxControlSize] = 0xC0
	_, err = conn.Write(payload)
	require.NoError(t, err)

	select {
	case data := <-got:
		assert.True(t, bytes.Equal(payload, data))
		assert.Equal(t, dot11.Deauthentication, classify(SnifferBuffer(data)))
	case <-time.After(2 * time.Second):
		t.Fatal("datagram not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}

func TestReadEk(t *testing.T) {
	input := strings.Join([]string{
		`{"index":{"_index":"packets-2024-01-01","_type":"doc"}}`,
		`{"timestamp":"1700000000000","layers":{"frame_len":["38"],"wlan_fc":["0xc000"],"radiotap_dbm_antsignal":["-51,-53"],"wlan_radio_channel":["11"]}}`,
		`{"timestamp":"1700000000001","layers":{"frame_len":["10"],"wlan_fc":["0xd400"]}}`,
		`not json "layers"`,
		`{"timestamp":"1700000000002","layers":{"frame_len":["60"],"wlan_fc":["16384"]}}`,
		``,
	}, "\n")

	var bufs []models.CaptureBuffer
	require.NoError(t, readEk(strings.NewReader(input), func(buf models.CaptureBuffer) {
		bufs = append(bufs, buf)
	}))
	require.Len(t, bufs, 3)

	assert.Equal(t, dot11.Deauthentication, classify(bufs[0]))
	assert.Equal(t, -51, bufs[0].Radio.RSSI)
	assert.Equal(t, 11, bufs[0].Radio.Channel)

	// a 10 byte ACK is at the minimum length and stays unclassified
	assert.Len(t, bufs[1].Data, 10)
	assert.Equal(t, dot11.Other, classify(bufs[1]))

	assert.Equal(t, dot11.ProbeRequest, classify(bufs[2]))
}
