package posefeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/angle.report/internal/timeutil"
)

// ReadPcap reads UDP pose datagrams from a capture. Every UDP payload sent
// to udpPort (any port when udpPort is 0) is passed to fn in capture order
// with its capture timestamp. It returns the number of payloads delivered.
func ReadPcap(ctx context.Context, r io.Reader, udpPort uint16, fn func(ts time.Time, payload []byte) error) (int, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read pcap header: %w", err)
	}

	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return delivered, nil
		}
		if err != nil {
			return delivered, fmt.Errorf("failed to read packet %d: %w", delivered, err)
		}

		packet := gopacket.NewPacket(data, reader.LinkType(), gopacket.NoCopy)
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if udpPort != 0 && uint16(udp.DstPort) != udpPort {
			continue
		}
		if len(udp.Payload) == 0 {
			continue
		}
		if err := fn(ci.Timestamp, udp.Payload); err != nil {
			return delivered, err
		}
		delivered++
	}
}

// ReplayOptions controls a capture replay.
type ReplayOptions struct {
	// UDPPort selects datagrams by destination port; 0 accepts any.
	UDPPort uint16
	// Clock paces the replay. Nil uses the real clock.
	Clock timeutil.Clock
	// SpeedMultiplier scales the gaps between datagrams: 2 replays twice as
	// fast. Values <= 0 mean real time.
	SpeedMultiplier float64
}

// ReplayPcapFile feeds every datagram in the capture at path to the
// decoder as one line, waiting out the capture gap between datagrams so the
// handler sees each batch before the next one replaces it.
func ReplayPcapFile(ctx context.Context, path string, opts ReplayOptions, d *Decoder) (int, error) {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	speed := opts.SpeedMultiplier
	if speed <= 0 {
		speed = 1
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("failed to open pcap: %w", err)
	}
	defer f.Close()

	var last time.Time
	n, err := ReadPcap(ctx, f, opts.UDPPort, func(ts time.Time, payload []byte) error {
		if !last.IsZero() {
			if gap := time.Duration(float64(ts.Sub(last)) / speed); gap > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-clock.After(gap):
				}
			}
		}
		last = ts
		d.HandleLine(string(payload))
		return nil
	})
	if err != nil {
		return n, err
	}
	logf("replayed %d datagrams from %s", n, path)
	return n, nil
}
