//go:build linux

package speaker

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
)

// PlayPCM plays little-endian 16-bit mono PCM and blocks until the stream
// has drained or ctx is cancelled.
func (s *Speaker) PlayPCM(ctx context.Context, pcm []byte, sampleRate int) error {
	samples := samplesFromBytes(pcm)
	if len(samples) == 0 {
		return nil
	}

	c, err := pulse.NewClient()
	if err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil {
			return 0, pulse.EndOfData
		}
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})

	stream, err := c.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
	)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
	return ctx.Err()
}
