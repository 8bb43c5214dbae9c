//go:build !linux

package speaker

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// PlayPCM plays little-endian 16-bit mono PCM and blocks until playback
// finishes or ctx is cancelled.
func (s *Speaker) PlayPCM(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("malgo: %w", err)
	}
	defer func() {
		mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)

	done := make(chan struct{})
	var once sync.Once
	var pos int

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := 0
			if pos < len(pcm) {
				n = copy(out, pcm[pos:])
				pos += n
			}
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if pos >= len(pcm) {
				once.Do(func() { close(done) })
			}
		},
	}

	dev, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("malgo playback: %w", err)
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return fmt.Errorf("starting playback: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
