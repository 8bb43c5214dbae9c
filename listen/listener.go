package listen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dobhash/audio"
	"dobhash/encoder"
	"dobhash/lang"
)

const pollInterval = 100 * time.Millisecond

// Config bounds one listen step.
type Config struct {
	StartTimeout time.Duration // how long to wait for speech to begin
	MaxUtterance time.Duration // hard cap on one utterance
	SilenceHold  time.Duration // trailing silence that ends the phrase
}

// Listener implements the capture contract: it runs the microphone for at
// most one utterance, detects its start and end with a VAD, and hands the
// FLAC-encoded audio to a Recognizer.
type Listener struct {
	device      audio.CaptureDevice
	rec         Recognizer
	cfg         Config
	newDetector func() (speechDetector, error)
}

func NewListener(device audio.CaptureDevice, rec Recognizer, cfg Config) *Listener {
	return &Listener{
		device:      device,
		rec:         rec,
		cfg:         cfg,
		newDetector: newVADDetector,
	}
}

// Listen blocks until one utterance has been captured and recognized, the
// start timeout fires (ErrNoSpeech), or ctx is cancelled. The microphone
// is released before the recognition request goes out.
func (l *Listener) Listen(ctx context.Context, language lang.Language) (string, error) {
	detector, err := l.newDetector()
	if err != nil {
		return "", fmt.Errorf("initializing voice detection: %w", err)
	}

	var mu sync.Mutex
	var pcm []byte
	l.device.SetCallback(func(data []byte, _ uint32) {
		detector.Process(data)
		mu.Lock()
		pcm = append(pcm, data...)
		mu.Unlock()
	})

	if err := l.device.Start(); err != nil {
		l.device.ClearCallback()
		return "", fmt.Errorf("starting capture: %w", err)
	}
	release := func() {
		l.device.Stop()
		l.device.ClearCallback()
	}

	started := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			release()
			return "", ctx.Err()
		case <-ticker.C:
		}

		if !detector.VoiceDetected() {
			if time.Since(started) >= l.cfg.StartTimeout {
				release()
				return "", ErrNoSpeech
			}
			continue
		}
		if time.Since(detector.LastVoiceTime()) >= l.cfg.SilenceHold ||
			time.Since(started) >= l.cfg.MaxUtterance {
			break
		}
	}
	release()

	mu.Lock()
	captured := pcm
	mu.Unlock()
	if len(captured) == 0 {
		return "", ErrNoSpeech
	}

	flacAudio, err := encoder.EncodePCM(captured)
	if err != nil {
		return "", fmt.Errorf("encoding utterance: %w", err)
	}
	return l.rec.Recognize(ctx, flacAudio, language)
}
