package listen

import (
	"sync"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"dobhash/encoder"
)

const (
	vadMode       = 3
	vadFrameMs    = 20
	vadFrameBytes = encoder.SampleRate * vadFrameMs / 1000 * 2 // 640 bytes
	vadDebounce   = 3                                          // consecutive speech frames to confirm voice
)

// speechDetector decides when an utterance has started and tracks when
// voice was last heard, so the listener can find the end of the phrase.
type speechDetector interface {
	Process(data []byte)
	VoiceDetected() bool
	LastVoiceTime() time.Time
}

type vadDetector struct {
	vad *webrtcvad.VAD

	mu            sync.Mutex
	buf           []byte
	voiceDetected bool
	lastVoiceTime time.Time
	speechRun     int
}

func newVADDetector() (speechDetector, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadDetector{vad: v}, nil
}

func (d *vadDetector) Process(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf = append(d.buf, data...)
	for len(d.buf) >= vadFrameBytes {
		frame := d.buf[:vadFrameBytes]
		d.buf = d.buf[vadFrameBytes:]

		active, err := d.vad.Process(encoder.SampleRate, frame)
		if err != nil {
			continue
		}
		if active {
			d.speechRun++
			if d.voiceDetected {
				d.lastVoiceTime = time.Now()
			} else if d.speechRun >= vadDebounce {
				d.voiceDetected = true
				d.lastVoiceTime = time.Now()
			}
		} else {
			d.speechRun = 0
		}
	}
}

func (d *vadDetector) VoiceDetected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voiceDetected
}

func (d *vadDetector) LastVoiceTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastVoiceTime
}
