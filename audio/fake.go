package audio

import (
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
	fakeFeedInterval  = time.Millisecond
)

// FakeContext replays canned PCM through the CaptureDevice interface for
// tests. After the PCM is exhausted the capture keeps feeding silence
// until stopped, like a real microphone would.
type FakeContext struct {
	pcm []byte
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm}, nil
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	pcm []byte

	mu   sync.Mutex
	cb   DataCallback
	stop chan struct{}
	done chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	go func(stop, done chan struct{}) {
		defer close(done)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-stop:
				return
			case <-time.After(fakeFeedInterval):
			}

			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if cb == nil {
				continue
			}

			if pos < len(f.pcm) {
				end := pos + chunkBytes
				if end > len(f.pcm) {
					end = len(f.pcm)
				}
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
				pos = end
			} else {
				cb(silence, fakeFrameSize)
			}
		}
	}(f.stop, f.done)

	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stop, f.done
	f.mu.Unlock()
	if stop == nil {
		return
	}
	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}

func (f *FakeCapture) Close() {}
