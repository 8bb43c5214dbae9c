package listen

import (
	"context"
	"sync"
	"time"

	"dobhash/lang"
)

// FakeRecognizer returns canned text and records what it was asked.
type FakeRecognizer struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []lang.Language
	audio [][]byte
}

func NewFakeRecognizer(text string, err error) *FakeRecognizer {
	return &FakeRecognizer{Text: text, Err: err}
}

func (f *FakeRecognizer) Name() string { return "fake" }

func (f *FakeRecognizer) Recognize(_ context.Context, flacAudio []byte, l lang.Language) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, l)
	f.audio = append(f.audio, flacAudio)
	f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *FakeRecognizer) Calls() []lang.Language {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]lang.Language, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeRecognizer) Audio() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.audio))
	copy(out, f.audio)
	return out
}

// fakeDetector scripts voice activity for listener tests: voice starts
// after startAfter and ends holdFor later.
type fakeDetector struct {
	created    time.Time
	startAfter time.Duration
	holdFor    time.Duration
	never      bool
}

func (d *fakeDetector) Process([]byte) {}

func (d *fakeDetector) VoiceDetected() bool {
	if d.never {
		return false
	}
	return time.Since(d.created) >= d.startAfter
}

func (d *fakeDetector) LastVoiceTime() time.Time {
	end := d.created.Add(d.startAfter + d.holdFor)
	if now := time.Now(); now.Before(end) {
		return now
	}
	return end
}
