package loop

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dobhash/history"
	"dobhash/lang"
	"dobhash/listen"
)

const testInterval = 2 * time.Millisecond

type scriptedCapture struct {
	text string
	err  error
	gate chan struct{} // when set, Listen blocks until closed

	mu    sync.Mutex
	calls int
}

func (c *scriptedCapture) Listen(ctx context.Context, _ lang.Language) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.text, c.err
}

func (c *scriptedCapture) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingSpeaker struct {
	mu    sync.Mutex
	texts []string
	langs []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string, l lang.Language) error {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.langs = append(s.langs, l.Name)
	s.mu.Unlock()
	return nil
}

func (s *recordingSpeaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *recordingSpeaker) Langs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.langs...)
}

type recordingObserver struct {
	mu          sync.Mutex
	statuses    []string
	transcripts []string
}

func (o *recordingObserver) Status(text string) {
	o.mu.Lock()
	o.statuses = append(o.statuses, text)
	o.mu.Unlock()
}

func (o *recordingObserver) Transcript(text string) {
	o.mu.Lock()
	o.transcripts = append(o.transcripts, text)
	o.mu.Unlock()
}

func (o *recordingObserver) Statuses() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.statuses...)
}

func echoTransform(prefix string) TransformFunc {
	return func(_ context.Context, text, _ string, _, _ lang.Language) (string, error) {
		return prefix + text, nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRejectsNoiseCaptures(t *testing.T) {
	buf := history.NewBuffer(0)
	capture := &scriptedCapture{text: " a "} // one non-whitespace char
	var transformCalls int
	var mu sync.Mutex
	l := New(Config{
		Source:  lang.English,
		Target:  lang.Bengali,
		Capture: capture,
		Transform: func(_ context.Context, text, _ string, _, _ lang.Language) (string, error) {
			mu.Lock()
			transformCalls++
			mu.Unlock()
			return text, nil
		},
		Speaker:  &recordingSpeaker{},
		History:  buf,
		Interval: testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	waitFor(t, func() bool { return capture.Calls() >= 5 })
	cancel()
	<-done

	if buf.Len() != 0 {
		t.Errorf("history has %d exchanges, want 0", buf.Len())
	}
	mu.Lock()
	defer mu.Unlock()
	if transformCalls != 0 {
		t.Errorf("transform called %d times, want 0", transformCalls)
	}
}

func TestCaptureErrorsAreSwallowed(t *testing.T) {
	buf := history.NewBuffer(0)
	capture := &scriptedCapture{err: listen.ErrNoSpeech}
	l := New(Config{
		Source:    lang.English,
		Target:    lang.Bengali,
		Capture:   capture,
		Transform: echoTransform(""),
		Speaker:   &recordingSpeaker{},
		History:   buf,
		Interval:  testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	// the loop must keep polling despite constant capture failures
	waitFor(t, func() bool { return capture.Calls() >= 10 })
	cancel()
	<-done

	if buf.Len() != 0 {
		t.Errorf("history has %d exchanges, want 0", buf.Len())
	}
}

func TestTransformFailureSubstitutesErrorReply(t *testing.T) {
	buf := history.NewBuffer(0)
	capture := &scriptedCapture{text: "hello there"}
	l := New(Config{
		Source:  lang.English,
		Target:  lang.Bengali,
		Capture: capture,
		Transform: func(context.Context, string, string, lang.Language, lang.Language) (string, error) {
			return "", errors.New("quota exceeded")
		},
		Speaker:  &recordingSpeaker{},
		History:  buf,
		Interval: testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	// the loop must both fill the exchange and move on to further cycles
	waitFor(t, func() bool { return buf.Len() >= 2 })
	cancel()
	<-done

	ex := buf.Snapshot()[0]
	if ex.Translated != lang.Bengali.ErrorReply {
		t.Errorf("Translated = %q, want the Bengali error reply", ex.Translated)
	}
	if ex.Original != "hello there" {
		t.Errorf("Original = %q", ex.Original)
	}
}

func TestConcurrentLoopsLoseNoAppends(t *testing.T) {
	buf := history.NewBuffer(0)
	var mic sync.Mutex

	type counted struct {
		mu sync.Mutex
		n  int
	}
	newLoop := func(src, tgt lang.Language, text string, c *counted) *Loop {
		return New(Config{
			Source:  src,
			Target:  tgt,
			Capture: &scriptedCapture{text: text},
			Transform: func(_ context.Context, in, _ string, _, _ lang.Language) (string, error) {
				c.mu.Lock()
				c.n++
				c.mu.Unlock()
				return "t:" + in, nil
			},
			Speaker:    &recordingSpeaker{},
			History:    buf,
			Mic:        &mic,
			Interval:   testInterval,
			AsyncSpeak: true,
		})
	}

	var cEN, cBN counted
	en := newLoop(lang.English, lang.Bengali, "english utterance", &cEN)
	bn := newLoop(lang.Bengali, lang.English, "bengali utterance", &cBN)
	en.Enable()
	bn.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, l := range []*Loop{en, bn} {
		wg.Add(1)
		go func(l *Loop) { defer wg.Done(); l.Run(ctx) }(l)
	}

	waitFor(t, func() bool {
		cEN.mu.Lock()
		a := cEN.n
		cEN.mu.Unlock()
		cBN.mu.Lock()
		b := cBN.n
		cBN.mu.Unlock()
		return a >= 20 && b >= 20
	})
	cancel()
	wg.Wait()

	cEN.mu.Lock()
	cBN.mu.Lock()
	total := cEN.n + cBN.n
	cBN.mu.Unlock()
	cEN.mu.Unlock()

	if buf.Len() != total {
		t.Errorf("history has %d exchanges, want %d (one per transform)", buf.Len(), total)
	}
	for i, ex := range buf.Snapshot() {
		if !strings.HasPrefix(ex.Translated, "t:") {
			t.Fatalf("exchange %d not filled: %+v", i, ex)
		}
	}
}

func TestDisableMidCaptureFinishesInFlightStep(t *testing.T) {
	buf := history.NewBuffer(0)
	gate := make(chan struct{})
	capture := &scriptedCapture{text: "hello world", gate: gate}
	l := New(Config{
		Source:    lang.English,
		Target:    lang.Bengali,
		Capture:   capture,
		Transform: echoTransform("t:"),
		Speaker:   &recordingSpeaker{},
		History:   buf,
		Interval:  testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	// wait until the capture is in flight, then disable and release it
	waitFor(t, func() bool { return capture.Calls() == 1 })
	l.Disable()
	close(gate)

	// the in-flight step must complete
	waitFor(t, func() bool { return buf.Len() == 1 })
	if got := buf.Snapshot()[0].Translated; got != "t:hello world" {
		t.Errorf("Translated = %q", got)
	}

	// and no new captures may start while disabled
	time.Sleep(20 * testInterval)
	if capture.Calls() != 1 {
		t.Errorf("capture called %d times after disable, want 1", capture.Calls())
	}

	cancel()
	<-done
}

func TestDisabledLoopEmitsPausedStatus(t *testing.T) {
	obs := &recordingObserver{}
	capture := &scriptedCapture{text: "never used"}
	l := New(Config{
		Source:    lang.English,
		Target:    lang.Bengali,
		Capture:   capture,
		Transform: echoTransform(""),
		Speaker:   &recordingSpeaker{},
		History:   history.NewBuffer(0),
		Observer:  obs,
		Interval:  testInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	waitFor(t, func() bool { return len(obs.Statuses()) >= 3 })
	cancel()
	<-done

	if capture.Calls() != 0 {
		t.Errorf("capture called %d times while disabled", capture.Calls())
	}
	for _, s := range obs.Statuses() {
		if !strings.Contains(s, "paused") {
			t.Fatalf("status %q, want paused", s)
		}
	}
}

func TestContextWindowRendersRecentHistory(t *testing.T) {
	buf := history.NewBuffer(10)
	for i := 0; i < 7; i++ {
		buf.Append(history.Exchange{
			Original:   "question",
			Translated: "answer",
		})
	}
	want := buf.RenderContext(5)

	var mu sync.Mutex
	var gotConversation string
	capture := &scriptedCapture{text: "new question"}
	l := New(Config{
		Source:  lang.English,
		Target:  lang.English,
		Capture: capture,
		Transform: func(_ context.Context, _, conversation string, _, _ lang.Language) (string, error) {
			mu.Lock()
			if gotConversation == "" {
				gotConversation = conversation
			}
			mu.Unlock()
			return "reply", nil
		},
		Speaker:       &recordingSpeaker{},
		History:       buf,
		Interval:      testInterval,
		ContextWindow: 5,
		UserLabel:     "You",
		ReplyLabel:    "Bot",
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotConversation != ""
	})
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if gotConversation != want {
		t.Errorf("conversation =\n%s\nwant:\n%s", gotConversation, want)
	}
	if strings.Contains(gotConversation, "new question") {
		t.Error("context window includes the utterance being answered")
	}
}

func TestSpeakerReceivesResultInTargetLanguage(t *testing.T) {
	speaker := &recordingSpeaker{}
	buf := history.NewBuffer(0)
	l := New(Config{
		Source:    lang.English,
		Target:    lang.Bengali,
		Capture:   &scriptedCapture{text: "good morning"},
		Transform: echoTransform("bn:"),
		Speaker:   speaker,
		History:   buf,
		Interval:  testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	waitFor(t, func() bool { return len(speaker.Texts()) >= 1 })
	cancel()
	<-done

	if got := speaker.Texts()[0]; got != "bn:good morning" {
		t.Errorf("spoken text = %q", got)
	}
	if got := speaker.Langs()[0]; got != lang.Bengali.Name {
		t.Errorf("spoken language = %q, want Bengali", got)
	}
}

func TestSetLanguagesTakesEffectNextCycle(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	buf := history.NewBuffer(0)
	l := New(Config{
		Source:  lang.English,
		Target:  lang.English,
		Capture: &scriptedCapture{text: "hello there"},
		Transform: func(_ context.Context, _, _ string, src, _ lang.Language) (string, error) {
			mu.Lock()
			seen = append(seen, src.Name)
			mu.Unlock()
			return "ok", nil
		},
		Speaker:  &recordingSpeaker{},
		History:  buf,
		Interval: testInterval,
	})
	l.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); l.Run(ctx) }()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1
	})
	l.SetLanguages(lang.Bengali, lang.Bengali)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == lang.Bengali.Name
	})
	cancel()
	<-done
}

func TestHasSpeechContent(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"a", false},
		{" a\t", false},
		{"ab", true},
		{"a b", true},
		{"কেমন আছেন", true},
	}
	for _, tt := range tests {
		if got := hasSpeechContent(tt.in); got != tt.want {
			t.Errorf("hasSpeechContent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
