// Package loop runs the listen-transform-speak cycle for one language
// direction. Several loops may run concurrently against one microphone
// and one shared history buffer.
package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"dobhash/history"
	"dobhash/lang"
	"dobhash/listen"
	"dobhash/log"
)

// Capturer is the speech capture collaborator (see listen.Listener).
type Capturer interface {
	Listen(ctx context.Context, l lang.Language) (string, error)
}

// Speaker is the speech synthesis collaborator (see synth.Chain).
type Speaker interface {
	Speak(ctx context.Context, text string, l lang.Language) error
}

// TransformFunc produces the spoken result for one captured utterance.
// conversation is the rendered recent history, empty for the translator.
type TransformFunc func(ctx context.Context, text, conversation string, src, dst lang.Language) (string, error)

// DefaultInterval is the poll sleep between cycles, taken whether or not
// the loop is enabled, to keep a disabled loop cheap.
const DefaultInterval = 100 * time.Millisecond

type Config struct {
	Source lang.Language
	Target lang.Language

	Capture   Capturer
	Transform TransformFunc
	Speaker   Speaker
	History   *history.Buffer

	Observer Observer
	Mic      *sync.Mutex // serializes microphone access across loops
	Interval time.Duration

	// ContextWindow > 0 renders that many recent exchanges into the
	// transform call (assistant mode).
	ContextWindow int
	// AsyncSpeak plays the result in the background so the loop can
	// return to listening immediately (translator mode). When false the
	// step blocks until playback finishes.
	AsyncSpeak bool

	// Transcript labels; when empty the language abbreviations are used.
	UserLabel  string
	ReplyLabel string
}

type Loop struct {
	cfg     Config
	enabled atomic.Bool

	mu  sync.Mutex
	src lang.Language
	tgt lang.Language
}

func New(cfg Config) *Loop {
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Mic == nil {
		cfg.Mic = &sync.Mutex{}
	}
	return &Loop{cfg: cfg, src: cfg.Source, tgt: cfg.Target}
}

func (l *Loop) Enable()       { l.enabled.Store(true) }
func (l *Loop) Disable()      { l.enabled.Store(false) }
func (l *Loop) Enabled() bool { return l.enabled.Load() }

// SetLanguages switches the loop's direction. The change is observed at
// the next poll cycle; an in-flight step completes with the old pair.
func (l *Loop) SetLanguages(src, tgt lang.Language) {
	l.mu.Lock()
	l.src, l.tgt = src, tgt
	l.mu.Unlock()
}

func (l *Loop) Languages() (src, tgt lang.Language) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src, l.tgt
}

// Run polls until ctx is cancelled. Disabling the loop only stops new
// cycles from starting; whatever step is in flight runs to completion.
func (l *Loop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if l.enabled.Load() {
			l.step(ctx)
		} else {
			src, _ := l.Languages()
			l.cfg.Observer.Status(fmt.Sprintf("⏸️ %s listening paused", src.Name))
		}
		if !sleepCtx(ctx, l.cfg.Interval) {
			return
		}
	}
}

// step executes one capture → transform → speak cycle. No failure inside
// it may propagate out; every degraded path falls through to the poll
// sleep in Run.
func (l *Loop) step(ctx context.Context) {
	src, tgt := l.Languages()
	obs := l.cfg.Observer

	obs.Status(fmt.Sprintf("🎤 Listening for %s...", src.Display))

	l.cfg.Mic.Lock()
	captureStart := time.Now()
	text, err := l.cfg.Capture.Listen(ctx, src)
	captureMs := float64(time.Since(captureStart).Milliseconds())
	l.cfg.Mic.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, listen.ErrNoSpeech), errors.Is(err, listen.ErrUnintelligible):
			// silence and noise are normal; just poll again
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		default:
			log.Warnf("capture failed (%s): %v", src.Name, err)
		}
		return
	}
	if !hasSpeechContent(text) {
		return
	}

	var conversation string
	if l.cfg.ContextWindow > 0 {
		// Rendered before the new exchange is appended so the current
		// utterance appears once, as the prompt's "User:" line.
		conversation = l.cfg.History.RenderContext(l.cfg.ContextWindow)
		obs.Status("🤖 Thinking...")
	} else {
		obs.Status("🔄 Translating...")
	}

	now := time.Now()
	seq := l.cfg.History.Append(history.Exchange{
		Time:       now,
		Original:   text,
		SourceLang: src.Name,
		TargetLang: tgt.Name,
	})

	transformStart := time.Now()
	result, terr := l.cfg.Transform(ctx, text, conversation, src, tgt)
	transformMs := float64(time.Since(transformStart).Milliseconds())
	if terr != nil {
		log.Errorf("transform failed (%s to %s): %v", src.Name, tgt.Name, terr)
		result = tgt.ErrorReply
	}
	l.cfg.History.Fill(seq, result)

	transcript := l.formatTranscript(now, src, text, tgt, result)
	obs.Transcript(transcript)
	log.ExchangeText(strings.ReplaceAll(strings.TrimSpace(transcript), "\n", " | "))
	log.Exchange(src.Abbrev+"-"+tgt.Abbrev, captureMs, transformMs, len([]rune(text)), len([]rune(result)))

	obs.Status(fmt.Sprintf("🔊 Speaking %s...", tgt.Name))
	if l.cfg.AsyncSpeak {
		go l.speak(ctx, result, tgt)
	} else {
		l.speak(ctx, result, tgt)
	}

	obs.Status(fmt.Sprintf("✅ Ready for %s", src.Display))
}

func (l *Loop) speak(ctx context.Context, text string, tgt lang.Language) {
	if err := l.cfg.Speaker.Speak(ctx, text, tgt); err != nil {
		log.Warnf("playback failed (%s): %v", tgt.Name, err)
	}
}

func (l *Loop) formatTranscript(ts time.Time, src lang.Language, original string, tgt lang.Language, result string) string {
	userLabel := l.cfg.UserLabel
	if userLabel == "" {
		userLabel = src.Abbrev
	}
	replyLabel := l.cfg.ReplyLabel
	if replyLabel == "" {
		replyLabel = tgt.Abbrev
	}
	stamp := ts.Format("15:04:05")
	return fmt.Sprintf("[%s] %s: %s\n[%s] %s: %s\n", stamp, userLabel, original, stamp, replyLabel, result)
}

// hasSpeechContent reports whether text has at least two non-whitespace
// characters; anything shorter is treated as recognition noise.
func hasSpeechContent(text string) bool {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
			if n >= 2 {
				return true
			}
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
