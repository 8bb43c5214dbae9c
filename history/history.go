package history

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Exchange is one captured-utterance/result pair. Exchanges are owned by
// the Buffer; callers only ever see copies.
type Exchange struct {
	Seq        uint64    `json:"-"`
	Time       time.Time `json:"timestamp"`
	Original   string    `json:"original"`
	SourceLang string    `json:"original_lang"`
	Translated string    `json:"translated"`
	TargetLang string    `json:"target_lang"`
}

// EmptyContext is returned by RenderContext when there is no history yet.
const EmptyContext = "No previous conversation."

// Buffer is an ordered log of exchanges. With a positive max size it keeps
// only the most recent entries, evicting from the front. Append and Fill
// may be called from concurrent interaction loops.
type Buffer struct {
	mu      sync.Mutex
	max     int // 0 means unbounded
	nextSeq uint64
	items   []Exchange
}

func NewBuffer(max int) *Buffer {
	return &Buffer{max: max}
}

// Append inserts ex at the end and returns its sequence number, which
// stays valid for Fill even after older entries have been evicted.
func (b *Buffer) Append(ex Exchange) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	ex.Seq = b.nextSeq
	if ex.Time.IsZero() {
		ex.Time = time.Now()
	}
	b.items = append(b.items, ex)
	if b.max > 0 && len(b.items) > b.max {
		b.items = append(b.items[:0], b.items[len(b.items)-b.max:]...)
	}
	return ex.Seq
}

// Fill sets the result text of a previously appended exchange. It reports
// false when the exchange has already been evicted or cleared.
func (b *Buffer) Fill(seq uint64, translated string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.items) - 1; i >= 0; i-- {
		if b.items[i].Seq == seq {
			b.items[i].Translated = translated
			return true
		}
	}
	return false
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Snapshot returns a copy of the buffered exchanges in insertion order.
func (b *Buffer) Snapshot() []Exchange {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Exchange, len(b.items))
	copy(out, b.items)
	return out
}

// RenderContext renders the last k exchanges as alternating
// "User:"/"Assistant:" lines, oldest first, for use as conversational
// memory in a generative prompt.
func (b *Buffer) RenderContext(k int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 || k <= 0 {
		return EmptyContext
	}
	start := len(b.items) - k
	if start < 0 {
		start = 0
	}
	var sb strings.Builder
	for _, ex := range b.items[start:] {
		fmt.Fprintf(&sb, "User: %s\n", ex.Original)
		fmt.Fprintf(&sb, "Assistant: %s\n", ex.Translated)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// Save writes the buffered exchanges to path as a JSON array.
func (b *Buffer) Save(path string) error {
	data, err := json.MarshalIndent(b.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Load replaces the buffer contents with the exchanges stored at path.
// Entries beyond the configured max are dropped from the front.
func (b *Buffer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	var items []Exchange
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding history: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(items) > b.max {
		items = items[len(items)-b.max:]
	}
	for i := range items {
		b.nextSeq++
		items[i].Seq = b.nextSeq
	}
	b.items = items
	return nil
}
