package history

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppendBounded(t *testing.T) {
	for _, max := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			b := NewBuffer(max)
			for i := 0; i < 25; i++ {
				b.Append(Exchange{Original: fmt.Sprintf("utterance %d", i)})
			}
			got := b.Snapshot()
			if len(got) != max {
				t.Fatalf("len = %d, want %d", len(got), max)
			}
			for i, ex := range got {
				want := fmt.Sprintf("utterance %d", 25-max+i)
				if ex.Original != want {
					t.Errorf("items[%d] = %q, want %q", i, ex.Original, want)
				}
			}
		})
	}
}

func TestAppendUnbounded(t *testing.T) {
	b := NewBuffer(0)
	for i := 0; i < 100; i++ {
		b.Append(Exchange{Original: "x"})
	}
	if b.Len() != 100 {
		t.Errorf("Len = %d, want 100", b.Len())
	}
}

func TestAppendSetsTimestamp(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Exchange{Original: "hello"})
	if b.Snapshot()[0].Time.IsZero() {
		t.Error("Append did not stamp a zero time")
	}
}

func TestFill(t *testing.T) {
	b := NewBuffer(0)
	seq := b.Append(Exchange{Original: "hello", SourceLang: "English"})
	b.Append(Exchange{Original: "world"})

	if !b.Fill(seq, "হ্যালো") {
		t.Fatal("Fill returned false for live exchange")
	}
	if got := b.Snapshot()[0].Translated; got != "হ্যালো" {
		t.Errorf("Translated = %q", got)
	}
}

func TestFillAfterEviction(t *testing.T) {
	b := NewBuffer(2)
	seq := b.Append(Exchange{Original: "first"})
	b.Append(Exchange{Original: "second"})
	b.Append(Exchange{Original: "third"}) // evicts "first"

	if b.Fill(seq, "late") {
		t.Error("Fill succeeded on an evicted exchange")
	}
}

func TestConcurrentAppends(t *testing.T) {
	b := NewBuffer(0)
	const perLoop = 200

	var wg sync.WaitGroup
	for _, dir := range []string{"en-bn", "bn-en"} {
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			for i := 0; i < perLoop; i++ {
				seq := b.Append(Exchange{Original: dir, SourceLang: dir})
				b.Fill(seq, "done")
			}
		}(dir)
	}
	wg.Wait()

	if b.Len() != 2*perLoop {
		t.Errorf("Len = %d, want %d", b.Len(), 2*perLoop)
	}
	for i, ex := range b.Snapshot() {
		if ex.Translated != "done" {
			t.Fatalf("items[%d] not filled", i)
		}
	}
}

func TestRenderContextEmpty(t *testing.T) {
	b := NewBuffer(10)
	if got := b.RenderContext(5); got != EmptyContext {
		t.Errorf("RenderContext on empty buffer = %q, want %q", got, EmptyContext)
	}
}

func TestRenderContextWindow(t *testing.T) {
	b := NewBuffer(0)
	for i := 1; i <= 7; i++ {
		b.Append(Exchange{
			Original:   fmt.Sprintf("question %d", i),
			Translated: fmt.Sprintf("answer %d", i),
		})
	}

	got := b.RenderContext(5)
	lines := strings.Split(got, "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10:\n%s", len(lines), got)
	}
	if lines[0] != "User: question 3" {
		t.Errorf("first line = %q, want oldest of the last 5", lines[0])
	}
	if lines[9] != "Assistant: answer 7" {
		t.Errorf("last line = %q", lines[9])
	}
	if strings.Contains(got, "question 2") {
		t.Error("context includes exchanges outside the window")
	}
}

func TestClear(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Exchange{Original: "x"})
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len after Clear = %d", b.Len())
	}
	if got := b.RenderContext(5); got != EmptyContext {
		t.Errorf("RenderContext after Clear = %q", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	b := NewBuffer(0)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []Exchange{
		{Time: base, Original: "hello", SourceLang: "English", Translated: "হ্যালো", TargetLang: "Bengali"},
		{Time: base.Add(time.Minute), Original: "কেমন আছেন", SourceLang: "Bengali", Translated: "how are you", TargetLang: "English"},
		{Time: base.Add(2 * time.Minute), Original: "bye", SourceLang: "English", Translated: "", TargetLang: "Bengali"},
	}
	for _, ex := range want {
		b.Append(ex)
	}
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := NewBuffer(0)
	loaded.Append(Exchange{Original: "stale"}) // Load must fully replace
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}

	got := loaded.Snapshot()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) {
			t.Errorf("items[%d].Time = %v, want %v", i, got[i].Time, want[i].Time)
		}
		if got[i].Original != want[i].Original ||
			got[i].SourceLang != want[i].SourceLang ||
			got[i].Translated != want[i].Translated ||
			got[i].TargetLang != want[i].TargetLang {
			t.Errorf("items[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadRespectsBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	b := NewBuffer(0)
	for i := 0; i < 20; i++ {
		b.Append(Exchange{Original: fmt.Sprintf("u%d", i)})
	}
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}

	bounded := NewBuffer(10)
	if err := bounded.Load(path); err != nil {
		t.Fatal(err)
	}
	got := bounded.Snapshot()
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got[0].Original != "u10" {
		t.Errorf("oldest kept = %q, want u10", got[0].Original)
	}
}

func TestLoadMissingFile(t *testing.T) {
	b := NewBuffer(0)
	if err := b.Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
