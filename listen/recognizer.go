// Package listen captures one utterance from the microphone and turns it
// into text through a remote speech recognition service.
package listen

import (
	"context"
	"errors"
	"fmt"

	"dobhash/lang"
)

var (
	// ErrNoSpeech means no speech began within the start timeout. Not an
	// error condition for callers; the interaction loop just polls again.
	ErrNoSpeech = errors.New("no speech detected")
	// ErrUnintelligible means audio was captured but the service could not
	// decode any words from it.
	ErrUnintelligible = errors.New("could not understand audio")
)

// Recognizer converts a FLAC-encoded utterance into text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, flacAudio []byte, l lang.Language) (string, error)
}

// NewRecognizer picks a provider from the configured API keys, preferring
// Google speech recognition when both are set.
func NewRecognizer(googleKey, groqKey string) (Recognizer, error) {
	if googleKey != "" {
		return NewGoogle(googleKey), nil
	}
	if groqKey != "" {
		return NewGroq(groqKey), nil
	}
	return nil, fmt.Errorf("set GOOGLE_SPEECH_API_KEY or GROQ_API_KEY environment variable")
}
