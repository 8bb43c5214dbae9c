package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"

	"dobhash/lang"
)

// Mode selects which variant of the app runs.
type Mode string

const (
	ModeTranslator Mode = "translator"
	ModeAssistant  Mode = "assistant"
)

type Config struct {
	// Transform
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// Capture (one of the two keys selects the provider)
	GoogleSpeechAPIKey string `env:"GOOGLE_SPEECH_API_KEY"`
	GroqAPIKey         string `env:"GROQ_API_KEY"`

	// Network synthesis
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIVoice  string `env:"OPENAI_TTS_VOICE" envDefault:"alloy"`

	// History
	HistoryPath   string `env:"HISTORY_PATH" envDefault:"translation_history.json"`
	MaxHistory    int    `env:"MAX_HISTORY" envDefault:"10"`
	ContextWindow int    `env:"CONTEXT_WINDOW" envDefault:"5"`

	// Listening bounds
	StartTimeout time.Duration `env:"LISTEN_START_TIMEOUT" envDefault:"3s"`
	MaxUtterance time.Duration `env:"LISTEN_MAX_UTTERANCE" envDefault:"30s"`
	SilenceHold  time.Duration `env:"LISTEN_SILENCE_HOLD" envDefault:"1500ms"`

	// Ordered synthesis strategies per language ("local", "network").
	// Bengali defaults to the network fallback because system voices for
	// it are rare; which languages get which chain is configuration.
	SynthEnglish []string `env:"SYNTH_ENGLISH" envSeparator:"," envDefault:"local"`
	SynthBengali []string `env:"SYNTH_BENGALI" envSeparator:"," envDefault:"local,network"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Engines returns the configured synthesis chain for l.
func (c *Config) Engines(l lang.Language) []string {
	switch l.Name {
	case lang.Bengali.Name:
		return c.SynthBengali
	default:
		return c.SynthEnglish
	}
}

// Validate checks that every collaborator the mode needs is reachable.
// A failure here is fatal to initialization; no loop may start after it.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.GoogleSpeechAPIKey == "" && c.GroqAPIKey == "" {
		return fmt.Errorf("set GOOGLE_SPEECH_API_KEY or GROQ_API_KEY for speech recognition")
	}
	for _, l := range lang.All() {
		for _, engine := range c.Engines(l) {
			switch engine {
			case "local":
			case "network":
				if c.OpenAIAPIKey == "" {
					return fmt.Errorf("synthesis chain for %s uses %q but OPENAI_API_KEY is not set", l.Name, engine)
				}
			default:
				return fmt.Errorf("unknown synthesis engine %q for %s", engine, l.Name)
			}
		}
	}
	if c.MaxHistory < 0 || c.ContextWindow < 0 {
		return fmt.Errorf("history sizes must not be negative")
	}
	if c.StartTimeout <= 0 || c.MaxUtterance <= 0 || c.SilenceHold <= 0 {
		return fmt.Errorf("listen timeouts must be positive")
	}
	return nil
}
