package synth

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"dobhash/lang"
)

// OpenAI PCM responses are fixed at 24 kHz mono.
const openaiPCMRate = 24000

// Player turns raw PCM into sound. Satisfied by speaker.Speaker.
type Player interface {
	PlayPCM(ctx context.Context, pcm []byte, sampleRate int) error
}

// OpenAI is the network synthesis fallback for languages the local engine
// cannot render.
type OpenAI struct {
	client *openai.Client
	voice  openai.SpeechVoice
	player Player
}

func NewOpenAI(apiKey, voice string, player Player) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(apiKey),
		voice:  openai.SpeechVoice(voice),
		player: player,
	}
}

func (o *OpenAI) Name() string { return "network" }

func (o *OpenAI) Speak(ctx context.Context, text string, _ lang.Language) error {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return fmt.Errorf("reading speech audio: %w", err)
	}
	return o.player.PlayPCM(ctx, pcm, openaiPCMRate)
}
