package listen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"dobhash/lang"
)

const groqTranscriptionURL = "https://api.groq.com/openai/v1/audio/transcriptions"

// Groq recognizes speech through Groq's hosted Whisper models.
type Groq struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		apiKey: apiKey,
		apiURL: groqTranscriptionURL,
		model:  "whisper-large-v3",
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Groq) Name() string { return "groq" }

type groqResponse struct {
	Text string `json:"text"`
}

func (g *Groq) Recognize(ctx context.Context, flacAudio []byte, l lang.Language) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(flacAudio); err != nil {
		return "", err
	}
	writer.WriteField("model", g.model)
	writer.WriteField("language", l.VoiceCode)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var gResp groqResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		return "", fmt.Errorf("groq response parse error: %w", err)
	}

	text := strings.TrimSpace(gResp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}
