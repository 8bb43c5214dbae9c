package listen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dobhash/encoder"
	"dobhash/lang"
)

const googleSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

type Google struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewGoogle(apiKey string) *Google {
	return &Google{
		apiKey: apiKey,
		apiURL: googleSpeechURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Google) Name() string { return "google" }

type googleRequest struct {
	Config googleConfig `json:"config"`
	Audio  googleAudio  `json:"audio"`
}

type googleConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
}

type googleAudio struct {
	Content string `json:"content"` // base64
}

type googleResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (g *Google) Recognize(ctx context.Context, flacAudio []byte, l lang.Language) (string, error) {
	reqBody, err := json.Marshal(googleRequest{
		Config: googleConfig{
			Encoding:        "FLAC",
			SampleRateHertz: encoder.SampleRate,
			LanguageCode:    l.SpeechCode,
		},
		Audio: googleAudio{Content: base64.StdEncoding.EncodeToString(flacAudio)},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"?key="+g.apiKey, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google speech request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google speech API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gResp googleResponse
	if err := json.Unmarshal(body, &gResp); err != nil {
		return "", fmt.Errorf("google speech response parse error: %w", err)
	}

	var sb strings.Builder
	for _, res := range gResp.Results {
		if len(res.Alternatives) > 0 {
			sb.WriteString(res.Alternatives[0].Transcript)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}
