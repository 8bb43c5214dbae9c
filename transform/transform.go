// Package transform turns captured utterances into their spoken results:
// a translation for the translator mode, a conversational reply for the
// assistant mode. Both delegate the actual generation to an llm.Client.
package transform

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"dobhash/lang"
	"dobhash/llm"
)

const translatePrompt = `You are an expert translator specializing in %s to %s translation.
Translate the following %s text to %s with high accuracy, maintaining the original meaning, tone, and context.
Consider cultural nuances and use natural %s expressions.

%s text: "%s"

Provide only the %s translation without any explanations or additional text.`

type Translator struct {
	client llm.Client
}

func NewTranslator(client llm.Client) *Translator {
	return &Translator{client: client}
}

func (t *Translator) Translate(ctx context.Context, text string, src, dst lang.Language) (string, error) {
	prompt := fmt.Sprintf(translatePrompt,
		src.Name, dst.Name, src.Name, dst.Name, dst.Name, src.Name, text, dst.Name)

	resp, err := t.client.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("translating %s to %s: %w", src.Name, dst.Name, err)
	}
	return strings.TrimSpace(resp.Content), nil
}

var systemPrompts = map[string]string{
	lang.English.Name: `You are a helpful AI assistant.
Please provide natural, conversational responses in English.
Be friendly, informative, and helpful.
Keep responses concise but complete.`,
	lang.Bengali.Name: `You are a helpful AI assistant that responds in Bengali.
Please provide natural, conversational responses in Bengali.
Be friendly, informative, and culturally appropriate.
Keep responses concise but complete.`,
}

type Responder struct {
	client llm.Client
}

func NewResponder(client llm.Client) *Responder {
	return &Responder{client: client}
}

// Respond asks the model for a conversational reply to input in language l.
// conversation is the rendered recent history (history.Buffer.RenderContext);
// it keeps the model on topic across turns.
func (r *Responder) Respond(ctx context.Context, input, conversation string, l lang.Language) (string, error) {
	prompt := fmt.Sprintf("%s\n\nConversation history:\n%s\n\nUser: %s\n\nAssistant:",
		systemPrompts[l.Name], conversation, input)

	resp, err := r.client.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}
	return CleanReply(resp.Content), nil
}

var rolePrefix = regexp.MustCompile(`(?i)^(assistant|ai|bot):\s*`)

// maxReplyRunes caps replies so speech playback stays short. Longer replies
// are cut down to their first three sentences.
const maxReplyRunes = 500

// CleanReply strips role-prefix artifacts the model sometimes echoes back
// and clamps overlong replies for speech output.
func CleanReply(text string) string {
	text = strings.TrimSpace(rolePrefix.ReplaceAllString(strings.TrimSpace(text), ""))

	if len([]rune(text)) > maxReplyRunes {
		sentences := strings.Split(text, ".")
		n := 3
		if n > len(sentences) {
			n = len(sentences)
		}
		text = strings.TrimSpace(strings.Join(sentences[:n], ".")) + "."
	}
	return text
}
