//go:build darwin

package synth

import (
	"fmt"

	"dobhash/lang"
)

func speakCommand(text string, l lang.Language) (string, []string, error) {
	// say only ships voices for a handful of languages; Bengali is not
	// among them, so those chains fall through to the network engine.
	if l.Name != lang.English.Name {
		return "", nil, fmt.Errorf("no local %s voice available", l.Name)
	}
	return "say", []string{text}, nil
}
