//go:build linux

package synth

import (
	"fmt"
	"os/exec"

	"dobhash/lang"
)

const speechRate = "150" // words per minute, slowed for clarity

func speakCommand(text string, l lang.Language) (string, []string, error) {
	bin, err := exec.LookPath("espeak-ng")
	if err != nil {
		if bin, err = exec.LookPath("espeak"); err != nil {
			return "", nil, fmt.Errorf("no local speech engine: install espeak-ng")
		}
	}
	return bin, []string{"-v", l.VoiceCode, "-s", speechRate, text}, nil
}
