//go:build !linux && !darwin

package synth

import (
	"fmt"

	"dobhash/lang"
)

func speakCommand(_ string, l lang.Language) (string, []string, error) {
	return "", nil, fmt.Errorf("no local speech engine for %s on this platform", l.Name)
}
