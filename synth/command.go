package synth

import (
	"context"
	"fmt"
	"os/exec"

	"dobhash/lang"
)

// Command speaks through the operating system's own voice, the way a
// local TTS engine would. Availability depends on the platform and on
// which voices are installed.
type Command struct{}

func NewCommand() *Command { return &Command{} }

func (c *Command) Name() string { return "local" }

func (c *Command) Speak(ctx context.Context, text string, l lang.Language) error {
	name, args, err := speakCommand(text, l)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
