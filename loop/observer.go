package loop

// Observer receives presentation updates from a running loop. Status
// carries the current stage ("listening", "translating", ...), Transcript
// carries finished exchanges rendered for display.
type Observer interface {
	Status(text string)
	Transcript(text string)
}

// NopObserver is the default when no presentation layer is attached.
type NopObserver struct{}

func (NopObserver) Status(string)     {}
func (NopObserver) Transcript(string) {}
