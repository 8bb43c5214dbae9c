package lang

import "strings"

// Language carries the codes the external speech services expect for one
// of the supported spoken languages, plus the strings shown to the user.
type Language struct {
	Name       string // "English"
	Abbrev     string // transcript label, "EN"
	SpeechCode string // recognition code, "en-US"
	VoiceCode  string // synthesis / whisper code, "en"
	Display    string // label shown in the UI
	ErrorReply string // spoken when the transform service fails
}

var (
	English = Language{
		Name:       "English",
		Abbrev:     "EN",
		SpeechCode: "en-US",
		VoiceCode:  "en",
		Display:    "🇺🇸 English",
		ErrorReply: "Sorry, I encountered an error. Please try again.",
	}
	Bengali = Language{
		Name:       "Bengali",
		Abbrev:     "BN",
		SpeechCode: "bn-BD",
		VoiceCode:  "bn",
		Display:    "🇧🇩 Bengali",
		ErrorReply: "দুঃখিত, একটি ত্রুটি হয়েছে। অনুগ্রহ করে আবার চেষ্টা করুন।",
	}
)

func All() []Language {
	return []Language{English, Bengali}
}

// ByName looks a language up by name as it appears in config values
// ("english", "Bengali").
func ByName(name string) (Language, bool) {
	for _, l := range All() {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Language{}, false
}
