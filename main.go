package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"dobhash/audio"
	"dobhash/config"
	"dobhash/encoder"
	"dobhash/history"
	"dobhash/lang"
	"dobhash/listen"
	"dobhash/llm"
	"dobhash/log"
	"dobhash/loop"
	"dobhash/speaker"
	"dobhash/synth"
	"dobhash/transform"
)

var version = "dev"

func main() {
	run()
}

func run() {
	modeFlag := flag.String("mode", "translator", "translator (EN⇄BN interpreter) or assistant (conversational voice bot)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	historyFlag := flag.String("history", "", "History file path (overrides HISTORY_PATH)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("dobhash %s\n", version)
		os.Exit(0)
	}

	mode := config.Mode(*modeFlag)
	if mode != config.ModeTranslator && mode != config.ModeAssistant {
		fmt.Printf("Error: unknown mode %q (use translator or assistant)\n", *modeFlag)
		os.Exit(1)
	}

	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *historyFlag != "" {
		cfg.HistoryPath = *historyFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	device, err := pickDevice(actx, *setupFlag, *deviceFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	capture, err := actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		fmt.Printf("Error opening microphone: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	rec, err := listen.NewRecognizer(cfg.GoogleSpeechAPIKey, cfg.GroqAPIKey)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	listener := listen.NewListener(capture, rec, listen.Config{
		StartTimeout: cfg.StartTimeout,
		MaxUtterance: cfg.MaxUtterance,
		SilenceHold:  cfg.SilenceHold,
	})

	gemini := llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	play := speaker.New()

	chains := make(map[string]*synth.Chain, len(lang.All()))
	guarded := mode == config.ModeAssistant
	for _, l := range lang.All() {
		chain, err := buildChain(cfg, l, guarded, play)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		chains[l.Name] = chain
	}

	log.SessionStart(string(mode), rec.Name())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case config.ModeTranslator:
		runTranslator(ctx, cancel, cfg, listener, gemini, chains, capture.DeviceName(), rec.Name(), *tuiFlag)
	case config.ModeAssistant:
		runAssistant(ctx, cancel, cfg, listener, gemini, chains, capture.DeviceName(), rec.Name(), *tuiFlag)
	}
}

func pickDevice(actx audio.Context, setup bool, name string) (*audio.DeviceInfo, error) {
	if setup {
		return audio.SelectDevice(actx)
	}
	if name == "" {
		return nil, nil // system default
	}
	devices, err := actx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("microphone device %q not found", name)
}

func buildChain(cfg *config.Config, l lang.Language, guarded bool, play synth.Player) (*synth.Chain, error) {
	var engines []synth.Engine
	for _, name := range cfg.Engines(l) {
		switch name {
		case "local":
			engines = append(engines, synth.NewCommand())
		case "network":
			engines = append(engines, synth.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIVoice, play))
		default:
			return nil, fmt.Errorf("unknown synthesis engine %q for %s", name, l.Name)
		}
	}
	return synth.NewChain(guarded, engines...), nil
}

// langSpeaker routes each utterance to the chain for its language, so an
// assistant that switches language mid-session keeps its fallback order.
type langSpeaker struct {
	chains map[string]*synth.Chain
}

func (s langSpeaker) Speak(ctx context.Context, text string, l lang.Language) error {
	chain, ok := s.chains[l.Name]
	if !ok {
		return fmt.Errorf("no synthesis chain for %s", l.Name)
	}
	return chain.Speak(ctx, text, l)
}

func runTranslator(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, listener *listen.Listener, gemini llm.Client, chains map[string]*synth.Chain, deviceName, recName string, tui bool) {
	buf := history.NewBuffer(0)
	if err := buf.Load(cfg.HistoryPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("could not load history from %s: %v", cfg.HistoryPath, err)
		}
	} else {
		log.Infof("loaded %d exchanges from %s", buf.Len(), cfg.HistoryPath)
	}

	translator := transform.NewTranslator(gemini)
	translate := func(ctx context.Context, text, _ string, src, dst lang.Language) (string, error) {
		return translator.Translate(ctx, text, src, dst)
	}

	var mic sync.Mutex
	directions := [2][2]lang.Language{
		{lang.English, lang.Bengali},
		{lang.Bengali, lang.English},
	}
	var loops [2]*loop.Loop
	for i, d := range directions {
		loops[i] = loop.New(loop.Config{
			Source:     d[0],
			Target:     d[1],
			Capture:    listener,
			Transform:  translate,
			Speaker:    chains[d[1].Name],
			History:    buf,
			Observer:   observerFor(i, tui),
			Mic:        &mic,
			AsyncSpeak: true,
		})
		loops[i].Enable()
	}

	var wg sync.WaitGroup
	for _, l := range loops {
		wg.Add(1)
		go func(l *loop.Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(l)
	}

	controls := tuiControls{
		toggle: func(i int) {
			if i < 0 || i >= len(loops) {
				return
			}
			if loops[i].Enabled() {
				loops[i].Disable()
			} else {
				loops[i].Enable()
			}
		},
		enabled: func(i int) bool {
			return i >= 0 && i < len(loops) && loops[i].Enabled()
		},
		clear: buf.Clear,
		save: func() error {
			return buf.Save(cfg.HistoryPath)
		},
	}

	present(ctx, cancel, config.ModeTranslator, lang.English, controls, deviceName, recName, cfg.GeminiModel, tui)
	wg.Wait()

	if err := buf.Save(cfg.HistoryPath); err != nil {
		log.Errorf("could not save history to %s: %v", cfg.HistoryPath, err)
	}
	log.SessionEnd(buf.Len())
}

func runAssistant(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, listener *listen.Listener, gemini llm.Client, chains map[string]*synth.Chain, deviceName, recName string, tui bool) {
	buf := history.NewBuffer(cfg.MaxHistory)
	responder := transform.NewResponder(gemini)
	respond := func(ctx context.Context, text, conversation string, src, _ lang.Language) (string, error) {
		return responder.Respond(ctx, text, conversation, src)
	}

	l := loop.New(loop.Config{
		Source:        lang.English,
		Target:        lang.English,
		Capture:       listener,
		Transform:     respond,
		Speaker:       langSpeaker{chains: chains},
		History:       buf,
		Observer:      observerFor(0, tui),
		ContextWindow: cfg.ContextWindow,
		UserLabel:     "You",
		ReplyLabel:    "Bot",
	})
	l.Enable()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Run(ctx)
	}()

	controls := tuiControls{
		toggle: func(int) {
			if l.Enabled() {
				l.Disable()
			} else {
				l.Enable()
			}
		},
		enabled: func(int) bool { return l.Enabled() },
		switchLang: func() (lang.Language, lang.Language) {
			src, _ := l.Languages()
			next := lang.English
			if src.Name == lang.English.Name {
				next = lang.Bengali
			}
			l.SetLanguages(next, next)
			log.Infof("assistant language switched to %s", next.Name)
			return next, next
		},
		clear: buf.Clear,
	}

	present(ctx, cancel, config.ModeAssistant, lang.English, controls, deviceName, recName, cfg.GeminiModel, tui)
	wg.Wait()

	log.SessionEnd(buf.Len())
}

// present blocks until the session ends: in TUI mode until the user quits,
// headless until the signal context is cancelled.
func present(ctx context.Context, cancel context.CancelFunc, mode config.Mode, current lang.Language, controls tuiControls, deviceName, recName, model string, tui bool) {
	if !tui {
		<-ctx.Done()
		return
	}

	p := NewTUIProgram(mode, current, controls)
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	p.Send(InfoLineMsg{Text: fmt.Sprintf("[%s | %s | %s]", mode, recName, model)})
	if deviceName != "" {
		p.Send(DeviceLineMsg{Text: "mic: " + deviceName})
	}

	// Tear the TUI down if the loops are stopped from outside (SIGTERM)
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	tuiMu.Lock()
	tuiProgram = nil
	tuiMu.Unlock()
	cancel()
}

// stdoutObserver is the headless presentation: statuses go to the
// diagnostics log, transcripts to stdout.
type stdoutObserver struct{}

func (stdoutObserver) Status(text string)     { log.Info(text) }
func (stdoutObserver) Transcript(text string) { fmt.Print(text) }

func observerFor(direction int, tui bool) loop.Observer {
	if tui {
		return tuiObserver{direction: direction}
	}
	return stdoutObserver{}
}
