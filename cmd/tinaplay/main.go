// main.go - tinaplay command line sound player

/*
tinaplay - command line player for the tinaudio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wuxianggujun/tinaudio"
)

func boilerPlate() {
	fmt.Println("\ntinaplay - tinaudio mixing engine player")
	fmt.Println("(c) 2025 - 2026 wuxianggujun")
	fmt.Println("https://github.com/wuxianggujun/tinaudio")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	var (
		backendName string
		mixRate     int
		bufferMs    int
		mono        bool
		noInterp    bool
		soundType   string
		masterGain  float64
		loop        bool
		scriptPath  string
		renderPath  string
		duration    time.Duration
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&backendName, "backend", "oto", "Audio backend: oto, alsa, portaudio or null")
	flagSet.IntVar(&mixRate, "rate", 44100, "Mix rate in Hz")
	flagSet.IntVar(&bufferMs, "buffer", 100, "Device buffer length in milliseconds")
	flagSet.BoolVar(&mono, "mono", false, "Mix to mono instead of stereo")
	flagSet.BoolVar(&noInterp, "nointerp", false, "Disable sample interpolation")
	flagSet.StringVar(&soundType, "type", "music", "Sound type tag for loaded files")
	flagSet.Float64Var(&masterGain, "gain", 1.0, "Initial master gain 0..1")
	flagSet.BoolVar(&loop, "loop", false, "Loop loaded files")
	flagSet.StringVar(&scriptPath, "script", "", "Run a Lua control script instead of interactive mode")
	flagSet.StringVar(&renderPath, "render", "", "Render to a WAV file offline instead of playing")
	flagSet.DurationVar(&duration, "duration", 10*time.Second, "Render length for -render")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./tinaplay [options] [file.wav|file.ogg|file.mp3 ...]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	backend, err := parseBackend(backendName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if renderPath != "" {
		// Offline bounce wants a device that never pulls on its own.
		backend = tinaudio.AUDIO_BACKEND_NULL
	}

	engine := tinaudio.NewAudioEngine(backend)
	if !engine.SetMode(bufferMs, mixRate, !mono, !noInterp) {
		fmt.Println("Error: failed to open audio device")
		os.Exit(1)
	}
	defer engine.Close()
	engine.SetMasterGain(tinaudio.SOUND_MASTER, float32(masterGain))

	for _, path := range flagSet.Args() {
		snd, err := tinaudio.LoadSoundFile(path)
		if err != nil {
			fmt.Printf("Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		snd.SetLooped(loop)
		src := tinaudio.NewClipSource(engine, soundType)
		src.Play(snd)
		channels := "mono"
		if snd.IsStereo() {
			channels = "stereo"
		}
		fmt.Printf("Playing %s: %d Hz %s, %.1fs\n",
			path, snd.SampleRate(), channels, snd.Duration().Seconds())
	}

	switch {
	case scriptPath != "":
		if err := runScript(engine, scriptPath, soundType); err != nil {
			fmt.Printf("Script error: %v\n", err)
			os.Exit(1)
		}
	case renderPath != "":
		renderer := tinaudio.NewWAVRenderer(engine)
		if err := renderer.RenderFile(renderPath, duration); err != nil {
			fmt.Printf("Render error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Rendered %s: %.1fs at %d Hz\n", renderPath, duration.Seconds(), engine.MixRate())
	default:
		runInteractive(engine, soundType)
	}
}

func parseBackend(name string) (int, error) {
	switch strings.ToLower(name) {
	case "oto":
		return tinaudio.AUDIO_BACKEND_OTO, nil
	case "alsa":
		return tinaudio.AUDIO_BACKEND_ALSA, nil
	case "portaudio":
		return tinaudio.AUDIO_BACKEND_PORTAUDIO, nil
	case "null":
		return tinaudio.AUDIO_BACKEND_NULL, nil
	}
	return 0, fmt.Errorf("unknown backend %q (want oto, alsa, portaudio or null)", name)
}

// runInteractive drives the engine's frame updates and maps single keys onto
// the control surface until q or Ctrl-C.
func runInteractive(engine *tinaudio.AudioEngine, soundType string) {
	fmt.Println("\nKeys: [space] stop/resume  [p] pause type  [t] tone  [w] waveform")
	fmt.Println("      [+/-] master gain    [[/]] tone pitch  [q] quit")

	keys := newKeyReader()
	if err := keys.Start(); err != nil {
		// No usable terminal (piped stdin); just play until the process dies.
		fmt.Printf("No interactive terminal (%v), playing without key control\n", err)
		keys = nil
	}

	var tone *tinaudio.ToneSource
	toneWave := tinaudio.TONE_SINE
	toneFreq := 440.0

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()
	meter := time.Now()

	for {
		var key byte
		if keys != nil {
			select {
			case <-ticker.C:
			case key = <-keys.Keys():
			}
		} else {
			<-ticker.C
		}

		now := time.Now()
		engine.Update(float32(now.Sub(last).Seconds()))
		last = now

		switch key {
		case 0:
		case 'q', 0x03:
			if keys != nil {
				keys.Stop()
			}
			fmt.Print("\r\n")
			return
		case ' ':
			if engine.IsPlaying() {
				engine.Stop()
			} else {
				engine.Play()
			}
		case 'p':
			if engine.IsSoundTypePaused(soundType) {
				engine.ResumeSoundType(soundType)
			} else {
				engine.PauseSoundType(soundType)
			}
		case 't':
			if tone == nil {
				tone = tinaudio.NewToneSource(engine, "sfx")
				tone.SetWaveform(toneWave)
				tone.SetFrequency(toneFreq)
			}
			if tone.IsPlaying() {
				tone.Stop()
			} else {
				tone.Play()
			}
		case 'w':
			if toneWave == tinaudio.TONE_SINE {
				toneWave = tinaudio.TONE_SQUARE
			} else {
				toneWave = tinaudio.TONE_SINE
			}
			if tone != nil {
				tone.SetWaveform(toneWave)
			}
		case '[':
			toneFreq /= 1.059463
			if tone != nil {
				tone.SetFrequency(toneFreq)
			}
		case ']':
			toneFreq *= 1.059463
			if tone != nil {
				tone.SetFrequency(toneFreq)
			}
		case '+', '=':
			engine.SetMasterGain(tinaudio.SOUND_MASTER, engine.GetMasterGain(tinaudio.SOUND_MASTER)+0.05)
		case '-':
			engine.SetMasterGain(tinaudio.SOUND_MASTER, engine.GetMasterGain(tinaudio.SOUND_MASTER)-0.05)
		}

		if now.Sub(meter) >= 100*time.Millisecond {
			meter = now
			printMeter(engine, soundType)
		}
	}
}

func printMeter(engine *tinaudio.AudioEngine, soundType string) {
	left, right := engine.OutputPeaks()
	state := "playing"
	if !engine.IsPlaying() {
		state = "stopped"
	} else if engine.IsSoundTypePaused(soundType) {
		state = "paused "
	}
	fmt.Printf("\r\033[2K L|%-20s| R|%-20s| gain %.2f  src %d  %s",
		meterBar(left), meterBar(right),
		engine.GetMasterGain(tinaudio.SOUND_MASTER), engine.SourceCount(), state)
}

func meterBar(level float32) string {
	n := int(level * 20)
	if n > 20 {
		n = 20
	}
	return strings.Repeat("=", n)
}
