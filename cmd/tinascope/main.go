// main.go - tinascope realtime output visualizer

/*
tinascope - waveform and level visualizer for the tinaudio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/wuxianggujun/tinaudio"
)

const (
	screenW = 640
	screenH = 360
	meterH  = 10
)

type scopeGame struct {
	engine    *tinaudio.AudioEngine
	soundType string

	tap  []int16
	last time.Time

	tone     *tinaudio.ToneSource
	toneWave int

	clipboardOnce sync.Once
	clipboardOK   bool
	showLegend    bool
	copiedAt      time.Time
}

func newScopeGame(engine *tinaudio.AudioEngine, soundType string) *scopeGame {
	return &scopeGame{
		engine:     engine,
		soundType:  soundType,
		tap:        make([]int16, tinaudio.OUTPUT_TAP_SAMPLES),
		last:       time.Now(),
		toneWave:   tinaudio.TONE_SINE,
		showLegend: true,
	}
}

func (g *scopeGame) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	now := time.Now()
	g.engine.Update(float32(now.Sub(g.last).Seconds()))
	g.last = now

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if g.engine.IsPlaying() {
			g.engine.Stop()
		} else {
			g.engine.Play()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.engine.IsSoundTypePaused(g.soundType) {
			g.engine.ResumeSoundType(g.soundType)
		} else {
			g.engine.PauseSoundType(g.soundType)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		if g.tone == nil {
			g.tone = tinaudio.NewToneSource(g.engine, "sfx")
			g.tone.SetWaveform(g.toneWave)
		}
		if g.tone.IsPlaying() {
			g.tone.Stop()
		} else {
			g.tone.Play()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		if g.toneWave == tinaudio.TONE_SINE {
			g.toneWave = tinaudio.TONE_SQUARE
		} else {
			g.toneWave = tinaudio.TONE_SINE
		}
		if g.tone != nil {
			g.tone.SetWaveform(g.toneWave)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		g.engine.SetMasterGain(tinaudio.SOUND_MASTER,
			g.engine.GetMasterGain(tinaudio.SOUND_MASTER)+0.05)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		g.engine.SetMasterGain(tinaudio.SOUND_MASTER,
			g.engine.GetMasterGain(tinaudio.SOUND_MASTER)-0.05)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyStats()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.showLegend = !g.showLegend
	}
	return nil
}

func (g *scopeGame) copyStats() {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		return
	}
	left, right := g.engine.OutputPeaks()
	channels := "mono"
	if g.engine.IsStereo() {
		channels = "stereo"
	}
	stats := fmt.Sprintf("tinascope %d Hz %s | master %.2f | peaks L %.3f R %.3f | sources %d",
		g.engine.MixRate(), channels,
		g.engine.GetMasterGain(tinaudio.SOUND_MASTER), left, right, g.engine.SourceCount())
	clipboard.Write(clipboard.FmtText, []byte(stats))
	g.copiedAt = time.Now()
}

func (g *scopeGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{6, 10, 14, 255})

	n := g.engine.CopyTap(g.tap)
	stereo := g.engine.IsStereo()
	scopeH := screenH - 56
	mid := float64(scopeH) / 2
	scale := (mid - 4) / 32768

	ebitenutil.DrawLine(screen, 0, mid, screenW, mid, color.RGBA{40, 50, 60, 255})

	if stereo {
		g.drawTrace(screen, g.tap[:n], 2, 0, mid, scale, color.RGBA{0, 220, 90, 255})
		g.drawTrace(screen, g.tap[:n], 2, 1, mid, scale, color.RGBA{220, 90, 220, 255})
	} else {
		g.drawTrace(screen, g.tap[:n], 1, 0, mid, scale, color.RGBA{0, 220, 90, 255})
	}

	left, right := g.engine.OutputPeaks()
	g.drawMeter(screen, scopeH+6, "L", left)
	g.drawMeter(screen, scopeH+6+meterH+4, "R", right)

	face := basicfont.Face7x13
	state := "playing"
	if !g.engine.IsPlaying() {
		state = "stopped"
	} else if g.engine.IsSoundTypePaused(g.soundType) {
		state = "paused"
	}
	channels := "mono"
	if stereo {
		channels = "stereo"
	}
	status := fmt.Sprintf("%d Hz %s  gain %.2f  src %d  %s",
		g.engine.MixRate(), channels,
		g.engine.GetMasterGain(tinaudio.SOUND_MASTER), g.engine.SourceCount(), state)
	if time.Since(g.copiedAt) < 2*time.Second {
		status += "  [copied]"
	}
	text.Draw(screen, status, face, 6, screenH-6, color.RGBA{190, 190, 190, 255})

	if g.showLegend {
		legend := "Space Stop  P Pause  T Tone  W Wave  Up/Dn Gain  C Copy  F12 Legend  Q Quit"
		legendW := text.BoundString(face, legend).Dx()
		x := screenW - legendW - 6
		if x < 6 {
			x = 6
		}
		text.Draw(screen, legend, face, x, 16, color.RGBA{120, 130, 140, 255})
	}
}

// drawTrace plots one interleaved channel of the tap ring across the scope
// area as a connected polyline.
func (g *scopeGame) drawTrace(screen *ebiten.Image, tap []int16, stride, offset int, mid, scale float64, c color.Color) {
	frames := len(tap) / stride
	if frames < 2 {
		return
	}
	step := float64(screenW) / float64(frames-1)
	prevX := 0.0
	prevY := mid - float64(tap[offset])*scale
	for i := 1; i < frames; i++ {
		x := float64(i) * step
		y := mid - float64(tap[i*stride+offset])*scale
		ebitenutil.DrawLine(screen, prevX, prevY, x, y, c)
		prevX, prevY = x, y
	}
}

func (g *scopeGame) drawMeter(screen *ebiten.Image, y int, label string, level float32) {
	text.Draw(screen, label, basicfont.Face7x13, 6, y+meterH-1, color.RGBA{150, 150, 150, 255})
	barX := 20.0
	barW := float64(screenW - 26)
	ebitenutil.DrawRect(screen, barX, float64(y), barW, meterH, color.RGBA{25, 30, 35, 255})
	fill := float64(level) * barW
	if fill > barW {
		fill = barW
	}
	barColor := color.RGBA{0, 200, 80, 255}
	if level > 0.9 {
		barColor = color.RGBA{230, 60, 50, 255}
	}
	ebitenutil.DrawRect(screen, barX, float64(y), fill, meterH, barColor)
}

func (g *scopeGame) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func main() {
	var (
		mixRate   int
		bufferMs  int
		mono      bool
		noInterp  bool
		soundType string
		loop      bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&mixRate, "rate", 44100, "Mix rate in Hz")
	flagSet.IntVar(&bufferMs, "buffer", 100, "Device buffer length in milliseconds")
	flagSet.BoolVar(&mono, "mono", false, "Mix to mono instead of stereo")
	flagSet.BoolVar(&noInterp, "nointerp", false, "Disable sample interpolation")
	flagSet.StringVar(&soundType, "type", "music", "Sound type tag for loaded files")
	flagSet.BoolVar(&loop, "loop", false, "Loop loaded files")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./tinascope [options] [file.wav|file.ogg|file.mp3 ...]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	engine := tinaudio.NewAudioEngine(tinaudio.AUDIO_BACKEND_OTO)
	if !engine.SetMode(bufferMs, mixRate, !mono, !noInterp) {
		fmt.Println("Error: failed to open audio device")
		os.Exit(1)
	}
	defer engine.Close()

	for _, path := range flagSet.Args() {
		snd, err := tinaudio.LoadSoundFile(path)
		if err != nil {
			fmt.Printf("Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		snd.SetLooped(loop)
		src := tinaudio.NewClipSource(engine, soundType)
		src.Play(snd)
	}

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("tinascope (c) 2025 - 2026 wuxianggujun")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(newScopeGame(engine, soundType)); err != nil && err != ebiten.Termination {
		fmt.Printf("Ebiten error: %v\n", err)
		os.Exit(1)
	}
}
