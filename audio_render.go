// audio_render.go - offline bounce of the mix to a WAV file

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVRenderer bounces an engine's mix to 16-bit PCM WAV faster than real
// time, stepping the frame update in lockstep with the pull so time-driven
// source behaviour (auto-remove, producers) matches live playback. Meant for
// an engine on the null backend; with a live device open the device pull
// would consume the same sources concurrently.
type WAVRenderer struct {
	engine *AudioEngine
}

func NewWAVRenderer(engine *AudioEngine) *WAVRenderer {
	return &WAVRenderer{engine: engine}
}

// RenderFile renders duration worth of output into a WAV file at path.
func (r *WAVRenderer) RenderFile(path string, duration time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	if err := r.Render(f, duration); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Render writes duration worth of mixed output to w in the engine's current
// mode. The engine must have a mode set; a stopped engine renders silence.
func (r *WAVRenderer) Render(w io.WriteSeeker, duration time.Duration) error {
	if r.engine == nil || !r.engine.IsInitialized() {
		return ErrNoAudioMode
	}
	mode := r.engine.GetMode()
	channels := mode.ChannelCount()
	sampleSize := r.engine.SampleSize()
	totalFrames := int(int64(mode.MixRate) * int64(duration) / int64(time.Second))

	block := r.engine.FragmentFrames()
	if block <= 0 {
		block = 1024
	}
	raw := make([]byte, block*sampleSize)
	data := make([]int, block*channels)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: mode.MixRate},
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, mode.MixRate, 16, channels, 1)
	for rendered := 0; rendered < totalFrames; {
		n := block
		if remain := totalFrames - rendered; remain < n {
			n = remain
		}
		r.engine.Update(float32(n) / float32(mode.MixRate))
		r.engine.MixOutput(raw[:n*sampleSize], n)

		buf.Data = data[:n*channels]
		for i := range buf.Data {
			buf.Data[i] = int(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("encode wav: %w", err)
		}
		rendered += n
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
