// sound_test.go - PCM clip container

package tinaudio

import (
	"testing"
	"time"
)

func TestNewSoundFrameCount(t *testing.T) {
	mono := NewSound(make([]int16, 100), 44100, false)
	if mono.Frames() != 100 {
		t.Errorf("mono frames = %d, want 100", mono.Frames())
	}
	stereo := NewSound(make([]int16, 100), 44100, true)
	if stereo.Frames() != 50 {
		t.Errorf("stereo frames = %d, want 50", stereo.Frames())
	}
	// An odd stereo sample count drops the trailing half frame.
	odd := NewSound(make([]int16, 101), 44100, true)
	if odd.Frames() != 50 {
		t.Errorf("odd stereo frames = %d, want 50", odd.Frames())
	}
}

func TestSoundDuration(t *testing.T) {
	clip := NewSound(make([]int16, 22050), 22050, false)
	if got := clip.Duration(); got != time.Second {
		t.Errorf("Duration = %v, want 1s", got)
	}
	half := NewSound(make([]int16, 22050), 44100, false)
	if got := half.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", got)
	}
}

func TestSoundBadSampleRate(t *testing.T) {
	clip := NewSound(make([]int16, 10), 0, false)
	if clip.SampleRate() != 1 {
		t.Errorf("SampleRate = %d, want the floor 1", clip.SampleRate())
	}
}

func TestSoundLoopStartClamp(t *testing.T) {
	clip := NewSound(make([]int16, 10), 44100, false)
	clip.SetLoopStart(-5)
	if clip.LoopStart() != 0 {
		t.Errorf("LoopStart = %d, want 0", clip.LoopStart())
	}
	clip.SetLoopStart(100)
	if clip.LoopStart() != 9 {
		t.Errorf("LoopStart = %d, want the last frame 9", clip.LoopStart())
	}
	clip.SetLoopStart(4)
	if clip.LoopStart() != 4 {
		t.Errorf("LoopStart = %d, want 4", clip.LoopStart())
	}
}

func TestSoundLooped(t *testing.T) {
	clip := NewSound(make([]int16, 10), 44100, false)
	if clip.Looped() {
		t.Error("new clip reports looped")
	}
	clip.SetLooped(true)
	if !clip.Looped() {
		t.Error("SetLooped(true) did not stick")
	}
}
