// sound.go - in-memory PCM clip

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import "time"

// Sound is a decoded PCM clip: interleaved 16-bit samples at a native rate.
// The sample data is owned by the Sound once constructed and must not be
// modified by the caller. Loop settings are meant to be configured before the
// clip is handed to a playing source.
type Sound struct {
	samples    []int16
	sampleRate int
	stereo     bool
	frames     int
	looped     bool
	loopStart  int
}

// NewSound wraps interleaved samples without copying. A stereo clip with an
// odd sample count loses its trailing half frame.
func NewSound(samples []int16, sampleRate int, stereo bool) *Sound {
	frames := len(samples)
	if stereo {
		frames >>= 1
	}
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Sound{
		samples:    samples,
		sampleRate: sampleRate,
		stereo:     stereo,
		frames:     frames,
	}
}

// Samples returns the backing sample data. Treat it as read-only.
func (s *Sound) Samples() []int16 {
	return s.samples
}

func (s *Sound) SampleRate() int {
	return s.sampleRate
}

func (s *Sound) IsStereo() bool {
	return s.stereo
}

// Frames returns the clip length in frames (sample pairs when stereo).
func (s *Sound) Frames() int {
	return s.frames
}

func (s *Sound) Duration() time.Duration {
	return time.Duration(s.frames) * time.Second / time.Duration(s.sampleRate)
}

func (s *Sound) Looped() bool {
	return s.looped
}

func (s *Sound) SetLooped(looped bool) {
	s.looped = looped
}

// LoopStart returns the frame playback wraps back to when the clip loops.
func (s *Sound) LoopStart() int {
	return s.loopStart
}

// SetLoopStart clamps the loop point into the clip so a looping clip always
// keeps at least one frame of loop body.
func (s *Sound) SetLoopStart(frame int) {
	if frame < 0 {
		frame = 0
	}
	if s.frames > 0 && frame > s.frames-1 {
		frame = s.frames - 1
	}
	s.loopStart = frame
}
