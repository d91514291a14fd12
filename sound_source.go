// sound_source.go - clip playback provider with fractional-position resampling

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"math"
	"sync"
)

const (
	// Playback cursors advance in 16.16 fixed point.
	POSITION_SHIFT     = 16
	POSITION_FRAC_MASK = (1 << POSITION_SHIFT) - 1

	// Mix volumes are 8.8 fixed point: 256 is unity.
	VOLUME_SHIFT = 8
)

// sourceGains folds the control-surface gain state into the fixed-point
// volumes the mix loops actually read. Pan is equal power: both channels sit
// at -3 dB when centered.
type sourceGains struct {
	gain        float32
	attenuation float32
	panning     float32
	masterGain  float32
	volLeft     int32
	volRight    int32
	volFlat     int32
}

func (g *sourceGains) init() {
	g.gain = 1
	g.attenuation = 1
	g.panning = 0
	g.masterGain = 1
	g.recompute()
}

func (g *sourceGains) recompute() {
	total := float64(g.masterGain * g.attenuation * g.gain)
	angle := float64(g.panning+1) * math.Pi / 4
	g.volLeft = int32(total*math.Cos(angle)*(1<<VOLUME_SHIFT) + 0.5)
	g.volRight = int32(total*math.Sin(angle)*(1<<VOLUME_SHIFT) + 0.5)
	g.volFlat = int32(total*(1<<VOLUME_SHIFT) + 0.5)
}

// ClipSource plays a Sound into the engine. The cursor steps through the clip
// at clipRate/mixRate per output frame, with optional linear interpolation
// between neighbouring frames. Control methods take the source's own small
// mutex; the engine's mutex nests outside it, never inside, so a source
// updating its controls can never deadlock against the mix.
type ClipSource struct {
	mutex      sync.Mutex
	engine     *AudioEngine
	soundType  string
	clip       *Sound
	pos        int64 // 16.16 frame cursor into the clip
	playing    bool
	everPlayed bool
	autoRemove bool
	gains      sourceGains
}

// NewClipSource creates a source tagged with a category and registers it with
// the engine. A nil engine leaves the source detached, which is useful for
// feeding Contribute directly.
func NewClipSource(engine *AudioEngine, soundType string) *ClipSource {
	s := &ClipSource{engine: engine, soundType: soundType}
	s.gains.init()
	if engine != nil {
		engine.AddSource(s)
	}
	return s
}

func (s *ClipSource) SoundType() string {
	return s.soundType
}

// Play rewinds and starts the clip. Play(nil) is equivalent to Stop.
func (s *ClipSource) Play(clip *Sound) {
	s.mutex.Lock()
	s.clip = clip
	s.pos = 0
	s.playing = clip != nil
	if s.playing {
		s.everPlayed = true
	}
	s.mutex.Unlock()
}

func (s *ClipSource) Stop() {
	s.mutex.Lock()
	s.clip = nil
	s.pos = 0
	s.playing = false
	s.mutex.Unlock()
}

func (s *ClipSource) IsPlaying() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playing
}

// SetGain sets the source gain. Negative values clamp to zero; values above
// one amplify and rely on the mixer's saturating clamp.
func (s *ClipSource) SetGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	s.mutex.Lock()
	s.gains.gain = gain
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ClipSource) Gain() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gains.gain
}

// SetAttenuation sets the [0,1] distance factor applied on top of gain.
func (s *ClipSource) SetAttenuation(attenuation float32) {
	if attenuation < 0 {
		attenuation = 0
	}
	if attenuation > 1 {
		attenuation = 1
	}
	s.mutex.Lock()
	s.gains.attenuation = attenuation
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ClipSource) Attenuation() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gains.attenuation
}

// SetPanning sets stereo placement in [-1,1], -1 hard left. Panning positions
// mono content; stereo clips keep their recorded imaging and flat gain.
func (s *ClipSource) SetPanning(panning float32) {
	if panning < -1 {
		panning = -1
	}
	if panning > 1 {
		panning = 1
	}
	s.mutex.Lock()
	s.gains.panning = panning
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ClipSource) Panning() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gains.panning
}

// SetAutoRemove makes the source unregister itself from the engine on the
// frame update after its clip finishes.
func (s *ClipSource) SetAutoRemove(remove bool) {
	s.mutex.Lock()
	s.autoRemove = remove
	s.mutex.Unlock()
}

// TimePosition returns the playback position in seconds.
func (s *ClipSource) TimePosition() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.clip == nil {
		return 0
	}
	return float32(float64(s.pos) / float64(int64(1)<<POSITION_SHIFT) / float64(s.clip.sampleRate))
}

func (s *ClipSource) UpdateMasterGain(effective float32) {
	s.mutex.Lock()
	s.gains.masterGain = effective
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ClipSource) Update(timeStep float32) {
	s.mutex.Lock()
	engine := s.engine
	remove := s.autoRemove && s.everPlayed && !s.playing && engine != nil
	s.mutex.Unlock()
	// The engine lock is taken by RemoveSource; never hold our own across it.
	if remove {
		engine.RemoveSource(s)
	}
}

func (s *ClipSource) Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	clip := s.clip
	if !s.playing || clip == nil || clip.frames == 0 || mixRate <= 0 || frames <= 0 {
		return
	}

	inc := (int64(clip.sampleRate) << POSITION_SHIFT) / int64(mixRate)
	if inc <= 0 {
		inc = 1
	}

	var silent bool
	if stereo && !clip.stereo {
		silent = s.gains.volLeft == 0 && s.gains.volRight == 0
	} else {
		silent = s.gains.volFlat == 0
	}
	if silent {
		// Keep time moving while inaudible.
		s.advance(clip, int64(frames)*inc)
		return
	}

	if clip.stereo {
		if stereo {
			s.mixStereoToStereo(clip, accumulator, frames, inc, interpolation)
		} else {
			s.mixStereoToMono(clip, accumulator, frames, inc, interpolation)
		}
	} else {
		if stereo {
			s.mixMonoToStereo(clip, accumulator, frames, inc, interpolation)
		} else {
			s.mixMonoToMono(clip, accumulator, frames, inc, interpolation)
		}
	}
}

// advance moves the cursor without producing output, honouring loop wrap and
// end-of-clip stop.
func (s *ClipSource) advance(clip *Sound, delta int64) {
	pos := s.pos + delta
	end := int64(clip.frames) << POSITION_SHIFT
	if pos < end {
		s.pos = pos
		return
	}
	if !clip.looped {
		s.pos = end
		s.playing = false
		return
	}
	loopStart := int64(clip.loopStart) << POSITION_SHIFT
	span := end - loopStart
	s.pos = loopStart + (pos-loopStart)%span
}

// monoSampleAt reads one mono frame at idx, linearly interpolated toward the
// following frame when requested.
func monoSampleAt(clip *Sound, pos int64, interpolation bool) int32 {
	idx := int(pos >> POSITION_SHIFT)
	c0 := int32(clip.samples[idx])
	if !interpolation {
		return c0
	}
	c1 := c0
	if idx+1 < clip.frames {
		c1 = int32(clip.samples[idx+1])
	} else if clip.looped {
		c1 = int32(clip.samples[clip.loopStart])
	}
	frac := pos & POSITION_FRAC_MASK
	return c0 + int32((int64(c1-c0)*frac)>>POSITION_SHIFT)
}

// stereoSampleAt reads one stereo frame at idx, per-channel interpolated.
func stereoSampleAt(clip *Sound, pos int64, interpolation bool) (int32, int32) {
	idx := int(pos >> POSITION_SHIFT)
	l0 := int32(clip.samples[2*idx])
	r0 := int32(clip.samples[2*idx+1])
	if !interpolation {
		return l0, r0
	}
	l1, r1 := l0, r0
	if idx+1 < clip.frames {
		l1 = int32(clip.samples[2*idx+2])
		r1 = int32(clip.samples[2*idx+3])
	} else if clip.looped {
		l1 = int32(clip.samples[2*clip.loopStart])
		r1 = int32(clip.samples[2*clip.loopStart+1])
	}
	frac := pos & POSITION_FRAC_MASK
	l := l0 + int32((int64(l1-l0)*frac)>>POSITION_SHIFT)
	r := r0 + int32((int64(r1-r0)*frac)>>POSITION_SHIFT)
	return l, r
}

// wrapPos handles end-of-data inside the mix loops: it returns the wrapped
// cursor and false once a non-looping clip runs out.
func (s *ClipSource) wrapPos(clip *Sound, pos, end int64) (int64, bool) {
	for pos >= end {
		if !clip.looped {
			s.pos = end
			s.playing = false
			return pos, false
		}
		loopStart := int64(clip.loopStart) << POSITION_SHIFT
		pos = loopStart + (pos - end)
	}
	return pos, true
}

func (s *ClipSource) mixMonoToMono(clip *Sound, acc []int32, frames int, inc int64, interpolation bool) {
	vol := s.gains.volFlat
	pos := s.pos
	end := int64(clip.frames) << POSITION_SHIFT
	for i := 0; i < frames; i++ {
		var ok bool
		if pos, ok = s.wrapPos(clip, pos, end); !ok {
			return
		}
		sample := monoSampleAt(clip, pos, interpolation)
		acc[i] += (sample * vol) >> VOLUME_SHIFT
		pos += inc
	}
	s.pos = pos
}

func (s *ClipSource) mixMonoToStereo(clip *Sound, acc []int32, frames int, inc int64, interpolation bool) {
	volL := s.gains.volLeft
	volR := s.gains.volRight
	pos := s.pos
	end := int64(clip.frames) << POSITION_SHIFT
	for i := 0; i < frames; i++ {
		var ok bool
		if pos, ok = s.wrapPos(clip, pos, end); !ok {
			return
		}
		sample := monoSampleAt(clip, pos, interpolation)
		acc[2*i] += (sample * volL) >> VOLUME_SHIFT
		acc[2*i+1] += (sample * volR) >> VOLUME_SHIFT
		pos += inc
	}
	s.pos = pos
}

func (s *ClipSource) mixStereoToMono(clip *Sound, acc []int32, frames int, inc int64, interpolation bool) {
	vol := s.gains.volFlat
	pos := s.pos
	end := int64(clip.frames) << POSITION_SHIFT
	for i := 0; i < frames; i++ {
		var ok bool
		if pos, ok = s.wrapPos(clip, pos, end); !ok {
			return
		}
		l, r := stereoSampleAt(clip, pos, interpolation)
		acc[i] += (((l + r) >> 1) * vol) >> VOLUME_SHIFT
		pos += inc
	}
	s.pos = pos
}

func (s *ClipSource) mixStereoToStereo(clip *Sound, acc []int32, frames int, inc int64, interpolation bool) {
	vol := s.gains.volFlat
	pos := s.pos
	end := int64(clip.frames) << POSITION_SHIFT
	for i := 0; i < frames; i++ {
		var ok bool
		if pos, ok = s.wrapPos(clip, pos, end); !ok {
			return
		}
		l, r := stereoSampleAt(clip, pos, interpolation)
		acc[2*i] += (l * vol) >> VOLUME_SHIFT
		acc[2*i+1] += (r * vol) >> VOLUME_SHIFT
		pos += inc
	}
	s.pos = pos
}
