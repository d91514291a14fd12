// sound_tone.go - deterministic tone generator provider

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
	TONE_SINE = iota
	TONE_SQUARE
)

// ToneSource generates a sine or square wave with a 32-bit phase accumulator,
// so pitch stays exact across chunk boundaries and output is reproducible for
// a given (waveform, frequency, mix rate) triple. Mono content; panning
// applies on stereo output.
type ToneSource struct {
	mutex     sync.Mutex
	engine    *AudioEngine
	soundType string
	waveform  int
	frequency float64
	amplitude int32
	phase     uint32
	playing   bool
	gains     sourceGains
}

// NewToneSource creates a 440 Hz sine at half amplitude, stopped, and
// registers it with the engine. A nil engine leaves it detached.
func NewToneSource(engine *AudioEngine, soundType string) *ToneSource {
	s := &ToneSource{
		engine:    engine,
		soundType: soundType,
		waveform:  TONE_SINE,
		frequency: 440,
		amplitude: 16383,
	}
	s.gains.init()
	if engine != nil {
		engine.AddSource(s)
	}
	return s
}

func (s *ToneSource) SoundType() string {
	return s.soundType
}

func (s *ToneSource) Play() {
	s.mutex.Lock()
	s.playing = true
	s.mutex.Unlock()
}

func (s *ToneSource) Stop() {
	s.mutex.Lock()
	s.playing = false
	s.phase = 0
	s.mutex.Unlock()
}

func (s *ToneSource) IsPlaying() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playing
}

func (s *ToneSource) SetWaveform(waveform int) {
	if waveform != TONE_SINE && waveform != TONE_SQUARE {
		waveform = TONE_SINE
	}
	s.mutex.Lock()
	s.waveform = waveform
	s.mutex.Unlock()
}

// SetFrequency sets the tone pitch in Hz. Non-positive values clamp to 1.
func (s *ToneSource) SetFrequency(hz float64) {
	if hz <= 0 {
		hz = 1
	}
	s.mutex.Lock()
	s.frequency = hz
	s.mutex.Unlock()
}

func (s *ToneSource) Frequency() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.frequency
}

// SetAmplitude sets the peak level in [0,1] of full scale.
func (s *ToneSource) SetAmplitude(level float32) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	s.mutex.Lock()
	s.amplitude = int32(level * 32767)
	s.mutex.Unlock()
}

func (s *ToneSource) SetGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	s.mutex.Lock()
	s.gains.gain = gain
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ToneSource) SetPanning(panning float32) {
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

func (s *ToneSource) UpdateMasterGain(effective float32) {
	s.mutex.Lock()
	s.gains.masterGain = effective
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *ToneSource) Update(timeStep float32) {
	// Nothing to do per frame; phase advances on the mix path.
}

func (s *ToneSource) Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.playing || mixRate <= 0 || frames <= 0 {
		return
	}
	inc := uint32(s.frequency * (1 << 32) / float64(mixRate))

	var silent bool
	if stereo {
		silent = s.gains.volLeft == 0 && s.gains.volRight == 0
	} else {
		silent = s.gains.volFlat == 0
	}
	if silent || s.amplitude == 0 {
		s.phase += inc * uint32(frames)
		return
	}

	volL := s.gains.volLeft
	volR := s.gains.volRight
	vol := s.gains.volFlat
	amp := s.amplitude
	phase := s.phase
	for i := 0; i < frames; i++ {
		var sample int32
		switch s.waveform {
		case TONE_SQUARE:
			if phase < 1<<31 {
				sample = amp
			} else {
				sample = -amp
			}
		default:
			sample = int32(math.Sin(2*math.Pi*float64(phase)/(1<<32)) * float64(amp))
		}
		if stereo {
			accumulator[2*i] += (sample * volL) >> VOLUME_SHIFT
			accumulator[2*i+1] += (sample * volR) >> VOLUME_SHIFT
		} else {
			accumulator[i] += (sample * vol) >> VOLUME_SHIFT
		}
		phase += inc
	}
	s.phase = phase
}
