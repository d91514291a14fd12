// audio_interface.go - mixing engine contracts, backend selection and shared constants

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

// Package tinaudio mixes concurrently playing sound sources into a single
// interleaved 16-bit PCM stream pulled on demand by an audio output device.
package tinaudio

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_ALSA
	AUDIO_BACKEND_PORTAUDIO
	AUDIO_BACKEND_NULL
)

const (
	MIN_BUFFER_LENGTH_MS = 20
	MIN_MIX_RATE         = 11025
	MAX_MIX_RATE         = 48000

	// Fragment frames derive from the mix rate via this shift, rounded up to
	// a power of two. The value is a latency heuristic, not load-bearing.
	FRAGMENT_RATE_SHIFT = 6

	// OUTPUT_TAP_SAMPLES is the size of the post-clamp tap ring kept for
	// level meters and scopes. Must be a power of two.
	OUTPUT_TAP_SAMPLES = 2048
)

// SOUND_MASTER is the reserved category whose gain multiplies all others.
const SOUND_MASTER = "Master"

var (
	ErrUnknownBackend     = errors.New("unknown audio backend")
	ErrBackendUnavailable = errors.New("audio backend not built in")
	ErrDeviceBusy         = errors.New("audio device already open at a different mode")
	ErrNoAudioMode        = errors.New("no audio mode set")
	ErrUnsupportedFormat  = errors.New("unsupported sound file format")
)

var alog = logrus.WithField("subsystem", "audio")

// AudioMode is the device configuration fixed between SetMode calls. All
// values are already clamped into their valid ranges.
type AudioMode struct {
	MixRate        int
	BufferLengthMs int
	Stereo         bool
	Interpolation  bool
}

func (m AudioMode) ChannelCount() int {
	if m.Stereo {
		return 2
	}
	return 1
}

// SampleSize returns the byte size of one interleaved output frame.
func (m AudioMode) SampleSize() int {
	return m.ChannelCount() * 2
}

// SampleProvider is the engine's sole input abstraction: anything able to add
// a bounded run of signed PCM into the shared accumulator.
//
// Contribute is called from the device pull goroutine with the engine lock
// held. It must not block, allocate or panic, must only add into the
// accumulator (never overwrite), must track its own playback cursor and must
// fall silent past end-of-data. The accumulator holds frames*channels int32
// slots, interleaved when stereo is true.
//
// Update runs on the application's frame goroutine outside the engine lock
// and may do heavier bookkeeping, including removing the provider from the
// engine.
//
// SoundType names the provider's category; the engine hashes it once when the
// provider is added. UpdateMasterGain receives the effective master gain
// (Master x category) whenever the gain table changes; implementations cache
// it and fold it into their Contribute scaling. It is called with the engine
// lock held, so it must not call back into the engine.
type SampleProvider interface {
	SoundType() string
	Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool)
	Update(timeStep float32)
	UpdateMasterGain(effective float32)
}

// OutputDevice is the platform shim boundary. Implementations own the device
// handle and pull registration and contain no mixing logic of their own; the
// pull path delegates straight to AudioEngine.MixOutput.
type OutputDevice interface {
	// Open configures the platform stream for the given mode and registers
	// the pull callback. It does not start playback.
	Open(mode AudioMode) error
	// Close detaches and releases the device. Safe to call when Open never
	// succeeded.
	Close() error
	// Resume (re)starts the pull stream.
	Resume()
}

func newOutputDevice(backend int, engine *AudioEngine) (OutputDevice, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		device, err := newOtoDevice(engine)
		if err != nil {
			return nil, err
		}
		return device, nil
	case AUDIO_BACKEND_ALSA:
		return newALSADevice(engine)
	case AUDIO_BACKEND_PORTAUDIO:
		return newPortAudioDevice(engine)
	case AUDIO_BACKEND_NULL:
		return newNullDevice(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, backend)
	}
}

// hashSoundType is FNV-1a, open coded so category lookups never allocate.
func hashSoundType(name string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= prime32
	}
	return h
}

var masterTypeHash = hashSoundType(SOUND_MASTER)
