// audio_engine.go - device lifecycle, mode configuration and the gain/pause control surface

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"sync"
)

// AudioEngine owns the output device, the mix fragment and the set of active
// sample providers. One mutex is shared between the device pull goroutine and
// application goroutines; every critical section is short and bounded, and
// the pull path never blocks on anything else.
//
// Update is the one loosening of the locking rule: the walk releases the
// mutex around each source's update hook so the hook may call back into the
// engine, removing itself or other sources. It is meant to be driven by a
// single application goroutine, the same discipline a game loop gives its
// per-frame update.
type AudioEngine struct {
	mutex sync.Mutex

	backend int
	device  OutputDevice
	opens   int // successful device opens minus closes, 0 or 1

	mixRate        int
	bufferLengthMs int
	stereo         bool
	interpolation  bool
	sampleSize     int
	fragmentFrames int

	playing     bool
	initialized bool

	masterGain map[uint32]float32
	paused     map[uint32]struct{}

	registry sourceRegistry

	// Mix scratch state, touched only with the mutex held. See audio_mixer.go.
	clipBuffer []int32
	tap        []int16
	tapPos     int
	peakLeft   int32
	peakRight  int32
}

// NewAudioEngine creates an engine bound to one of the AUDIO_BACKEND
// constants. No device is touched until SetMode.
func NewAudioEngine(backend int) *AudioEngine {
	return &AudioEngine{
		backend:    backend,
		masterGain: map[uint32]float32{masterTypeHash: 1.0},
		paused:     make(map[uint32]struct{}),
		tap:        make([]int16, OUTPUT_TAP_SAMPLES),
	}
}

// SetMode closes any current device, clamps the requested parameters into
// their valid ranges, sizes the mix fragment, opens the output device and
// starts playback. Returns false and logs a diagnostic when the device cannot
// be opened; the engine is then back in the "no device" state and SetMode may
// be retried with different parameters.
func (s *AudioEngine) SetMode(bufferLengthMs, mixRate int, stereo, interpolation bool) bool {
	s.release()

	if bufferLengthMs < MIN_BUFFER_LENGTH_MS {
		bufferLengthMs = MIN_BUFFER_LENGTH_MS
	}
	if mixRate < MIN_MIX_RATE {
		mixRate = MIN_MIX_RATE
	}
	if mixRate > MAX_MIX_RATE {
		mixRate = MAX_MIX_RATE
	}

	mode := AudioMode{
		MixRate:        mixRate,
		BufferLengthMs: bufferLengthMs,
		Stereo:         stereo,
		Interpolation:  interpolation,
	}

	device, err := newOutputDevice(s.backend, s)
	if err != nil {
		alog.WithError(err).Error("Could not create audio output")
		return false
	}
	if err := device.Open(mode); err != nil {
		alog.WithError(err).Error("Could not initialize audio output")
		return false
	}

	fragmentFrames := nextPowerOfTwo(mixRate >> FRAGMENT_RATE_SHIFT)
	clipSamples := fragmentFrames
	if stereo {
		clipSamples <<= 1
	}

	s.mutex.Lock()
	s.device = device
	s.opens++
	s.mixRate = mixRate
	s.bufferLengthMs = bufferLengthMs
	s.stereo = stereo
	s.interpolation = interpolation
	s.sampleSize = mode.SampleSize()
	s.fragmentFrames = fragmentFrames
	s.clipBuffer = make([]int32, clipSamples)
	s.initialized = true
	s.mutex.Unlock()

	channels := "mono"
	if stereo {
		channels = "stereo"
	}
	quality := ""
	if interpolation {
		quality = " interpolated"
	}
	alog.Infof("Set audio mode %d Hz %s%s", mixRate, channels, quality)

	return s.Play()
}

// Play resumes device output. Source state is refreshed with a zero-timestep
// update before the playing flag flips so the first pulled fragment reflects
// current positions and gains.
func (s *AudioEngine) Play() bool {
	s.mutex.Lock()
	if s.playing {
		s.mutex.Unlock()
		return true
	}
	device := s.device
	s.mutex.Unlock()

	if device == nil {
		alog.Error("No audio mode set, can not start playback")
		return false
	}

	device.Resume()
	s.updateSources(0)

	s.mutex.Lock()
	s.playing = true
	s.mutex.Unlock()
	return true
}

// Stop mutes mixing. The device keeps pulling and receives silence; tearing
// the device down belongs to SetMode and Close.
func (s *AudioEngine) Stop() {
	s.mutex.Lock()
	s.playing = false
	s.mutex.Unlock()
}

// SetMasterGain stores a clamped [0,1] gain for the category and pushes the
// resulting effective gain to every registered source, so per-source cached
// gains never go stale.
func (s *AudioEngine) SetMasterGain(soundType string, gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	s.mutex.Lock()
	s.masterGain[hashSoundType(soundType)] = gain
	for i := range s.registry.handles {
		h := &s.registry.handles[i]
		h.provider.UpdateMasterGain(s.soundSourceMasterGainLocked(h.typeHash))
	}
	s.mutex.Unlock()
}

// GetMasterGain returns the stored gain for a category. Unknown categories
// report full gain.
func (s *AudioEngine) GetMasterGain(soundType string) float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if gain, ok := s.masterGain[hashSoundType(soundType)]; ok {
		return gain
	}
	return 1.0
}

// GetSoundSourceMasterGain returns Master multiplied by the category gain,
// the value a source of that category should scale its contribution by.
func (s *AudioEngine) GetSoundSourceMasterGain(soundType string) float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.soundSourceMasterGainLocked(hashSoundType(soundType))
}

func (s *AudioEngine) soundSourceMasterGainLocked(typeHash uint32) float32 {
	master := s.masterGain[masterTypeHash]
	if typeHash == masterTypeHash {
		return master
	}
	if gain, ok := s.masterGain[typeHash]; ok {
		return master * gain
	}
	return master
}

// PauseSoundType excludes a category from both mixing and frame update.
func (s *AudioEngine) PauseSoundType(soundType string) {
	s.mutex.Lock()
	s.paused[hashSoundType(soundType)] = struct{}{}
	s.mutex.Unlock()
}

// ResumeSoundType lifts a category pause and refreshes source state with a
// zero-timestep update pass before the next fragment is pulled.
func (s *AudioEngine) ResumeSoundType(soundType string) {
	s.mutex.Lock()
	delete(s.paused, hashSoundType(soundType))
	s.mutex.Unlock()
	s.updateSources(0)
}

// ResumeAll lifts every category pause.
func (s *AudioEngine) ResumeAll() {
	s.mutex.Lock()
	s.paused = make(map[uint32]struct{})
	s.mutex.Unlock()
	s.updateSources(0)
}

// IsSoundTypePaused reports whether a category is currently paused.
func (s *AudioEngine) IsSoundTypePaused(soundType string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, paused := s.paused[hashSoundType(soundType)]
	return paused
}

// AddSource registers a provider. The category tag is hashed once here; a
// provider that changes its SoundType must be removed and re-added. Duplicate
// adds are not collapsed: the same provider added twice contributes twice.
func (s *AudioEngine) AddSource(provider SampleProvider) {
	if provider == nil {
		return
	}
	typeHash := hashSoundType(provider.SoundType())
	s.mutex.Lock()
	s.registry.add(sourceHandle{provider: provider, typeHash: typeHash})
	provider.UpdateMasterGain(s.soundSourceMasterGainLocked(typeHash))
	s.mutex.Unlock()
}

// RemoveSource unregisters a provider. Removing a provider that is not
// registered is a no-op; teardown ordering between a source's owner and the
// engine is not guaranteed.
func (s *AudioEngine) RemoveSource(provider SampleProvider) {
	if provider == nil {
		return
	}
	s.mutex.Lock()
	s.registry.remove(provider)
	s.mutex.Unlock()
}

// Update runs the per-frame hook of every live source. It does nothing
// unless playing. Sources are visited in reverse so a source's update may
// remove itself, or earlier sources, without skipping anyone still live.
// Call it from one goroutine, normally the application's frame loop.
func (s *AudioEngine) Update(timeStep float32) {
	s.mutex.Lock()
	playing := s.playing
	s.mutex.Unlock()
	if !playing {
		return
	}
	s.updateSources(timeStep)
}

// updateSources walks the registry newest-first. Entries and liveness are
// read under the mutex; the mutex is released only around the provider hook
// so the hook may call back into the engine, removing itself or other
// sources. Removals compact the slice, so the cursor is re-checked against
// the length on every step; a removal below the cursor shifts entries down
// and the walk can visit a shifted entry twice.
func (s *AudioEngine) updateSources(timeStep float32) {
	s.mutex.Lock()
	for i := len(s.registry.handles) - 1; i >= 0; i-- {
		if i >= len(s.registry.handles) {
			continue
		}
		h := s.registry.handles[i]
		if !h.isLive(s.paused) {
			continue
		}
		s.mutex.Unlock()
		h.provider.Update(timeStep)
		s.mutex.Lock()
	}
	s.mutex.Unlock()
}

// Close stops playback and releases the device. The engine may be reused
// with a later SetMode.
func (s *AudioEngine) Close() {
	s.release()
}

// release drops the device and the fragment. The device is closed outside
// the engine lock: closing waits out an in-flight pull, and that pull holds
// the lock.
func (s *AudioEngine) release() {
	s.mutex.Lock()
	device := s.device
	s.device = nil
	s.playing = false
	s.initialized = false
	s.clipBuffer = nil
	if device != nil {
		s.opens--
	}
	s.mutex.Unlock()

	if device != nil {
		if err := device.Close(); err != nil {
			alog.WithError(err).Warn("Closing audio output reported an error")
		}
	}
}

// GetMode returns the active, already clamped mode.
func (s *AudioEngine) GetMode() AudioMode {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return AudioMode{
		MixRate:        s.mixRate,
		BufferLengthMs: s.bufferLengthMs,
		Stereo:         s.stereo,
		Interpolation:  s.interpolation,
	}
}

func (s *AudioEngine) MixRate() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.mixRate
}

func (s *AudioEngine) IsStereo() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stereo
}

func (s *AudioEngine) Interpolation() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.interpolation
}

func (s *AudioEngine) IsPlaying() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playing
}

// IsInitialized reports whether a mode has been set and a device is open.
func (s *AudioEngine) IsInitialized() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.initialized
}

// SampleSize returns the byte size of one interleaved output frame, or 0
// before the first SetMode.
func (s *AudioEngine) SampleSize() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sampleSize
}

func (s *AudioEngine) FragmentFrames() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fragmentFrames
}

// SourceCount returns the number of registered providers, duplicates
// included.
func (s *AudioEngine) SourceCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.registry.size()
}

// DeviceOpenCount exposes the open/close pairing counter: 1 while a device
// is open, 0 otherwise.
func (s *AudioEngine) DeviceOpenCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.opens
}
