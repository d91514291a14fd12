// audio_engine_test.go - engine facade: mode lifecycle, gain table, pause sets, update order

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"sync"
	"testing"
)

// fakeProvider adds a constant value to every accumulator slot and records
// the calls it receives. Its own mutex nests inside the engine lock, the same
// order real providers use.
type fakeProvider struct {
	mutex       sync.Mutex
	soundType   string
	value       int32
	updates     int
	lastStep    float32
	contributes int
	masterGain  float32
	removeSelf  *AudioEngine
	alsoRemove  SampleProvider
}

func newFakeProvider(soundType string, value int32) *fakeProvider {
	return &fakeProvider{soundType: soundType, value: value, masterGain: 1}
}

func (p *fakeProvider) SoundType() string {
	return p.soundType
}

func (p *fakeProvider) Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool) {
	p.mutex.Lock()
	p.contributes++
	v := p.value
	p.mutex.Unlock()
	samples := frames
	if stereo {
		samples *= 2
	}
	for i := 0; i < samples; i++ {
		accumulator[i] += v
	}
}

func (p *fakeProvider) Update(timeStep float32) {
	p.mutex.Lock()
	p.updates++
	p.lastStep = timeStep
	engine := p.removeSelf
	other := p.alsoRemove
	p.mutex.Unlock()
	if engine != nil {
		engine.RemoveSource(p)
		if other != nil {
			engine.RemoveSource(other)
		}
	}
}

func (p *fakeProvider) UpdateMasterGain(effective float32) {
	p.mutex.Lock()
	p.masterGain = effective
	p.mutex.Unlock()
}

func (p *fakeProvider) Updates() (int, float32) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.updates, p.lastStep
}

func (p *fakeProvider) MasterGain() float32 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.masterGain
}

func (p *fakeProvider) SetValue(v int32) {
	p.mutex.Lock()
	p.value = v
	p.mutex.Unlock()
}

// parkingProvider blocks inside its first Update call until released, so a
// test can hold the frame walk mid-pass while another goroutine mutates the
// registry.
type parkingProvider struct {
	mutex     sync.Mutex
	soundType string
	updates   int
	entered   chan struct{}
	release   chan struct{}
}

func newParkingProvider(soundType string) *parkingProvider {
	return &parkingProvider{
		soundType: soundType,
		entered:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (p *parkingProvider) SoundType() string {
	return p.soundType
}

func (p *parkingProvider) Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool) {
}

func (p *parkingProvider) Update(timeStep float32) {
	p.mutex.Lock()
	p.updates++
	first := p.updates == 1
	p.mutex.Unlock()
	if first {
		close(p.entered)
		<-p.release
	}
}

func (p *parkingProvider) UpdateMasterGain(effective float32) {}

func (p *parkingProvider) Updates() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.updates
}

// newTestEngine returns a playing engine on the null backend.
func newTestEngine(t testing.TB, stereo bool) *AudioEngine {
	t.Helper()
	engine := NewAudioEngine(AUDIO_BACKEND_NULL)
	if !engine.SetMode(50, 44100, stereo, true) {
		t.Fatal("SetMode failed on the null backend")
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestSetModeClampsParameters(t *testing.T) {
	cases := []struct {
		name                   string
		bufferMs, rate         int
		wantBufferMs, wantRate int
	}{
		{"below floors", 0, 1000, MIN_BUFFER_LENGTH_MS, MIN_MIX_RATE},
		{"above ceiling", 5, 96000, MIN_BUFFER_LENGTH_MS, MAX_MIX_RATE},
		{"negative buffer", -10, 22050, MIN_BUFFER_LENGTH_MS, 22050},
		{"in range", 100, 44100, 100, 44100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewAudioEngine(AUDIO_BACKEND_NULL)
			defer engine.Close()
			if !engine.SetMode(tc.bufferMs, tc.rate, true, false) {
				t.Fatalf("SetMode(%d, %d) failed", tc.bufferMs, tc.rate)
			}
			mode := engine.GetMode()
			if mode.BufferLengthMs != tc.wantBufferMs {
				t.Errorf("BufferLengthMs = %d, want %d", mode.BufferLengthMs, tc.wantBufferMs)
			}
			if mode.MixRate != tc.wantRate {
				t.Errorf("MixRate = %d, want %d", mode.MixRate, tc.wantRate)
			}
			if !mode.Stereo || mode.Interpolation {
				t.Errorf("mode flags = %+v, want stereo and no interpolation", mode)
			}
		})
	}
}

func TestSetModeFragmentSize(t *testing.T) {
	cases := []struct {
		rate, want int
	}{
		{11025, 256},  // 11025>>6 = 172
		{22050, 512},  // 344
		{44100, 1024}, // 689
		{48000, 1024}, // 750
	}
	for _, tc := range cases {
		engine := NewAudioEngine(AUDIO_BACKEND_NULL)
		if !engine.SetMode(50, tc.rate, true, true) {
			t.Fatalf("SetMode at %d Hz failed", tc.rate)
		}
		if got := engine.FragmentFrames(); got != tc.want {
			t.Errorf("FragmentFrames at %d Hz = %d, want %d", tc.rate, got, tc.want)
		}
		engine.Close()
	}
}

func TestSetModeUnknownBackendFails(t *testing.T) {
	engine := NewAudioEngine(999)
	if engine.SetMode(50, 44100, true, true) {
		t.Fatal("SetMode succeeded with an unknown backend")
	}
	if engine.IsInitialized() {
		t.Error("engine reports initialized after a failed SetMode")
	}
	if engine.DeviceOpenCount() != 0 {
		t.Errorf("DeviceOpenCount = %d after failed SetMode, want 0", engine.DeviceOpenCount())
	}
	if engine.Play() {
		t.Error("Play succeeded with no device")
	}

	// The failed engine must still emit clean silence if something pulls.
	dest := make([]byte, 256)
	for i := range dest {
		dest[i] = 0xAA
	}
	engine.MixOutput(dest, 64)
	for i, b := range dest {
		if b != 0 {
			t.Fatalf("byte %d = %#x after failed SetMode, want 0", i, b)
		}
	}
}

func TestPlayWithoutModeFails(t *testing.T) {
	engine := NewAudioEngine(AUDIO_BACKEND_NULL)
	if engine.Play() {
		t.Error("Play succeeded before SetMode")
	}
}

func TestStopIsSoft(t *testing.T) {
	engine := newTestEngine(t, true)
	if !engine.IsPlaying() {
		t.Fatal("engine not playing after SetMode")
	}
	engine.Stop()
	if engine.IsPlaying() {
		t.Error("still playing after Stop")
	}
	if !engine.IsInitialized() || engine.DeviceOpenCount() != 1 {
		t.Error("Stop tore down the device; it should only clear the playing flag")
	}
	if !engine.Play() {
		t.Error("Play after Stop failed")
	}
	if !engine.IsPlaying() {
		t.Error("not playing after Play")
	}
}

func TestSetMasterGainClampsAndPushes(t *testing.T) {
	engine := newTestEngine(t, true)
	music := newFakeProvider("music", 0)
	engine.AddSource(music)

	engine.SetMasterGain("music", 2.5)
	if got := engine.GetMasterGain("music"); got != 1 {
		t.Errorf("gain clamped to %f, want 1", got)
	}
	if got := music.MasterGain(); got != 1 {
		t.Errorf("pushed gain = %f, want 1", got)
	}

	engine.SetMasterGain("music", -3)
	if got := engine.GetMasterGain("music"); got != 0 {
		t.Errorf("gain clamped to %f, want 0", got)
	}
	if got := music.MasterGain(); got != 0 {
		t.Errorf("pushed gain = %f, want 0", got)
	}

	// Master multiplies the category gain.
	engine.SetMasterGain("music", 0.25)
	engine.SetMasterGain(SOUND_MASTER, 0.5)
	if got := music.MasterGain(); got != 0.125 {
		t.Errorf("effective gain = %f, want 0.125", got)
	}
	if got := engine.GetSoundSourceMasterGain("music"); got != 0.125 {
		t.Errorf("GetSoundSourceMasterGain = %f, want 0.125", got)
	}
}

func TestUnknownCategoryResolvesToFullGain(t *testing.T) {
	engine := newTestEngine(t, true)
	if got := engine.GetMasterGain("voices"); got != 1 {
		t.Errorf("unknown category gain = %f, want 1", got)
	}
	engine.SetMasterGain(SOUND_MASTER, 0.5)
	if got := engine.GetSoundSourceMasterGain("voices"); got != 0.5 {
		t.Errorf("unknown category effective gain = %f, want master 0.5", got)
	}
	if got := engine.GetSoundSourceMasterGain(SOUND_MASTER); got != 0.5 {
		t.Errorf("Master effective gain = %f, want 0.5", got)
	}
}

func TestAddSourcePushesCurrentGain(t *testing.T) {
	engine := newTestEngine(t, true)
	engine.SetMasterGain("sfx", 0.5)
	engine.SetMasterGain(SOUND_MASTER, 0.5)
	p := newFakeProvider("sfx", 0)
	engine.AddSource(p)
	if got := p.MasterGain(); got != 0.25 {
		t.Errorf("gain pushed at add = %f, want 0.25", got)
	}
}

func TestPauseExcludesFromUpdate(t *testing.T) {
	engine := newTestEngine(t, true)
	music := newFakeProvider("music", 0)
	sfx := newFakeProvider("sfx", 0)
	engine.AddSource(music)
	engine.AddSource(sfx)

	engine.PauseSoundType("sfx")
	if !engine.IsSoundTypePaused("sfx") {
		t.Fatal("sfx not reported paused")
	}
	if engine.IsSoundTypePaused("music") {
		t.Fatal("music reported paused")
	}

	engine.Update(0.016)
	if n, _ := sfx.Updates(); n != 0 {
		t.Errorf("paused source updated %d times, want 0", n)
	}
	if n, step := music.Updates(); n != 1 || step != 0.016 {
		t.Errorf("live source updates = %d step %f, want 1 at 0.016", n, step)
	}

	// Resume runs a zero-timestep pass immediately.
	engine.ResumeSoundType("sfx")
	if engine.IsSoundTypePaused("sfx") {
		t.Error("sfx still paused after resume")
	}
	if n, step := sfx.Updates(); n != 1 || step != 0 {
		t.Errorf("resumed source updates = %d step %f, want 1 at 0", n, step)
	}
}

func TestResumeAll(t *testing.T) {
	engine := newTestEngine(t, true)
	engine.PauseSoundType("music")
	engine.PauseSoundType("sfx")
	engine.ResumeAll()
	if engine.IsSoundTypePaused("music") || engine.IsSoundTypePaused("sfx") {
		t.Error("categories still paused after ResumeAll")
	}
}

func TestAddDoesNotDeduplicate(t *testing.T) {
	engine := newTestEngine(t, true)
	p := newFakeProvider("music", 0)
	engine.AddSource(p)
	engine.AddSource(p)
	if got := engine.SourceCount(); got != 2 {
		t.Errorf("SourceCount = %d after adding the same provider twice, want 2", got)
	}
}

func TestRemoveSourceIdempotent(t *testing.T) {
	engine := newTestEngine(t, true)
	p := newFakeProvider("music", 0)
	engine.AddSource(p)
	engine.RemoveSource(p)
	if got := engine.SourceCount(); got != 0 {
		t.Fatalf("SourceCount = %d after remove, want 0", got)
	}
	engine.RemoveSource(p)
	if got := engine.SourceCount(); got != 0 {
		t.Errorf("SourceCount = %d after double remove, want 0", got)
	}
	engine.RemoveSource(nil)
}

func TestUpdateSelfRemoval(t *testing.T) {
	engine := newTestEngine(t, true)
	a := newFakeProvider("music", 0)
	b := newFakeProvider("music", 0)
	c := newFakeProvider("music", 0)
	engine.AddSource(a)
	engine.AddSource(b)
	engine.AddSource(c)
	b.removeSelf = engine

	engine.Update(0.01)
	if got := engine.SourceCount(); got != 2 {
		t.Errorf("SourceCount = %d after self-removal, want 2", got)
	}
	for name, p := range map[string]*fakeProvider{"a": a, "b": b, "c": c} {
		if n, _ := p.Updates(); n != 1 {
			t.Errorf("provider %s updated %d times, want 1", name, n)
		}
	}
}

func TestUpdateRemovalOfEarlierSource(t *testing.T) {
	engine := newTestEngine(t, true)
	a := newFakeProvider("music", 0)
	b := newFakeProvider("music", 0)
	c := newFakeProvider("music", 0)
	engine.AddSource(a)
	engine.AddSource(b)
	engine.AddSource(c)
	// The reverse walk reaches c first; c removes both itself and a, so a
	// must not be visited afterwards.
	c.removeSelf = engine
	c.alsoRemove = a

	engine.Update(0.01)
	if got := engine.SourceCount(); got != 1 {
		t.Fatalf("SourceCount = %d, want 1", got)
	}
	if n, _ := a.Updates(); n != 0 {
		t.Errorf("removed source a updated %d times, want 0", n)
	}
	if n, _ := b.Updates(); n != 1 {
		t.Errorf("surviving source b updated %d times, want 1", n)
	}
}

// A source removed by another goroutine while the walk sits inside a later
// source's update hook must never be visited, and the walk must finish over
// the compacted registry without racing the removal.
func TestUpdateConcurrentRemoval(t *testing.T) {
	engine := newTestEngine(t, true)
	victim := newFakeProvider("music", 0)
	parker := newParkingProvider("music")
	engine.AddSource(victim)
	engine.AddSource(parker)

	done := make(chan struct{})
	go func() {
		defer close(done)
		engine.Update(0.016)
	}()

	// The reverse walk reaches the parking source first and blocks in its
	// hook with the engine mutex released; removing the earlier source now
	// compacts the registry under the paused walk.
	<-parker.entered
	engine.RemoveSource(victim)
	close(parker.release)
	<-done

	if n, _ := victim.Updates(); n != 0 {
		t.Errorf("removed source updated %d times, want 0", n)
	}
	// Compaction shifted the surviving source into the vacated slot, so the
	// walk sees it once more at the lower index.
	if got := parker.Updates(); got != 2 {
		t.Errorf("surviving source updated %d times, want 2", got)
	}
	if got := engine.SourceCount(); got != 1 {
		t.Errorf("SourceCount = %d, want 1", got)
	}
}

func TestUpdateRequiresPlaying(t *testing.T) {
	engine := newTestEngine(t, true)
	p := newFakeProvider("music", 0)
	engine.AddSource(p)
	engine.Stop()
	engine.Update(0.1)
	if n, _ := p.Updates(); n != 0 {
		t.Errorf("source updated %d times while stopped, want 0", n)
	}
}

func TestCloseAndReuse(t *testing.T) {
	engine := NewAudioEngine(AUDIO_BACKEND_NULL)
	if !engine.SetMode(50, 44100, true, true) {
		t.Fatal("SetMode failed")
	}
	if got := engine.DeviceOpenCount(); got != 1 {
		t.Fatalf("DeviceOpenCount = %d, want 1", got)
	}

	// A second SetMode resets the device; the counter must not drift.
	if !engine.SetMode(50, 22050, false, false) {
		t.Fatal("second SetMode failed")
	}
	if got := engine.DeviceOpenCount(); got != 1 {
		t.Errorf("DeviceOpenCount after reset = %d, want 1", got)
	}
	if got := engine.MixRate(); got != 22050 {
		t.Errorf("MixRate = %d, want 22050", got)
	}

	engine.Close()
	if got := engine.DeviceOpenCount(); got != 0 {
		t.Errorf("DeviceOpenCount after Close = %d, want 0", got)
	}
	if engine.IsInitialized() || engine.IsPlaying() {
		t.Error("engine still initialized/playing after Close")
	}
	engine.Close() // safe to repeat

	if !engine.SetMode(50, 44100, true, true) {
		t.Error("engine not reusable after Close")
	}
	engine.Close()
}

func TestHashSoundType(t *testing.T) {
	if hashSoundType(SOUND_MASTER) != masterTypeHash {
		t.Error("hash of the Master category does not match masterTypeHash")
	}
	if hashSoundType("music") != hashSoundType("music") {
		t.Error("hash is not stable")
	}
	if hashSoundType("music") == hashSoundType("sfx") {
		t.Error("distinct categories collide")
	}
}
