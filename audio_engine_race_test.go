package tinaudio

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestAudioEngine_ConcurrentPullAndControl stresses the three-way race between
// the device pull path (MixOutput), the frame path (Update) and application
// control calls. The test itself has no assertions - the race detector is the
// oracle. Run with: go test -race -run TestAudioEngine_ConcurrentPullAndControl -count=1
func TestAudioEngine_ConcurrentPullAndControl(t *testing.T) {
	engine := newTestEngine(t, true)

	samples := make([]int16, 512)
	for i := range samples {
		samples[i] = int16(i * 64)
	}
	clip := NewSound(samples, 22050, false)
	clip.SetLooped(true)

	music := NewClipSource(engine, "music")
	music.Play(clip)
	tone := NewToneSource(engine, "sfx")
	tone.SetFrequency(440)
	tone.Play()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Goroutine 1: device-side puller - drains fragments like a real backend
	wg.Go(func() {
		dest := make([]byte, 256*4)
		for {
			select {
			case <-stop:
				return
			default:
			}
			engine.MixOutput(dest, 256)
		}
	})

	// Goroutine 2: frame-side updater - the application's per-frame tick
	wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			engine.Update(0.004)
		}
	})

	// Goroutine 3: control calls - gain table, pause sets, play state
	wg.Go(func() {
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			engine.SetMasterGain("music", float32(iter%11)/10)
			engine.SetMasterGain(SOUND_MASTER, float32(iter%7)/6)
			switch iter % 4 {
			case 0:
				engine.PauseSoundType("sfx")
			case 1:
				engine.ResumeSoundType("sfx")
			case 2:
				engine.Stop()
			case 3:
				engine.Play()
			}
			iter++
		}
	})

	// Goroutine 4: source churn - transient sources come and go
	wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := NewClipSource(engine, "sfx")
			s.Play(clip)
			s.SetPanning(-0.5)
			engine.RemoveSource(s)
		}
	})

	// Goroutine 5: source parameter writes against the pull path
	wg.Go(func() {
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			music.SetGain(float32(iter%20) / 10)
			music.SetPanning(float32(iter%21)/10 - 1)
			tone.SetFrequency(float64(200 + iter%800))
			tone.SetWaveform(iter % 2)
			iter++
		}
	})

	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()
}

// TestAudioEngine_ConcurrentModeSwitch races SetMode against an active puller.
// Run with: go test -race -run TestAudioEngine_ConcurrentModeSwitch -count=1
func TestAudioEngine_ConcurrentModeSwitch(t *testing.T) {
	engine := newTestEngine(t, true)
	engine.AddSource(newFakeProvider("music", 5000))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Go(func() {
		// Sized for the widest mode so mono switches just use less of it.
		dest := make([]byte, 256*4)
		for {
			select {
			case <-stop:
				return
			default:
			}
			engine.MixOutput(dest, 256)
		}
	})

	wg.Go(func() {
		rates := []int{11025, 22050, 44100, 48000}
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			engine.SetMode(50, rates[iter%len(rates)], iter%2 == 0, true)
			iter++
		}
	})

	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()
}

// TestAudioEngine_ConcurrentAddRemove checks the one property that survives
// arbitrary interleaving: the final registry size is adds minus removes.
func TestAudioEngine_ConcurrentAddRemove(t *testing.T) {
	engine := newTestEngine(t, true)

	const workers = 4
	const perWorker = 125
	const removed = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			providers := make([]*fakeProvider, perWorker)
			for i := range providers {
				providers[i] = newFakeProvider(fmt.Sprintf("type%d", w), 0)
				engine.AddSource(providers[i])
			}
			for i := 0; i < removed; i++ {
				engine.RemoveSource(providers[i])
			}
		})
	}
	wg.Wait()

	want := workers * (perWorker - removed)
	if got := engine.SourceCount(); got != want {
		t.Errorf("SourceCount = %d, want %d", got, want)
	}
}
