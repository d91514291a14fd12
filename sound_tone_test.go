// sound_tone_test.go - golden output tests for the tone generator

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

/*
Golden output tests capture expected tone output for regression testing.

The tests check statistical properties of the generated samples (RMS, peak,
DC offset, zero crossings) rather than exact bit-for-bit matching against
stored buffers, so a waveform change shows up while harmless numerical
reordering does not. Determinism itself is asserted separately: the same
(waveform, frequency, mix rate) triple must reproduce identical samples.
*/

package tinaudio

import (
	"math"
	"testing"
)

// goldenStats captures statistical properties of a sample run, normalized to
// full scale.
type goldenStats struct {
	rms           float64
	peak          float64
	dcOffset      float64
	zeroCrossings int
}

func computeStats(samples []int32) goldenStats {
	if len(samples) == 0 {
		return goldenStats{}
	}

	var sum, sumSq, peak float64
	var crossings int
	var prevSign bool

	for i, s := range samples {
		v := float64(s) / 32767
		sum += v
		sumSq += v * v
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}

		currentSign := s >= 0
		if i > 0 && currentSign != prevSign {
			crossings++
		}
		prevSign = currentSign
	}

	n := float64(len(samples))
	return goldenStats{
		rms:           math.Sqrt(sumSq / n),
		peak:          peak,
		dcOffset:      sum / n,
		zeroCrossings: crossings,
	}
}

// collectTone drains frames mono samples from the source in chunked pulls,
// the way the mix loop would.
func collectTone(s *ToneSource, frames, chunk int) []int32 {
	out := make([]int32, 0, frames)
	for frames > 0 {
		n := chunk
		if n > frames {
			n = frames
		}
		acc := make([]int32, n)
		s.Contribute(acc, n, 44100, false, true)
		out = append(out, acc...)
		frames -= n
	}
	return out
}

func newGoldenTone(waveform int) *ToneSource {
	s := NewToneSource(nil, "sfx")
	s.SetWaveform(waveform)
	s.SetFrequency(440)
	s.SetAmplitude(1)
	s.Play()
	return s
}

// TestGolden_ToneSine verifies sine generation produces expected statistics.
func TestGolden_ToneSine(t *testing.T) {
	// ~44 periods of 440Hz at 44100 for stable stats.
	samples := collectTone(newGoldenTone(TONE_SINE), 4410, 441)
	stats := computeStats(samples)

	// Sine RMS should be peak / sqrt(2) = ~0.707
	if math.Abs(stats.rms-0.707) > 0.05 {
		t.Errorf("Sine RMS = %f, expected ~0.707", stats.rms)
	}
	if stats.peak < 0.95 || stats.peak > 1.0 {
		t.Errorf("Sine peak = %f, expected ~1.0", stats.peak)
	}
	if math.Abs(stats.dcOffset) > 0.01 {
		t.Errorf("Sine DC offset = %f, expected ~0", stats.dcOffset)
	}
	// 440Hz for 4410 samples is ~44 periods, two crossings each.
	if stats.zeroCrossings < 78 || stats.zeroCrossings > 98 {
		t.Errorf("Sine zero crossings = %d, expected ~88", stats.zeroCrossings)
	}
}

// TestGolden_ToneSquare verifies square generation produces expected statistics.
func TestGolden_ToneSquare(t *testing.T) {
	samples := collectTone(newGoldenTone(TONE_SQUARE), 4410, 441)
	stats := computeStats(samples)

	// A pure square has RMS equal to its peak.
	if stats.rms < 0.95 || stats.rms > 1.05 {
		t.Errorf("Square RMS = %f, expected ~1.0", stats.rms)
	}
	if stats.peak < 0.95 || stats.peak > 1.0 {
		t.Errorf("Square peak = %f, expected ~1.0", stats.peak)
	}
	if math.Abs(stats.dcOffset) > 0.05 {
		t.Errorf("Square DC offset = %f, expected ~0", stats.dcOffset)
	}
	if stats.zeroCrossings < 78 || stats.zeroCrossings > 98 {
		t.Errorf("Square zero crossings = %d, expected ~88", stats.zeroCrossings)
	}
}

// TestGolden_ToneDeterminism verifies two identical sources emit identical
// samples.
func TestGolden_ToneDeterminism(t *testing.T) {
	a := collectTone(newGoldenTone(TONE_SINE), 2048, 2048)
	b := collectTone(newGoldenTone(TONE_SINE), 2048, 2048)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

// TestGolden_TonePhaseContinuity verifies chunked pulls join without a seam:
// the phase accumulator carries across Contribute calls.
func TestGolden_TonePhaseContinuity(t *testing.T) {
	whole := collectTone(newGoldenTone(TONE_SINE), 2048, 2048)
	chunked := collectTone(newGoldenTone(TONE_SINE), 2048, 7)
	for i := range whole {
		if whole[i] != chunked[i] {
			t.Fatalf("sample %d differs between pull sizes: %d vs %d", i, whole[i], chunked[i])
		}
	}
}

func TestToneSourceMutedPhaseStillAdvances(t *testing.T) {
	steady := newGoldenTone(TONE_SINE)
	muted := newGoldenTone(TONE_SINE)
	muted.SetGain(0)

	collectTone(steady, 1000, 1000)
	if out := collectTone(muted, 1000, 1000); out[500] != 0 {
		t.Fatal("muted tone produced output")
	}
	muted.SetGain(1)

	// Both advanced 1000 frames, so their next chunks must match.
	a := collectTone(steady, 256, 256)
	b := collectTone(muted, 256, 256)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs after mute: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestToneSourceStopResetsPhase(t *testing.T) {
	s := newGoldenTone(TONE_SQUARE)
	collectTone(s, 777, 777)
	s.Stop()
	if s.IsPlaying() {
		t.Fatal("still playing after Stop")
	}
	if out := collectTone(s, 4, 4); out[0] != 0 {
		t.Fatal("stopped tone produced output")
	}

	s.Play()
	out := collectTone(s, 1, 1)
	// Phase zero on a square is the positive rail.
	if out[0] != 32767 {
		t.Errorf("first sample after restart = %d, want 32767", out[0])
	}
}

func TestToneSourceInvalidWaveformFallsBack(t *testing.T) {
	a := newGoldenTone(TONE_SINE)
	b := newGoldenTone(99)
	wa := collectTone(a, 64, 64)
	wb := collectTone(b, 64, 64)
	for i := range wa {
		if wa[i] != wb[i] {
			t.Fatalf("sample %d differs: unknown waveform did not fall back to sine", i)
		}
	}
}

func TestToneSourceFrequencyFloor(t *testing.T) {
	s := NewToneSource(nil, "sfx")
	s.SetFrequency(-20)
	if got := s.Frequency(); got != 1 {
		t.Errorf("Frequency = %f, want the floor 1", got)
	}
}

func TestToneSourceAmplitudeClamp(t *testing.T) {
	s := newGoldenTone(TONE_SQUARE)
	s.SetAmplitude(2)
	if out := collectTone(s, 1, 1); out[0] != 32767 {
		t.Errorf("sample = %d with amplitude clamped high, want 32767", out[0])
	}

	s = newGoldenTone(TONE_SQUARE)
	s.SetAmplitude(-1)
	if out := collectTone(s, 4, 4); out[0] != 0 {
		t.Errorf("sample = %d with amplitude clamped to zero, want 0", out[0])
	}
}

func TestToneSourcePansIntoStereo(t *testing.T) {
	s := newGoldenTone(TONE_SQUARE)
	s.SetPanning(-1)
	acc := make([]int32, 8)
	s.Contribute(acc, 4, 44100, true, true)
	if acc[0] != 32767 {
		t.Errorf("left = %d, want 32767", acc[0])
	}
	if acc[1] != 0 {
		t.Errorf("right = %d, want 0", acc[1])
	}
}
