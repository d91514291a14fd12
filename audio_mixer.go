// audio_mixer.go - the pull-path mix loop: accumulate, clamp, pack

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

// MixOutput fills dest with frames interleaved 16-bit little-endian samples.
// It is the single hot path, called from the device pull goroutine, and never
// allocates. dest must hold at least frames * SampleSize() bytes.
//
// Work is chunked by the fragment size: each chunk zeroes the wide int32
// accumulator, lets every live source add its signal, then packs down to
// int16 with a saturating clamp. The accumulator being wider than the output
// is what tolerates the transient sum of many loud sources; the clamp is the
// only place clipping is introduced, and it pins at the boundary rather than
// wrapping.
func (s *AudioEngine) MixOutput(dest []byte, frames int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.playing || s.clipBuffer == nil || s.masterGain[masterTypeHash] == 0 {
		for i := range dest {
			dest[i] = 0
		}
		s.peakLeft = 0
		s.peakRight = 0
		return
	}

	s.peakLeft = 0
	s.peakRight = 0

	destPos := 0
	for frames > 0 {
		workFrames := frames
		if workFrames > s.fragmentFrames {
			workFrames = s.fragmentFrames
		}
		clipSamples := workFrames
		if s.stereo {
			clipSamples <<= 1
		}

		clip := s.clipBuffer[:clipSamples]
		for i := range clip {
			clip[i] = 0
		}

		s.registry.contribute(clip, workFrames, s.mixRate, s.stereo, s.interpolation, s.paused)

		destPos = s.packClip(dest, destPos, clip)
		frames -= workFrames
	}
}

// packClip clamps the accumulated chunk to the int16 range, writes it out
// little-endian and feeds the level meter and the tap ring.
func (s *AudioEngine) packClip(dest []byte, destPos int, clip []int32) int {
	tapMask := len(s.tap) - 1
	for i, v := range clip {
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		dest[destPos] = byte(v)
		dest[destPos+1] = byte(v >> 8)
		destPos += 2

		s.tap[s.tapPos] = int16(v)
		s.tapPos = (s.tapPos + 1) & tapMask

		a := v
		if a < 0 {
			a = -a
		}
		if s.stereo && i&1 == 1 {
			if a > s.peakRight {
				s.peakRight = a
			}
		} else {
			if a > s.peakLeft {
				s.peakLeft = a
			}
		}
	}
	if !s.stereo {
		s.peakRight = s.peakLeft
	}
	return destPos
}

// OutputPeaks returns the per-channel peak of the most recently mixed
// fragment, normalized to [0,1].
func (s *AudioEngine) OutputPeaks() (left, right float32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return float32(s.peakLeft) / 32767, float32(s.peakRight) / 32767
}

// CopyTap copies the most recent post-clamp output samples into dst, oldest
// first, and returns the number copied. Interleaved when the mode is stereo.
func (s *AudioEngine) CopyTap(dst []int16) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	n := len(dst)
	if n > len(s.tap) {
		n = len(s.tap)
	}
	mask := len(s.tap) - 1
	start := s.tapPos - n
	for i := 0; i < n; i++ {
		dst[i] = s.tap[(start+i)&mask]
	}
	return n
}

func nextPowerOfTwo(v int) int {
	if v < 1 {
		return 1
	}
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}
