// sound_stream.go - push-model PCM stream provider

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import "sync"

// Default cap on queued stream data, in frames. At 48 kHz this is well over a
// second of backlog.
const STREAM_QUEUE_FRAMES = 65536

// StreamSource mixes PCM pushed by application goroutines. Producers call
// Append with interleaved chunks; the mix path drains them with the same
// fractional stepping ClipSource uses, bridging interpolation across chunk
// boundaries by peeking the next queued chunk. An empty queue yields silence
// while the source stays registered, so producers may fall behind and catch
// up without an audible error state. The queue is bounded; overflow drops the
// oldest chunks first.
type StreamSource struct {
	mutex      sync.Mutex
	engine     *AudioEngine
	soundType  string
	sampleRate int
	stereo     bool
	queue      [][]int16
	queued     int   // frames currently queued
	limit      int   // queue bound in frames
	pos        int64 // 16.16 cursor into queue[0]
	playing    bool
	starved    uint64
	dropped    uint64
	gains      sourceGains
}

// NewStreamSource creates a stream in the given native format and registers
// it with the engine. A nil engine leaves the stream detached.
func NewStreamSource(engine *AudioEngine, soundType string, sampleRate int, stereo bool) *StreamSource {
	if sampleRate <= 0 {
		sampleRate = MIN_MIX_RATE
	}
	s := &StreamSource{
		engine:     engine,
		soundType:  soundType,
		sampleRate: sampleRate,
		stereo:     stereo,
		limit:      STREAM_QUEUE_FRAMES,
		playing:    true,
	}
	s.gains.init()
	if engine != nil {
		engine.AddSource(s)
	}
	return s
}

func (s *StreamSource) SoundType() string {
	return s.soundType
}

func (s *StreamSource) channels() int {
	if s.stereo {
		return 2
	}
	return 1
}

// Append queues a copy of the given interleaved samples. A trailing partial
// frame is dropped. When the queue bound is exceeded the oldest chunks are
// discarded until the backlog fits again.
func (s *StreamSource) Append(samples []int16) {
	ch := s.channels()
	usable := len(samples) - len(samples)%ch
	if usable == 0 {
		return
	}
	chunk := make([]int16, usable)
	copy(chunk, samples[:usable])

	s.mutex.Lock()
	s.queue = append(s.queue, chunk)
	s.queued += usable / ch
	for s.queued > s.limit && len(s.queue) > 1 {
		head := len(s.queue[0]) / ch
		s.queue = s.queue[1:]
		s.queued -= head
		s.pos = 0
		s.dropped += uint64(head)
	}
	s.mutex.Unlock()
}

// Clear drops all queued data and rewinds the cursor.
func (s *StreamSource) Clear() {
	s.mutex.Lock()
	s.queue = nil
	s.queued = 0
	s.pos = 0
	s.mutex.Unlock()
}

// SetQueueLimit bounds the backlog in frames. Values below one frame clamp
// to one.
func (s *StreamSource) SetQueueLimit(frames int) {
	if frames < 1 {
		frames = 1
	}
	s.mutex.Lock()
	s.limit = frames
	s.mutex.Unlock()
}

func (s *StreamSource) QueuedFrames() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.queued
}

// StarvedCount reports how many mix passes ran the queue dry.
func (s *StreamSource) StarvedCount() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.starved
}

// DroppedFrames reports how many frames overflow has discarded.
func (s *StreamSource) DroppedFrames() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.dropped
}

func (s *StreamSource) Play() {
	s.mutex.Lock()
	s.playing = true
	s.mutex.Unlock()
}

func (s *StreamSource) Stop() {
	s.mutex.Lock()
	s.playing = false
	s.mutex.Unlock()
}

func (s *StreamSource) IsPlaying() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.playing
}

func (s *StreamSource) SetGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	s.mutex.Lock()
	s.gains.gain = gain
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *StreamSource) Gain() float32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gains.gain
}

func (s *StreamSource) SetAttenuation(attenuation float32) {
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

func (s *StreamSource) SetPanning(panning float32) {
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

func (s *StreamSource) UpdateMasterGain(effective float32) {
	s.mutex.Lock()
	s.gains.masterGain = effective
	s.gains.recompute()
	s.mutex.Unlock()
}

func (s *StreamSource) Update(timeStep float32) {
	// Streams have no per-frame bookkeeping; producers drive them.
}

func (s *StreamSource) Contribute(accumulator []int32, frames, mixRate int, stereo, interpolation bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.playing || mixRate <= 0 || frames <= 0 {
		return
	}
	inc := (int64(s.sampleRate) << POSITION_SHIFT) / int64(mixRate)
	if inc <= 0 {
		inc = 1
	}

	var silent bool
	if stereo && !s.stereo {
		silent = s.gains.volLeft == 0 && s.gains.volRight == 0
	} else {
		silent = s.gains.volFlat == 0
	}
	if silent {
		s.discard(int64(frames) * inc)
		return
	}

	volL := s.gains.volLeft
	volR := s.gains.volRight
	vol := s.gains.volFlat
	for i := 0; i < frames; i++ {
		l, r, ok := s.frameAt(interpolation)
		if !ok {
			// Ran dry; the rest of this chunk stays silent.
			s.starved++
			return
		}
		if stereo {
			if s.stereo {
				accumulator[2*i] += (l * vol) >> VOLUME_SHIFT
				accumulator[2*i+1] += (r * vol) >> VOLUME_SHIFT
			} else {
				accumulator[2*i] += (l * volL) >> VOLUME_SHIFT
				accumulator[2*i+1] += (l * volR) >> VOLUME_SHIFT
			}
		} else {
			if s.stereo {
				accumulator[i] += (((l + r) >> 1) * vol) >> VOLUME_SHIFT
			} else {
				accumulator[i] += (l * vol) >> VOLUME_SHIFT
			}
		}
		s.pos += inc
	}
}

// frameAt reads the frame under the cursor, popping fully consumed chunks
// first. The interpolated read peeks the next chunk's first frame when the
// cursor sits on a chunk's last frame, and holds the sample when nothing is
// queued behind it.
func (s *StreamSource) frameAt(interpolation bool) (int32, int32, bool) {
	ch := s.channels()
	for {
		if len(s.queue) == 0 {
			s.pos = 0
			return 0, 0, false
		}
		head := s.queue[0]
		headFrames := len(head) / ch
		idx := int(s.pos >> POSITION_SHIFT)
		if idx >= headFrames {
			s.queue = s.queue[1:]
			s.queued -= headFrames
			s.pos -= int64(headFrames) << POSITION_SHIFT
			continue
		}

		var l0, r0 int32
		if s.stereo {
			l0 = int32(head[2*idx])
			r0 = int32(head[2*idx+1])
		} else {
			l0 = int32(head[idx])
			r0 = l0
		}
		if !interpolation {
			return l0, r0, true
		}

		l1, r1 := l0, r0
		if idx+1 < headFrames {
			if s.stereo {
				l1 = int32(head[2*idx+2])
				r1 = int32(head[2*idx+3])
			} else {
				l1 = int32(head[idx+1])
				r1 = l1
			}
		} else if len(s.queue) > 1 {
			next := s.queue[1]
			if s.stereo {
				l1 = int32(next[0])
				r1 = int32(next[1])
			} else {
				l1 = int32(next[0])
				r1 = l1
			}
		}
		frac := s.pos & POSITION_FRAC_MASK
		l := l0 + int32((int64(l1-l0)*frac)>>POSITION_SHIFT)
		r := r0 + int32((int64(r1-r0)*frac)>>POSITION_SHIFT)
		return l, r, true
	}
}

// discard consumes queued frames without producing output, used while the
// source is inaudible.
func (s *StreamSource) discard(delta int64) {
	ch := s.channels()
	s.pos += delta
	for len(s.queue) > 0 {
		headFrames := len(s.queue[0]) / ch
		span := int64(headFrames) << POSITION_SHIFT
		if s.pos < span {
			return
		}
		s.queue = s.queue[1:]
		s.queued -= headFrames
		s.pos -= span
	}
	s.pos = 0
}
