// audio_registry.go - the active-source list shared by the mix and frame paths

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

// sourceHandle is one registry entry: a non-owning provider reference plus
// its category hash, captured when the provider was added.
type sourceHandle struct {
	provider SampleProvider
	typeHash uint32
}

// isLive is the single liveness predicate consulted by both the mix path and
// the frame path, so the two can never disagree about which sources count.
func (h *sourceHandle) isLive(paused map[uint32]struct{}) bool {
	if len(paused) == 0 {
		return true
	}
	_, stopped := paused[h.typeHash]
	return !stopped
}

// sourceRegistry is a plain slice; every mutation and every entry read
// happens with the engine mutex held, and critical sections stay free of
// decoding, logging and allocation (add being the one operation that may
// grow the slice, on the application path).
type sourceRegistry struct {
	handles []sourceHandle
}

func (r *sourceRegistry) add(h sourceHandle) {
	r.handles = append(r.handles, h)
}

// remove erases the first handle holding the provider and reports whether
// one was found. The vacated tail slot is zeroed so it does not keep the
// removed provider reachable.
func (r *sourceRegistry) remove(provider SampleProvider) bool {
	for i := range r.handles {
		if r.handles[i].provider == provider {
			copy(r.handles[i:], r.handles[i+1:])
			r.handles[len(r.handles)-1] = sourceHandle{}
			r.handles = r.handles[:len(r.handles)-1]
			return true
		}
	}
	return false
}

func (r *sourceRegistry) size() int {
	return len(r.handles)
}

// contribute lets every live source add one chunk into the accumulator.
// Caller holds the engine mutex.
func (r *sourceRegistry) contribute(clip []int32, frames, mixRate int, stereo, interpolation bool, paused map[uint32]struct{}) {
	for i := range r.handles {
		h := &r.handles[i]
		if !h.isLive(paused) {
			continue
		}
		h.provider.Contribute(clip, frames, mixRate, stereo, interpolation)
	}
}
