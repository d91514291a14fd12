//go:build portaudio

// audio_backend_portaudio.go - PortAudio output device, opt-in via the portaudio build tag

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudio wants Initialize/Terminate paired process-wide; the counter keeps
// the pairing explicit instead of hiding it in package init.
var paShared struct {
	mutex sync.Mutex
	refs  int
}

func paAcquire() error {
	paShared.mutex.Lock()
	defer paShared.mutex.Unlock()
	if paShared.refs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
	}
	paShared.refs++
	return nil
}

func paRelease() error {
	paShared.mutex.Lock()
	defer paShared.mutex.Unlock()
	if paShared.refs == 0 {
		return nil
	}
	paShared.refs--
	if paShared.refs == 0 {
		return portaudio.Terminate()
	}
	return nil
}

// PortAudioDevice registers a stream callback on PortAudio's audio thread;
// the callback pulls packed bytes from MixOutput into a preallocated buffer
// and unpacks them into the stream's int16 slice.
type PortAudioDevice struct {
	engine     *AudioEngine
	stream     *portaudio.Stream
	channels   int
	frameBytes int
	buf        []byte
	opened     bool
	started    bool
	mutex      sync.Mutex
}

func newPortAudioDevice(engine *AudioEngine) (OutputDevice, error) {
	return &PortAudioDevice{engine: engine}, nil
}

func (d *PortAudioDevice) Open(mode AudioMode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.opened {
		return nil
	}
	if err := paAcquire(); err != nil {
		return err
	}

	d.channels = mode.ChannelCount()
	d.frameBytes = mode.SampleSize()
	framesPerBuffer := nextPowerOfTwo(mode.MixRate >> FRAGMENT_RATE_SHIFT)
	d.buf = make([]byte, framesPerBuffer*d.frameBytes)

	stream, err := portaudio.OpenDefaultStream(0, d.channels, float64(mode.MixRate), framesPerBuffer, d.pull)
	if err != nil {
		paRelease()
		return err
	}
	d.stream = stream
	d.opened = true
	return nil
}

func (d *PortAudioDevice) pull(out []int16) {
	frames := len(out) / d.channels
	needed := frames * d.frameBytes
	if needed > len(d.buf) {
		// Clamp to the preallocated buffer; never allocate on this path.
		frames = len(d.buf) / d.frameBytes
		needed = frames * d.frameBytes
	}
	d.engine.MixOutput(d.buf[:needed], frames)
	for i := 0; i < frames*d.channels; i++ {
		out[i] = int16(uint16(d.buf[2*i]) | uint16(d.buf[2*i+1])<<8)
	}
	for i := frames * d.channels; i < len(out); i++ {
		out[i] = 0
	}
}

func (d *PortAudioDevice) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stream == nil || d.started {
		return
	}
	if err := d.stream.Start(); err != nil {
		alog.WithError(err).Error("Could not start portaudio stream")
		return
	}
	d.started = true
}

func (d *PortAudioDevice) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var err error
	if d.stream != nil {
		if d.started {
			err = d.stream.Stop()
			d.started = false
		}
		if cerr := d.stream.Close(); err == nil {
			err = cerr
		}
		d.stream = nil
	}
	if d.opened {
		if rerr := paRelease(); err == nil {
			err = rerr
		}
		d.opened = false
	}
	return err
}
