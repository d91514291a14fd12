//go:build alsa && linux

// audio_backend_alsa.go - ALSA output device, opt-in via the alsa build tag

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate, unsigned int channels) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_S16_LE);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, channels);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate_near(handle, params, &rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, short* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// ALSADevice feeds the PCM handle from its own goroutine: each pass pulls one
// period from MixOutput and hands it to snd_pcm_writei, which blocks until
// the device wants more. The write backpressure is the pacing.
type ALSADevice struct {
	engine       *AudioEngine
	handle       *C.snd_pcm_t
	periodFrames int
	frameBytes   int
	buf          []byte
	running      bool
	stop         chan struct{}
	done         chan struct{}
	mutex        sync.Mutex
}

func newALSADevice(engine *AudioEngine) (OutputDevice, error) {
	return &ALSADevice{engine: engine}, nil
}

func (d *ALSADevice) Open(mode AudioMode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.handle != nil {
		return nil
	}

	name := C.CString("default")
	defer C.free(unsafe.Pointer(name))

	var cerr C.int
	handle := C.openPCM(name, &cerr)
	if cerr < 0 {
		return fmt.Errorf("alsa open: %s", C.GoString(C.snd_strerror(cerr)))
	}
	if cerr = C.setupPCM(handle, C.uint(mode.MixRate), C.uint(mode.ChannelCount())); cerr < 0 {
		C.closePCM(handle)
		return fmt.Errorf("alsa setup: %s", C.GoString(C.snd_strerror(cerr)))
	}

	d.handle = handle
	d.periodFrames = nextPowerOfTwo(mode.MixRate >> FRAGMENT_RATE_SHIFT)
	d.frameBytes = mode.SampleSize()
	d.buf = make([]byte, d.periodFrames*d.frameBytes)
	return nil
}

func (d *ALSADevice) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.handle == nil || d.running {
		return
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running = true
	go d.feedLoop(d.stop, d.done)
}

func (d *ALSADevice) feedLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		d.engine.MixOutput(d.buf, d.periodFrames)
		frames := C.writePCM(d.handle, (*C.short)(unsafe.Pointer(&d.buf[0])), C.int(d.periodFrames))
		if frames < 0 {
			if frames == -C.EPIPE {
				// Underrun; prepare and retry the period once.
				C.snd_pcm_prepare(d.handle)
				frames = C.writePCM(d.handle, (*C.short)(unsafe.Pointer(&d.buf[0])), C.int(d.periodFrames))
			}
			if frames < 0 {
				alog.Errorf("alsa write: %s", C.GoString(C.snd_strerror(C.int(frames))))
				return
			}
		}
	}
}

func (d *ALSADevice) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.running {
		close(d.stop)
		<-d.done
		d.running = false
	}
	if d.handle != nil {
		C.closePCM(d.handle)
		d.handle = nil
	}
	return nil
}
