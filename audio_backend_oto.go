//go:build !headless

// audio_backend_oto.go - Oto v3 output device, the default backend

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto allows one context per process, and a context is fixed to one rate and
// channel count. The cache hands the live context out by reference count; a
// request for a different mode while references are held is a recoverable
// device-open failure, and a fully released context is suspended, not torn
// down.
type otoContextCache struct {
	mutex    sync.Mutex
	ctx      *oto.Context
	mixRate  int
	channels int
	refs     int
}

var otoCache otoContextCache

func (c *otoContextCache) acquire(mode AudioMode) (*oto.Context, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	channels := mode.ChannelCount()
	if c.ctx != nil {
		if c.mixRate != mode.MixRate || c.channels != channels {
			return nil, fmt.Errorf("%w: holding %d Hz %dch, requested %d Hz %dch",
				ErrDeviceBusy, c.mixRate, c.channels, mode.MixRate, channels)
		}
		if err := c.ctx.Resume(); err != nil {
			return nil, err
		}
		c.refs++
		return c.ctx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   mode.MixRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(mode.BufferLengthMs) * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	c.ctx = ctx
	c.mixRate = mode.MixRate
	c.channels = channels
	c.refs = 1
	return ctx, nil
}

func (c *otoContextCache) release() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.refs == 0 {
		return nil
	}
	c.refs--
	if c.refs == 0 {
		return c.ctx.Suspend()
	}
	return nil
}

// OtoDevice drives the engine from oto's pull goroutine: the player reads
// from the device, the device delegates to MixOutput.
type OtoDevice struct {
	engine     atomic.Pointer[AudioEngine] // atomic for the lock-free Read path
	ctx        *oto.Context
	player     *oto.Player
	frameBytes int
	opened     bool
	mutex      sync.Mutex // setup/control operations only
}

func newOtoDevice(engine *AudioEngine) (*OtoDevice, error) {
	d := &OtoDevice{}
	d.engine.Store(engine)
	return d, nil
}

func (d *OtoDevice) Open(mode AudioMode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.opened {
		return nil
	}

	ctx, err := otoCache.acquire(mode)
	if err != nil {
		return err
	}
	d.ctx = ctx
	d.frameBytes = mode.SampleSize()
	d.player = ctx.NewPlayer(d)
	d.player.SetBufferSize(mode.MixRate * mode.BufferLengthMs / 1000 * d.frameBytes)
	d.opened = true
	return nil
}

// Read is the pull callback. No device lock on this path; the engine pointer
// is loaded atomically and MixOutput takes the engine's own mutex.
func (d *OtoDevice) Read(p []byte) (n int, err error) {
	engine := d.engine.Load()
	if engine == nil || d.frameBytes == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / d.frameBytes
	if frames > 0 {
		engine.MixOutput(p[:frames*d.frameBytes], frames)
	}
	for i := frames * d.frameBytes; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (d *OtoDevice) Resume() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.player != nil && !d.player.IsPlaying() {
		d.player.Play()
	}
}

func (d *OtoDevice) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// Pulls arriving from here on zero-fill.
	d.engine.Store(nil)

	var err error
	if d.player != nil {
		err = d.player.Close()
		d.player = nil
	}
	if d.opened {
		if rerr := otoCache.release(); err == nil {
			err = rerr
		}
		d.opened = false
	}
	d.ctx = nil
	return err
}
