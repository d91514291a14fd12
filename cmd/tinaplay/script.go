// script.go - Lua control scripting for tinaplay

/*
tinaplay - command line player for the tinaudio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package main

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/wuxianggujun/tinaudio"
)

// scriptSource is the part of a provider a script can drive after creation.
type scriptSource interface {
	Stop()
	IsPlaying() bool
}

// scriptHost exposes the engine control surface to Lua:
//
//	h = play(path [, type [, loop]])   load a file and start it, returns handle
//	h = tone(freq [, wave [, amp [, type]]])   start a sine/square tone
//	stop(h)                            stop a source by handle
//	wait(h)                            step updates until the source finishes
//	sleep(seconds)                     step updates for a wall-clock duration
//	gain(type, value)                  set a master gain entry
//	pause(type) / resume(type) / resumeall()
//	render(path, seconds)              offline bounce to a WAV file
//	mixrate()                          engine mix rate in Hz
//
// sleep and wait drive the engine's frame updates, so auto-remove and other
// time-based behaviour runs exactly as it would under an interactive loop.
type scriptHost struct {
	engine      *tinaudio.AudioEngine
	defaultType string
	sources     map[int]scriptSource
	next        int
}

func runScript(engine *tinaudio.AudioEngine, path, defaultType string) error {
	host := &scriptHost{
		engine:      engine,
		defaultType: defaultType,
		sources:     make(map[int]scriptSource),
	}

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("play", L.NewFunction(host.luaPlay))
	L.SetGlobal("tone", L.NewFunction(host.luaTone))
	L.SetGlobal("stop", L.NewFunction(host.luaStop))
	L.SetGlobal("wait", L.NewFunction(host.luaWait))
	L.SetGlobal("sleep", L.NewFunction(host.luaSleep))
	L.SetGlobal("gain", L.NewFunction(host.luaGain))
	L.SetGlobal("pause", L.NewFunction(host.luaPause))
	L.SetGlobal("resume", L.NewFunction(host.luaResume))
	L.SetGlobal("resumeall", L.NewFunction(host.luaResumeAll))
	L.SetGlobal("render", L.NewFunction(host.luaRender))
	L.SetGlobal("mixrate", L.NewFunction(host.luaMixRate))

	return L.DoFile(path)
}

// stepFor sleeps in short ticks while keeping engine frame updates flowing.
func (h *scriptHost) stepFor(d time.Duration) {
	const tick = 16 * time.Millisecond
	deadline := time.Now().Add(d)
	last := time.Now()
	for {
		now := time.Now()
		h.engine.Update(float32(now.Sub(last).Seconds()))
		last = now
		remain := time.Until(deadline)
		if remain <= 0 {
			return
		}
		if remain < tick {
			time.Sleep(remain)
		} else {
			time.Sleep(tick)
		}
	}
}

func (h *scriptHost) register(src scriptSource) int {
	h.next++
	h.sources[h.next] = src
	return h.next
}

func (h *scriptHost) luaPlay(L *lua.LState) int {
	path := L.CheckString(1)
	soundType := L.OptString(2, h.defaultType)
	loop := L.OptBool(3, false)

	snd, err := tinaudio.LoadSoundFile(path)
	if err != nil {
		L.RaiseError("play %s: %v", path, err)
		return 0
	}
	snd.SetLooped(loop)
	src := tinaudio.NewClipSource(h.engine, soundType)
	src.Play(snd)
	L.Push(lua.LNumber(h.register(src)))
	return 1
}

func (h *scriptHost) luaTone(L *lua.LState) int {
	freq := float64(L.CheckNumber(1))
	wave := L.OptString(2, "sine")
	amp := float64(L.OptNumber(3, 0.5))
	soundType := L.OptString(4, "sfx")

	src := tinaudio.NewToneSource(h.engine, soundType)
	switch wave {
	case "sine":
		src.SetWaveform(tinaudio.TONE_SINE)
	case "square":
		src.SetWaveform(tinaudio.TONE_SQUARE)
	default:
		h.engine.RemoveSource(src)
		L.RaiseError("tone: unknown waveform %q (want sine or square)", wave)
		return 0
	}
	src.SetFrequency(freq)
	src.SetAmplitude(float32(amp))
	src.Play()
	L.Push(lua.LNumber(h.register(src)))
	return 1
}

func (h *scriptHost) luaStop(L *lua.LState) int {
	if src, ok := h.sources[L.CheckInt(1)]; ok {
		src.Stop()
	}
	return 0
}

func (h *scriptHost) luaWait(L *lua.LState) int {
	src, ok := h.sources[L.CheckInt(1)]
	if !ok {
		return 0
	}
	for src.IsPlaying() {
		h.stepFor(16 * time.Millisecond)
	}
	return 0
}

func (h *scriptHost) luaSleep(L *lua.LState) int {
	seconds := float64(L.CheckNumber(1))
	if seconds > 0 {
		h.stepFor(time.Duration(seconds * float64(time.Second)))
	}
	return 0
}

func (h *scriptHost) luaGain(L *lua.LState) int {
	h.engine.SetMasterGain(L.CheckString(1), float32(L.CheckNumber(2)))
	return 0
}

func (h *scriptHost) luaPause(L *lua.LState) int {
	h.engine.PauseSoundType(L.CheckString(1))
	return 0
}

func (h *scriptHost) luaResume(L *lua.LState) int {
	h.engine.ResumeSoundType(L.CheckString(1))
	return 0
}

func (h *scriptHost) luaResumeAll(L *lua.LState) int {
	h.engine.ResumeAll()
	return 0
}

func (h *scriptHost) luaRender(L *lua.LState) int {
	path := L.CheckString(1)
	seconds := float64(L.CheckNumber(2))
	renderer := tinaudio.NewWAVRenderer(h.engine)
	if err := renderer.RenderFile(path, time.Duration(seconds*float64(time.Second))); err != nil {
		L.RaiseError("render %s: %v", path, err)
		return 0
	}
	return 0
}

func (h *scriptHost) luaMixRate(L *lua.LState) int {
	L.Push(lua.LNumber(h.engine.MixRate()))
	return 1
}
