// sound_loader.go - decoded-PCM clip loading (WAV, OGG Vorbis, MP3)

/*
tinaudio - realtime audio mixing engine

(c) 2025 - 2026 wuxianggujun
https://github.com/wuxianggujun/tinaudio
License: GPLv3 or later
*/

package tinaudio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// LoadSoundFile loads a clip, picking the decoder from the file extension.
func LoadSoundFile(path string) (*Sound, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return LoadWAVFile(path)
	case ".ogg":
		return LoadOGGFile(path)
	case ".mp3":
		return LoadMP3File(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// LoadWAVFile decodes a PCM WAV file into a Sound at its native rate.
// 8, 16, 24 and 32 bit sample widths are accepted and converted to 16 bit.
func LoadWAVFile(path string) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("decode wav %s: no format information", path)
	}
	channels := buf.Format.NumChannels
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels in %s", ErrUnsupportedFormat, channels, path)
	}

	samples := make([]int16, len(buf.Data))
	switch d.BitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		for i, v := range buf.Data {
			samples[i] = int16((int32(v) - 128) << 8)
		}
	case 16:
		for i, v := range buf.Data {
			samples[i] = int16(v)
		}
	case 24:
		for i, v := range buf.Data {
			samples[i] = int16(v >> 8)
		}
	case 32:
		for i, v := range buf.Data {
			samples[i] = int16(v >> 16)
		}
	default:
		return nil, fmt.Errorf("%w: %d-bit wav %s", ErrUnsupportedFormat, d.BitDepth, path)
	}
	return NewSound(samples, buf.Format.SampleRate, channels == 2), nil
}

// LoadOGGFile decodes an Ogg Vorbis file into a Sound at its native rate.
func LoadOGGFile(path string) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ogg: %w", err)
	}
	defer f.Close()

	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode ogg %s: %w", path, err)
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, fmt.Errorf("%w: %d channels in %s", ErrUnsupportedFormat, format.Channels, path)
	}

	samples := make([]int16, len(data))
	for i, v := range data {
		samples[i] = pcm16FromFloat(v)
	}
	return NewSound(samples, format.SampleRate, format.Channels == 2), nil
}

// LoadMP3File decodes an MP3 file into a Sound. The decoder always emits
// 16-bit stereo at the stream's sample rate.
func LoadMP3File(path string) (*Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mp3: %w", err)
	}
	defer f.Close()

	d, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", path, err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", path, err)
	}

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return NewSound(samples, d.SampleRate(), true), nil
}

// pcm16FromFloat converts a [-1,1] float sample to int16 with saturation.
func pcm16FromFloat(v float32) int16 {
	scaled := int32(v * 32767)
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
