//go:build !portaudio

package tinaudio

import "fmt"

func newPortAudioDevice(engine *AudioEngine) (OutputDevice, error) {
	return nil, fmt.Errorf("%w: portaudio (build with -tags portaudio)", ErrBackendUnavailable)
}
